package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bh-premnath-git/bhui-sub000/internal/catalog"
	"github.com/bh-premnath-git/bhui-sub000/internal/logging"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	expr     string
	logLevel string
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "formctl",
		Short: "formctl: work with conditional form schemas",
		Long: `formctl resolves, defaults, validates and renders conditional JSON Schema
form documents (.json, .yaml or .cue) from the command line, and serves
them over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_, err := logging.New(g.logLevel, "console", cmd.ErrOrStderr())
			return err
		},
	}
	root.PersistentFlags().StringVar(&g.expr, "expr", "", "CUE path selecting the schema inside a .cue file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level")

	root.AddCommand(resolveCmd(g))
	root.AddCommand(defaultsCmd(g))
	root.AddCommand(validateCmd(g))
	root.AddCommand(renderCmd(g))
	root.AddCommand(lintCmd(g))
	root.AddCommand(serveCmd())
	return root
}

// loadEntry reads a schema file into a catalog entry.
func loadEntry(path string, g *globalFlags) (*catalog.Entry, error) {
	doc, err := schema.LoadFile(path, g.expr)
	if err != nil {
		return nil, err
	}
	return catalog.NewRegistry(0).Register(doc), nil
}

// readMap reads a JSON or YAML object from path; "-" is stdin and "" is an
// empty object.
func readMap(cmd *cobra.Command, path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
