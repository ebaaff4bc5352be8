package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bh-premnath-git/bhui-sub000/internal/catalog"
	"github.com/bh-premnath-git/bhui-sub000/internal/config"
	"github.com/bh-premnath-git/bhui-sub000/internal/defaults"
	"github.com/bh-premnath-git/bhui-sub000/internal/logging"
	"github.com/bh-premnath-git/bhui-sub000/internal/render"
	"github.com/bh-premnath-git/bhui-sub000/internal/resolver"
	"github.com/bh-premnath-git/bhui-sub000/internal/server"
	"github.com/bh-premnath-git/bhui-sub000/internal/validate"
)

// errInvalid makes the process exit non-zero after the result is printed.
var errInvalid = errors.New("values are not valid")

// ─── resolve ──────────────────────────────────────────────────────────────────

type resolveOutput struct {
	Active   []string           `json:"active"`
	Required []string           `json:"required"`
	Warnings []resolver.Warning `json:"warnings,omitempty"`
}

func resolveCmd(g *globalFlags) *cobra.Command {
	var valuesPath string
	cmd := &cobra.Command{
		Use:   "resolve <schema>",
		Short: "Print the fields active for a set of values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEntry(args[0], g)
			if err != nil {
				return err
			}
			values, err := readMap(cmd, valuesPath)
			if err != nil {
				return err
			}
			active := e.Resolver.Resolve(e.Root(), values)
			out := resolveOutput{Active: active.Keys(), Required: active.Required, Warnings: active.Warnings}
			if out.Required == nil {
				out.Required = []string{}
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&valuesPath, "values", "", "JSON/YAML file with form values (- for stdin)")
	return cmd
}

// ─── defaults ─────────────────────────────────────────────────────────────────

func defaultsCmd(g *globalFlags) *cobra.Command {
	var (
		valuesPath string
		clean      bool
	)
	cmd := &cobra.Command{
		Use:   "defaults <schema>",
		Short: "Print the initial values of a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEntry(args[0], g)
			if err != nil {
				return err
			}
			initial, err := readMap(cmd, valuesPath)
			if err != nil {
				return err
			}
			values, err := defaults.New(defaults.WithResolver(e.Resolver)).Initial(e.Root(), initial)
			if err != nil {
				return err
			}
			if clean {
				values = defaults.StripFormArtifacts(values)
			}
			return printJSON(cmd, values)
		},
	}
	cmd.Flags().StringVar(&valuesPath, "values", "", "JSON/YAML file with values merged over the defaults")
	cmd.Flags().BoolVar(&clean, "clean", false, "drop row keys and unwrap primitive rows")
	return cmd
}

// ─── validate ─────────────────────────────────────────────────────────────────

func validateCmd(g *globalFlags) *cobra.Command {
	var (
		valuesPath string
		rulesOnly  bool
	)
	cmd := &cobra.Command{
		Use:   "validate <schema>",
		Short: "Validate form values; exits non-zero when invalid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEntry(args[0], g)
			if err != nil {
				return err
			}
			values, err := readMap(cmd, valuesPath)
			if err != nil {
				return err
			}
			var res validate.Result
			if rulesOnly {
				res = validate.Validate(e.Root(), values)
			} else {
				res = validate.Full(e.Root(), e.Checker, values)
			}
			if err := printJSON(cmd, res); err != nil {
				return err
			}
			if !res.Valid {
				return fmt.Errorf("%w: %d error(s)", errInvalid, len(res.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&valuesPath, "values", "-", "JSON/YAML file with form values (- for stdin)")
	cmd.Flags().BoolVar(&rulesOnly, "rules-only", false, "skip type coercion and JSON Schema keyword checks")
	return cmd
}

// ─── render ───────────────────────────────────────────────────────────────────

func renderCmd(g *globalFlags) *cobra.Command {
	var (
		valuesPath  string
		optionsPath string
		parentPath  string
	)
	cmd := &cobra.Command{
		Use:   "render <schema>",
		Short: "Print the render plan for a set of values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEntry(args[0], g)
			if err != nil {
				return err
			}
			values, err := readMap(cmd, valuesPath)
			if err != nil {
				return err
			}
			raw, err := readMap(cmd, optionsPath)
			if err != nil {
				return err
			}
			opts, err := render.DecodeOptions(raw, render.DefaultOptions())
			if err != nil {
				return err
			}
			plan := render.NewRenderer(e.Resolver.Resolve).Render(e.Root(), parentPath, values, opts)
			return printJSON(cmd, plan)
		},
	}
	cmd.Flags().StringVar(&valuesPath, "values", "", "JSON/YAML file with form values (- for stdin)")
	cmd.Flags().StringVar(&optionsPath, "options", "", "JSON/YAML file with render options")
	cmd.Flags().StringVar(&parentPath, "parent", "", "dotted path prefix for field paths")
	return cmd
}

// ─── lint ─────────────────────────────────────────────────────────────────────

func lintCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lint <schema>...",
		Short: "Report schema problems: parse issues and dead conditional branches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			problems := 0
			for _, path := range args {
				e, err := loadEntry(path, g)
				if err != nil {
					return err
				}
				findings := catalog.Lint(e)
				if len(findings) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", path)
					continue
				}
				for _, f := range findings {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, f)
				}
				problems += len(findings)
			}
			if problems > 0 {
				return fmt.Errorf("%d problem(s) found", problems)
			}
			return nil
		},
	}
}

// ─── serve ────────────────────────────────────────────────────────────────────

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       int
		schemaDir  string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the schema catalog over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("schemas") {
				cfg.SchemaDir = schemaDir
			}
			if _, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()); err != nil {
				return err
			}
			srvCfg, err := server.FromConfig(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return server.Run(ctx, srvCfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().IntVar(&port, "port", 8080, "listen port")
	cmd.Flags().StringVar(&schemaDir, "schemas", "./schemas", "directory of schema documents")
	return cmd
}
