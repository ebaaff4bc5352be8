package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Document is a schema loaded from disk together with the parse issues found
// in it.
type Document struct {
	Name   string  `json:"name"`
	Source string  `json:"source"`
	Root   *Node   `json:"-"`
	Issues []Issue `json:"issues,omitempty"`
}

// LoadFile reads a schema document. The format follows the file extension:
// .json, .yaml/.yml or .cue. For CUE files, expr selects a value inside the
// file (for example "#Transformations.join"); empty expr uses the whole file.
func LoadFile(path, expr string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}

	var raw any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		raw, err = decodeJSON(data)
	case ".yaml", ".yml":
		raw, err = decodeYAML(data)
	case ".cue":
		var exported []byte
		exported, err = exportCUE(data, path, expr)
		if err == nil {
			raw, err = decodeJSON(exported)
		}
	default:
		return nil, fmt.Errorf("reading schema %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	if _, ok := raw.(*object); !ok {
		return nil, fmt.Errorf("reading schema %s: document must be an object", path)
	}

	d := &decoder{}
	root := d.node(raw, "")
	logIssues(d.issues)
	return &Document{
		Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Source: path,
		Root:   root,
		Issues: d.issues,
	}, nil
}

// ParseCUE compiles CUE source and decodes the selected value as a schema.
func ParseCUE(data []byte, filename, expr string) (*Node, error) {
	exported, err := exportCUE(data, filename, expr)
	if err != nil {
		return nil, err
	}
	return Parse(exported)
}

// exportCUE evaluates CUE source and exports the value at expr as JSON.
// Field order in the export follows declaration order.
func exportCUE(data []byte, filename, expr string) ([]byte, error) {
	ctx := cuecontext.New()
	val := ctx.CompileBytes(data, cue.Filename(filename))
	if val.Err() != nil {
		return nil, fmt.Errorf("compiling CUE: %w", val.Err())
	}
	if expr != "" {
		val = val.LookupPath(cue.ParsePath(expr))
		if !val.Exists() {
			return nil, fmt.Errorf("CUE path %q not found", expr)
		}
	}
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("CUE value is not concrete: %w", err)
	}
	out, err := val.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("exporting CUE as JSON: %w", err)
	}
	return out, nil
}
