package measures

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// StdinPath is the path that selects standard input in LoadFiles.
const StdinPath = "-"

// defaultLoadConcurrency bounds how many measure files are read at once.
const defaultLoadConcurrency = 4

// document is the mapping form of a measures file. A bare top-level list of
// measures is accepted as well.
type document struct {
	Measures []Measure `yaml:"measures"`
}

// Decode parses measures from YAML (or JSON, which is valid YAML).
func Decode(r io.Reader) ([]Measure, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read measures: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse measures: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, nil
		}
		root = root.Content[0]
	}

	var out []Measure
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&out); err != nil {
			return nil, fmt.Errorf("parse measures: %w", err)
		}
	case yaml.MappingNode:
		var d document
		if err := root.Decode(&d); err != nil {
			return nil, fmt.Errorf("parse measures: %w", err)
		}
		out = d.Measures
	default:
		return nil, fmt.Errorf("parse measures: expected a list or a mapping with a measures key (line %d)", root.Line)
	}

	for i, m := range out {
		if strings.TrimSpace(string(m.Metric)) == "" {
			return nil, fmt.Errorf("measure %d: metric is required", i)
		}
	}
	return out, nil
}

// LoadFile reads measures from path. StdinPath reads from stdin.
func LoadFile(path string, stdin io.Reader) ([]Measure, error) {
	if path == StdinPath {
		if stdin == nil {
			stdin = os.Stdin
		}
		ms, err := Decode(stdin)
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		return ms, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open measures file: %w", err)
	}
	defer f.Close()

	ms, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ms, nil
}

// LoadFiles reads every path concurrently and concatenates the measures in
// the order the paths were given. The first error cancels the remaining loads.
func LoadFiles(ctx context.Context, paths []string, stdin io.Reader) ([]Measure, error) {
	perFile := make([][]Measure, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultLoadConcurrency)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ms, err := LoadFile(p, stdin)
			if err != nil {
				return err
			}
			perFile[i] = ms
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Measure
	for _, ms := range perFile {
		out = append(out, ms...)
	}
	return out, nil
}
