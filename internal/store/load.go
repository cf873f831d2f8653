package store

import (
	"context"
	"fmt"
	"io"
	"maps"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sparqlsql/internal/rdf"
)

// DataFile is the YAML layout accepted by LoadYAML:
//
//	prefixes:
//	  ex: http://example.org/
//	triples:
//	  - [ex:alice, foaf:name, '"Alice"']
//	  - {s: ex:alice, p: foaf:age, o: 30, g: ex:people}
//
// Terms use the syntax of rdf.ParseTerm. Prefixes extend
// rdf.DefaultPrefixes.
type DataFile struct {
	Prefixes map[string]string `yaml:"prefixes"`
	Triples  []Triple          `yaml:"triples"`
}

// Triple is one statement in a data file, as unparsed terms.
type Triple struct {
	S string `yaml:"s"`
	P string `yaml:"p"`
	O string `yaml:"o"`
	G string `yaml:"g,omitempty"`
}

// UnmarshalYAML accepts the mapping form or a 3 or 4 element sequence.
func (t *Triple) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		var parts []string
		if err := n.Decode(&parts); err != nil {
			return err
		}
		if len(parts) != 3 && len(parts) != 4 {
			return fmt.Errorf("line %d: triple needs 3 or 4 terms, got %d", n.Line, len(parts))
		}
		t.S, t.P, t.O = parts[0], parts[1], parts[2]
		if len(parts) == 4 {
			t.G = parts[3]
		}
		return nil
	}
	type plain Triple
	return n.Decode((*plain)(t))
}

// Quad parses the triple's terms.
func (t Triple) Quad(prefixes rdf.Prefixes) (Quad, error) {
	var q Quad
	var err error
	if q.Subject, err = rdf.ParseTerm(t.S, prefixes); err != nil {
		return q, fmt.Errorf("subject: %w", err)
	}
	if q.Predicate, err = rdf.ParseTerm(t.P, prefixes); err != nil {
		return q, fmt.Errorf("predicate: %w", err)
	}
	if q.Object, err = rdf.ParseTerm(t.O, prefixes); err != nil {
		return q, fmt.Errorf("object: %w", err)
	}
	if t.G != "" {
		if q.Graph, err = rdf.ParseTerm(t.G, prefixes); err != nil {
			return q, fmt.Errorf("graph: %w", err)
		}
	}
	return q, nil
}

// Prefixes merges the file's prefixes over the defaults.
func (f *DataFile) prefixes() rdf.Prefixes {
	p := maps.Clone(rdf.DefaultPrefixes)
	maps.Copy(p, f.Prefixes)
	return p
}

// LoadYAML reads a data file from r and adds its triples. It returns the
// number of statements added.
func (s *Store) LoadYAML(ctx context.Context, r io.Reader) (int, error) {
	var f DataFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return 0, fmt.Errorf("decode data file: %w", err)
	}
	return s.Load(ctx, &f)
}

// Load adds the triples of an already decoded data file.
func (s *Store) Load(ctx context.Context, f *DataFile) (int, error) {
	prefixes := f.prefixes()
	for i, t := range f.Triples {
		q, err := t.Quad(prefixes)
		if err != nil {
			return i, fmt.Errorf("triple %d: %w", i+1, err)
		}
		if _, err := s.AddTriple(ctx, q.Subject, q.Predicate, q.Object, q.Graph); err != nil {
			return i, fmt.Errorf("triple %d: %w", i+1, err)
		}
	}
	return len(f.Triples), nil
}
