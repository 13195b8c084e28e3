package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/schema"
	"github.com/asaidimu/go-sieve/core/sorting"
	"github.com/asaidimu/go-sieve/utils"
)

// loadSchema reads a schema definition. JSON files parse as YAML.
func loadSchema(path string) (*schema.SchemaDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	var def schema.SchemaDefinition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", path, err)
	}
	if ok, issues := schema.NewValidator(&def).ValidateDefinition(); !ok {
		return nil, fmt.Errorf("invalid schema %s: %s", path, issues[0].Message)
	}
	return &def, nil
}

// loadDocuments reads a YAML or JSON list of documents.
func loadDocuments(path string) ([]schema.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	var records []any
	if err := yaml.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parsing documents %s: %w", path, err)
	}
	return utils.Documents(records)
}

// buildQuery parses filter pairs (path=syntax, "&"-joined) and a sort list
// against d.
func buildQuery(d *schema.Descriptor, filters []string, sortSyntax string) (*filter.Filter, *sorting.Sort, error) {
	f := filter.NewFilter(d)
	for _, pairs := range filters {
		if err := f.ParseInto(pairs); err != nil {
			return nil, nil, fmt.Errorf("filter %q: %w", pairs, err)
		}
	}
	var s *sorting.Sort
	if sortSyntax != "" {
		var err error
		if s, err = sorting.Parse(d, sortSyntax); err != nil {
			return nil, nil, fmt.Errorf("sort %q: %w", sortSyntax, err)
		}
	}
	return f, s, nil
}

func writeDocuments(w io.Writer, format string, docs []schema.Document) error {
	if docs == nil {
		docs = []schema.Document{}
	}
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}
