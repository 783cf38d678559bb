package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a dataset file, choosing the format by extension:
// .csv, .tsv, .yaml, .yml, or .json.
func Load(path string, opts Options) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path, ',', opts)
	case ".tsv":
		return LoadCSV(path, '\t', opts)
	case ".yaml", ".yml", ".json":
		return LoadYAML(path, opts)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (want .csv, .tsv, .yaml, .yml, .json)", filepath.Ext(path))
	}
}

// LoadCSV reads a delimited file whose first record is the header.
func LoadCSV(path string, comma rune, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	t, err := ReadCSV(f, comma, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses delimited text whose first record is the header.
func ReadCSV(r io.Reader, comma rune, opts Options) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV: no header")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	// Strip a UTF-8 byte order mark left by spreadsheet exports
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	return FromStrings(header, rows, opts)
}

// LoadYAML reads a YAML (or JSON) dataset.
//
// Two shapes are accepted:
//
//	# list of row maps; columns in order of first appearance
//	- {Name: Alice, Age: 24}
//	- {Name: Bob, Age: 27}
//
//	# explicit column order
//	columns: [Name, Age]
//	rows:
//	  - {Name: Alice, Age: 24}
func LoadYAML(path string, opts Options) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	t, err := ParseYAML(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseYAML parses the shapes accepted by LoadYAML.
func ParseYAML(data []byte, opts Options) (*Table, error) {
	var doc yaml.Node
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty YAML document")
		}
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	var columns []string
	rowsNode := root

	if root.Kind == yaml.MappingNode {
		var wrapper struct {
			Columns []string  `yaml:"columns"`
			Rows    yaml.Node `yaml:"rows"`
		}
		if err := root.Decode(&wrapper); err != nil {
			return nil, fmt.Errorf("decode dataset: %w", err)
		}
		columns = wrapper.Columns
		rowsNode = &wrapper.Rows
	}

	if rowsNode.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: rows must be a list of maps", rowsNode.Line)
	}

	records := make([]map[string]any, 0, len(rowsNode.Content))
	for i, rowNode := range rowsNode.Content {
		if rowNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: row %d is not a map", rowNode.Line, i)
		}
		var rec map[string]any
		if err := rowNode.Decode(&rec); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		records = append(records, rec)
	}

	if columns == nil {
		columns = orderedKeys(rowsNode)
	}

	return FromRecords(columns, records, opts)
}

// orderedKeys returns row-map keys in order of first appearance.
func orderedKeys(rows *yaml.Node) []string {
	seen := make(map[string]bool)
	keys := []string{}
	for _, row := range rows.Content {
		// Mapping node content alternates key, value
		for i := 0; i+1 < len(row.Content); i += 2 {
			k := row.Content[i].Value
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}
