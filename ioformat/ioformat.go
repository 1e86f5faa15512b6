// Package ioformat implements the external-collaborator data readers the
// CLI depends on: plain text, JSON Lines, CSV, and schema files, plus the
// small solution/text writers the CLI uses for its own output. None of
// this is part of the core algorithm; it only shapes data into the
// []string / map[string]string forms solve/structured expect.
package ioformat

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Items is the include/exclude pair read for a propose/evaluate run.
type Items struct {
	Include []string
	Exclude []string
}

const maxLineBuffer = 1024 * 1024

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBuffer)
	return scanner
}

// ReadTextLines reads one item per line, dropping blank lines.
func ReadTextLines(r io.Reader) ([]string, error) {
	var out []string
	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ioformat: read text lines: %w", err)
	}
	return out, nil
}

// ReadJSONLines reads one JSON value per line: a bare scalar, or an object
// carrying an "item" key, whose value becomes the item.
func ReadJSONLines(r io.Reader) ([]string, error) {
	var out []string
	scanner := newLineScanner(r)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("ioformat: parse json line %q: %w", raw, err)
		}
		out = append(out, jsonItemValue(v))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ioformat: read json lines: %w", err)
	}
	return out, nil
}

func jsonItemValue(v any) string {
	if m, ok := v.(map[string]any); ok {
		if item, ok := m["item"]; ok {
			return fmt.Sprint(item)
		}
	}
	return fmt.Sprint(v)
}

// ReadCSVColumn reads one item per row out of the named column (default
// "item"), skipping rows where that column is empty.
func ReadCSVColumn(r io.Reader, column string) ([]string, error) {
	if column == "" {
		column = "item"
	}
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ioformat: read csv header: %w", err)
	}

	idx := -1
	for i, h := range header {
		if h == column {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("ioformat: csv missing required column %q", column)
	}

	var out []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ioformat: read csv row: %w", err)
		}
		if idx < len(rec) && rec[idx] != "" {
			out = append(out, rec[idx])
		}
	}
	return out, nil
}

// ReadItems dispatches on path's extension: .json/.jsonl reads JSON Lines,
// .csv reads the "item" column, anything else reads plain text lines.
func ReadItems(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ioformat: open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl":
		return ReadJSONLines(f)
	case ".csv":
		return ReadCSVColumn(f, "item")
	default:
		return ReadTextLines(f)
	}
}

// EnsureItems reads the include set (required) and the exclude set
// (optional; an empty excludePath yields no exclude rows).
func EnsureItems(includePath, excludePath string) (Items, error) {
	include, err := ReadItems(includePath)
	if err != nil {
		return Items{}, err
	}
	var exclude []string
	if excludePath != "" {
		exclude, err = ReadItems(excludePath)
		if err != nil {
			return Items{}, err
		}
	}
	return Items{Include: include, Exclude: exclude}, nil
}

// Schema describes how to split a composite item (e.g. "mod/inst/pin") into
// named structured fields.
type Schema struct {
	Name      string   `yaml:"name" json:"name"`
	Delimiter string   `yaml:"delimiter" json:"delimiter"`
	Fields    []string `yaml:"fields" json:"fields"`
}

// Split divides item on the schema's delimiter, padding with empty strings
// if item has fewer parts than declared fields.
func (s Schema) Split(item string) []string {
	delim := s.Delimiter
	if delim == "" {
		delim = "/"
	}
	parts := strings.Split(item, delim)
	for len(parts) < len(s.Fields) {
		parts = append(parts, "")
	}
	return parts
}

// LoadSchema reads a {name, delimiter, fields} schema file. yaml.v3 parses
// JSON schema files too, since JSON is a YAML subset.
func LoadSchema(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("ioformat: read schema %s: %w", path, err)
	}
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, fmt.Errorf("ioformat: parse schema %s: %w", path, err)
	}
	if s.Delimiter == "" {
		s.Delimiter = "/"
	}
	if s.Name == "" {
		s.Name = "path"
	}
	if len(s.Fields) == 0 {
		return Schema{}, fmt.Errorf("ioformat: schema %s: fields must be a non-empty array of strings", path)
	}
	return s, nil
}

// SchemaFromFlags builds an inline schema from CLI flags instead of a
// schema file. It returns ok=false when neither flag was supplied (no
// structured mode requested).
func SchemaFromFlags(delimiter, fieldsCSV string) (schema Schema, ok bool, err error) {
	if delimiter == "" && fieldsCSV == "" {
		return Schema{}, false, nil
	}
	if delimiter == "" {
		delimiter = "/"
	}
	if fieldsCSV == "" {
		return Schema{}, false, fmt.Errorf("ioformat: --fields requires comma separated names when --delimiter is supplied")
	}
	var fields []string
	for _, f := range strings.Split(fieldsCSV, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			fields = append(fields, f)
		}
	}
	return Schema{Name: "inline", Delimiter: delimiter, Fields: fields}, true, nil
}

// RowsFromSchema splits every item by schema's delimiter into a
// map[string]string keyed by schema's declared field names — the shape
// structured.ProposeSolutionStructured's Row type expects.
func RowsFromSchema(items []string, schema Schema) []map[string]string {
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		parts := schema.Split(item)
		row := make(map[string]string, len(schema.Fields))
		for i, field := range schema.Fields {
			if i < len(parts) {
				row[field] = parts[i]
			} else {
				row[field] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteJSON marshals obj as indented, key-sorted JSON to path, or to
// stdout when path is "-".
func WriteJSON(obj any, path string) error {
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Errorf("ioformat: marshal json: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("ioformat: write json %s: %w", path, err)
	}
	return nil
}

// WriteText writes text verbatim to path, or to stdout (appending a
// trailing newline if missing) when path is "-".
func WriteText(text, path string) error {
	if path == "-" {
		out := text
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		_, err := os.Stdout.WriteString(out)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("ioformat: write text %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads path and unmarshals it into v (typically a
// *solve.Solution or *map[string]any).
func LoadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ioformat: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("ioformat: parse %s: %w", path, err)
	}
	return nil
}
