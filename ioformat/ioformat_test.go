package ioformat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadTextLinesDropsBlankLines(t *testing.T) {
	in := "alpha\n\n  \nbeta\ngamma\n"
	got, err := ReadTextLines(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"alpha", "beta", "gamma"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestReadJSONLinesBareScalarAndItemKey(t *testing.T) {
	in := "\"alpha\"\n{\"item\": \"beta\"}\n{\"item\": 5}\n42\n"
	got, err := ReadJSONLines(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"alpha", "beta", "5", "42"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestReadJSONLinesRejectsMalformedLine(t *testing.T) {
	if _, err := ReadJSONLines(strings.NewReader("{not json}\n")); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestReadCSVColumnExtractsNamedColumnSkippingEmpty(t *testing.T) {
	in := "item,other\na,1\n,2\nb,3\n"
	got, err := ReadCSVColumn(strings.NewReader(in), "item")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestReadCSVColumnMissingColumnErrors(t *testing.T) {
	in := "other\nval\n"
	if _, err := ReadCSVColumn(strings.NewReader(in), "item"); err == nil {
		t.Fatal("expected an error when the required column is absent")
	}
}

func TestReadCSVColumnDefaultsToItemColumn(t *testing.T) {
	in := "item\nx\ny\n"
	got, err := ReadCSVColumn(strings.NewReader(in), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("got %v", got)
	}
}

func TestReadItemsDispatchesByExtension(t *testing.T) {
	dir := t.TempDir()

	txtPath := filepath.Join(dir, "items.txt")
	if err := os.WriteFile(txtPath, []byte("a\nb\n\nc\n"), 0644); err != nil {
		t.Fatal(err)
	}
	jsonlPath := filepath.Join(dir, "items.jsonl")
	if err := os.WriteFile(jsonlPath, []byte("\"x\"\n{\"item\":\"y\"}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	csvPath := filepath.Join(dir, "items.csv")
	if err := os.WriteFile(csvPath, []byte("item\np\nq\n"), 0644); err != nil {
		t.Fatal(err)
	}

	txtGot, err := ReadItems(txtPath)
	if err != nil || len(txtGot) != 3 {
		t.Fatalf("txt: got %v, err %v", txtGot, err)
	}
	jsonlGot, err := ReadItems(jsonlPath)
	if err != nil || len(jsonlGot) != 2 || jsonlGot[1] != "y" {
		t.Fatalf("jsonl: got %v, err %v", jsonlGot, err)
	}
	csvGot, err := ReadItems(csvPath)
	if err != nil || len(csvGot) != 2 || csvGot[0] != "p" {
		t.Fatalf("csv: got %v, err %v", csvGot, err)
	}
}

func TestEnsureItemsOptionalExclude(t *testing.T) {
	dir := t.TempDir()
	includePath := filepath.Join(dir, "include.txt")
	if err := os.WriteFile(includePath, []byte("a\nb\n"), 0644); err != nil {
		t.Fatal(err)
	}

	items, err := EnsureItems(includePath, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items.Include) != 2 || items.Exclude != nil {
		t.Errorf("expected include-only Items, got %+v", items)
	}

	excludePath := filepath.Join(dir, "exclude.txt")
	if err := os.WriteFile(excludePath, []byte("c\n"), 0644); err != nil {
		t.Fatal(err)
	}
	items, err = EnsureItems(includePath, excludePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items.Exclude) != 1 || items.Exclude[0] != "c" {
		t.Errorf("expected exclude=[c], got %+v", items.Exclude)
	}
}

func TestSchemaSplitPadsMissingFields(t *testing.T) {
	s := Schema{Delimiter: "/", Fields: []string{"a", "b", "c"}}
	got := s.Split("x/y")
	want := []string{"x", "y", ""}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestSchemaSplitDefaultsDelimiterToSlash(t *testing.T) {
	s := Schema{Fields: []string{"a", "b"}}
	got := s.Split("x/y")
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("got %v", got)
	}
}

func TestLoadSchemaParsesYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "schema.yaml")
	yamlBody := "name: path\ndelimiter: \"/\"\nfields: [mod, inst, pin]\n"
	if err := os.WriteFile(yamlPath, []byte(yamlBody), 0644); err != nil {
		t.Fatal(err)
	}
	yamlSchema, err := LoadSchema(yamlPath)
	if err != nil {
		t.Fatalf("unexpected error loading yaml schema: %v", err)
	}
	if yamlSchema.Name != "path" || yamlSchema.Delimiter != "/" || len(yamlSchema.Fields) != 3 {
		t.Errorf("got %+v", yamlSchema)
	}

	jsonPath := filepath.Join(dir, "schema.json")
	jsonBody := `{"name":"p","delimiter":"/","fields":["mod","inst"]}`
	if err := os.WriteFile(jsonPath, []byte(jsonBody), 0644); err != nil {
		t.Fatal(err)
	}
	jsonSchema, err := LoadSchema(jsonPath)
	if err != nil {
		t.Fatalf("unexpected error loading json schema (yaml.v3 parses JSON too): %v", err)
	}
	if jsonSchema.Name != "p" || len(jsonSchema.Fields) != 2 {
		t.Errorf("got %+v", jsonSchema)
	}
}

func TestLoadSchemaRejectsEmptyFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	if err := os.WriteFile(path, []byte("name: path\ndelimiter: \"/\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSchema(path); err == nil {
		t.Fatal("expected an error for a schema with no fields")
	}
}

func TestSchemaFromFlagsNoFlagsReturnsNotOk(t *testing.T) {
	_, ok, err := SchemaFromFlags("", "")
	if ok || err != nil {
		t.Errorf("expected ok=false, err=nil, got ok=%v err=%v", ok, err)
	}
}

func TestSchemaFromFlagsRequiresFieldsWithDelimiter(t *testing.T) {
	_, ok, err := SchemaFromFlags("/", "")
	if ok || err == nil {
		t.Errorf("expected an error when delimiter is given without fields, got ok=%v err=%v", ok, err)
	}
}

func TestSchemaFromFlagsBuildsInlineSchema(t *testing.T) {
	s, ok, err := SchemaFromFlags("/", "mod, inst, pin")
	if err != nil || !ok {
		t.Fatalf("unexpected error/ok: %v %v", err, ok)
	}
	want := []string{"mod", "inst", "pin"}
	if len(s.Fields) != len(want) {
		t.Fatalf("got %v, want %v", s.Fields, want)
	}
	for i := range want {
		if s.Fields[i] != want[i] {
			t.Errorf("got %v, want %v", s.Fields, want)
		}
	}

	s2, ok2, err2 := SchemaFromFlags("", "mod,inst")
	if err2 != nil || !ok2 {
		t.Fatalf("unexpected error/ok: %v %v", err2, ok2)
	}
	if s2.Delimiter != "/" {
		t.Errorf("expected default delimiter '/', got %q", s2.Delimiter)
	}
}

func TestRowsFromSchemaBuildsMapPerItem(t *testing.T) {
	schema := Schema{Delimiter: "/", Fields: []string{"mod", "inst"}}
	rows := RowsFromSchema([]string{"a/b", "c"}, schema)

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["mod"] != "a" || rows[0]["inst"] != "b" {
		t.Errorf("row 0: got %+v", rows[0])
	}
	if rows[1]["mod"] != "c" || rows[1]["inst"] != "" {
		t.Errorf("row 1: got %+v", rows[1])
	}
}

func TestWriteTextDoesNotAddNewlineForFileOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := WriteText("no newline", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "no newline" {
		t.Errorf("expected file contents written verbatim, got %q", got)
	}
}

func TestWriteJSONWritesIndentedSortedKeysToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	if err := WriteJSON(map[string]any{"b": 1, "a": 2}, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(got)
	if !strings.HasSuffix(text, "\n") {
		t.Errorf("expected a trailing newline, got %q", text)
	}
	if strings.Index(text, `"a"`) > strings.Index(text, `"b"`) {
		t.Errorf("expected sorted keys (a before b), got %q", text)
	}
}

func TestLoadJSONUnmarshalsIntoTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.json")
	if err := os.WriteFile(path, []byte(`{"x":1}`), 0644); err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := LoadJSON(path, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["x"] != float64(1) {
		t.Errorf("got %+v", out)
	}
}
