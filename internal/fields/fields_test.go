package fields

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestBuildTrimsAndSkipsEmpty(t *testing.T) {
	m, err := Build([]string{" Name ", "", "   ", "Price"}, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []string{"Name", "Price"}
	if !reflect.DeepEqual(m.Names(), want) {
		t.Fatalf("Names() = %v, want %v", m.Names(), want)
	}
	if i, ok := m.Index("Price"); !ok || i != 3 {
		t.Fatalf("Index(Price) = %d, %v; want 3, true", i, ok)
	}
	if _, ok := m.Index(""); ok {
		t.Fatal("empty header must not be mapped")
	}
}

func TestBuildNormalizer(t *testing.T) {
	m, err := Build([]string{"First Name", "Last Name"}, Options{
		Normalizer: func(s string) string {
			return strings.ToLower(strings.ReplaceAll(s, " ", "_"))
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []string{"first_name", "last_name"}
	if !reflect.DeepEqual(m.Names(), want) {
		t.Fatalf("Names() = %v, want %v", m.Names(), want)
	}
}

func TestBuildNormalizerEmptyOutput(t *testing.T) {
	_, err := Build([]string{"ok", "bad"}, Options{
		Normalizer: func(s string) string {
			if s == "bad" {
				return "  "
			}
			return s
		},
	})
	var nerr *NormalizerError
	if !errors.As(err, &nerr) {
		t.Fatalf("Build err = %v, want NormalizerError", err)
	}
	if nerr.Column != 1 {
		t.Fatalf("Column = %d, want 1", nerr.Column)
	}
}

func TestBuildAliasesCaseInsensitive(t *testing.T) {
	m, err := Build([]string{"PROD_NAME", "prod_price"}, Options{
		Aliases: map[string]string{"prod_name": "name", "Prod_Price": "price"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []string{"name", "price"}
	if !reflect.DeepEqual(m.Names(), want) {
		t.Fatalf("Names() = %v, want %v", m.Names(), want)
	}
}

func TestBuildAliasAfterNormalizer(t *testing.T) {
	// The alias table sees the normalized name, not the raw header.
	m, err := Build([]string{"Product Name"}, Options{
		Normalizer: func(s string) string { return strings.ReplaceAll(s, " ", "_") },
		Aliases:    map[string]string{"product_name": "name"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Names()[0] != "name" {
		t.Fatalf("Names()[0] = %q, want %q", m.Names()[0], "name")
	}
}

func TestBuildIncludeFilters(t *testing.T) {
	m, err := Build([]string{"name", "price", "qty"}, Options{
		Include: []string{"name", "qty"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []string{"name", "qty"}
	if !reflect.DeepEqual(m.Names(), want) {
		t.Fatalf("Names() = %v, want %v", m.Names(), want)
	}
	if _, ok := m.Index("price"); ok {
		t.Fatal("price must be filtered out")
	}
}

func TestBuildIncludeMissingReportsAll(t *testing.T) {
	_, err := Build([]string{"name"}, Options{
		Include: []string{"name", "sku", "price"},
	})
	var merr *MissingFieldsError
	if !errors.As(err, &merr) {
		t.Fatalf("Build err = %v, want MissingFieldsError", err)
	}
	want := []string{"sku", "price"}
	if !reflect.DeepEqual(merr.Names, want) {
		t.Fatalf("missing = %v, want %v", merr.Names, want)
	}
}

func TestBuildDuplicate(t *testing.T) {
	_, err := Build([]string{"Name", " Price ", "Name"}, Options{})
	var derr *DuplicateFieldError
	if !errors.As(err, &derr) {
		t.Fatalf("Build err = %v, want DuplicateFieldError", err)
	}
	if derr.Name != "Name" {
		t.Fatalf("Name = %q, want %q", derr.Name, "Name")
	}
}

func TestBuildDuplicateViaAlias(t *testing.T) {
	_, err := Build([]string{"id", "ident"}, Options{
		Aliases: map[string]string{"ident": "id"},
	})
	var derr *DuplicateFieldError
	if !errors.As(err, &derr) {
		t.Fatalf("Build err = %v, want DuplicateFieldError", err)
	}
}

func TestBuildEmptyHeader(t *testing.T) {
	m, err := Build(nil, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", m.Len())
	}
}
