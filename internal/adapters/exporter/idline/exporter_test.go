package idline

import (
	"testing"

	"locline/internal/domain"
)

func TestExportOrderAndNewlines(t *testing.T) {
	data, err := New().Export([]domain.Line{
		{Index: 0, Text: "0:::h"},
		{Index: 1, Text: "1:::Bonjour"},
		{Index: 2, Text: "bare"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "0:::h\n1:::Bonjour\nbare\n" {
		t.Fatalf("unexpected output: %q", data)
	}
}

func TestExportEmpty(t *testing.T) {
	data, err := New().Export(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty output, got %q", data)
	}
}
