package idline

import (
	"testing"
)

func TestParseWithHeader(t *testing.T) {
	pr, err := New().Parse([]byte("0:::meta v2\n1:::Hello\n2:::World\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !pr.HasHeader {
		t.Fatal("header not detected")
	}
	if len(pr.Lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(pr.Lines))
	}
	for i, l := range pr.Lines {
		if l.Index != i {
			t.Fatalf("line %d carries index %d", i, l.Index)
		}
	}
	if pr.Lines[0].Text != "0:::meta v2" {
		t.Fatalf("header text = %q", pr.Lines[0].Text)
	}
}

func TestParseWithoutHeader(t *testing.T) {
	pr, err := New().Parse([]byte("1:::Hello\n2:::World"))
	if err != nil {
		t.Fatal(err)
	}
	if pr.HasHeader {
		t.Fatal("header detected where none exists")
	}
	if len(pr.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(pr.Lines))
	}
}

func TestParseBareLines(t *testing.T) {
	pr, err := New().Parse([]byte("just a comment\n1:::Hello\n"))
	if err != nil {
		t.Fatal(err)
	}
	if pr.HasHeader {
		t.Fatal("bare first line is not a header")
	}
	if pr.Lines[0].Text != "just a comment" {
		t.Fatalf("bare line = %q", pr.Lines[0].Text)
	}
}

func TestParseCRLFAndWhitespace(t *testing.T) {
	pr, err := New().Parse([]byte("0:::h\r\n  1:::Hello  \r\n2:::World\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(pr.Lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(pr.Lines))
	}
	if pr.Lines[1].Text != "1:::Hello" {
		t.Fatalf("line not trimmed: %q", pr.Lines[1].Text)
	}
}

func TestParseBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("0:::h\n1:::x\n")...)
	pr, err := New().Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if !pr.HasHeader {
		t.Fatal("BOM broke header detection")
	}
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "\n", "  \n"} {
		pr, err := New().Parse([]byte(in))
		if err != nil {
			t.Fatal(err)
		}
		if len(pr.Lines) != 0 || pr.HasHeader {
			t.Fatalf("input %q: expected empty result, got %+v", in, pr)
		}
	}
}
