package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtract_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("cat dog cat"), 0600); err != nil {
		t.Fatal(err)
	}
	text, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if text != "cat dog cat" {
		t.Errorf("got %q", text)
	}
}

func TestExtract_UnknownExtensionTreatedAsPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.log")
	if err := os.WriteFile(path, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}
	text, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello" {
		t.Errorf("got %q", text)
	}
}

func TestExtractBytes_InvalidUTF8Replaced(t *testing.T) {
	text, err := NewExtractor().ExtractBytes([]byte{'o', 'k', 0xff, 0xfe}, ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "ok") {
		t.Errorf("got %q", text)
	}
	if strings.Contains(text, "\xff") {
		t.Error("invalid bytes should be replaced")
	}
}

func TestExtract_MissingFile(t *testing.T) {
	if _, err := NewExtractor().Extract(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExtractBytes_CorruptPDF(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("not a pdf"), ".pdf"); err == nil {
		t.Error("expected error for corrupt PDF")
	}
}
