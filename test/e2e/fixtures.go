// Package e2e provides end-to-end tests; this file builds files for supported types.
package e2e

import (
	"bytes"

	"github.com/xuri/excelize/v2"
)

// FileExtensions is the list of extensions the corpus files cycle through.
// Plain text variants plus a real spreadsheet. The remaining extractor types
// (.pdf, .docx, .odt, .rtf) are covered by the extractor's own tests; their
// formats cannot be produced here without a full writer for each.
var FileExtensions = []string{".txt", ".md", ".rst", ".xlsx"}

// FileBytes returns the on-disk representation of text for the given
// extension: the raw text for plain types, a single-cell spreadsheet for .xlsx.
func FileBytes(ext, text string) ([]byte, error) {
	if ext == ".xlsx" {
		return xlsxBytes(text)
	}
	return []byte(text), nil
}

func xlsxBytes(text string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetCellValue("Sheet1", "A1", text); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
