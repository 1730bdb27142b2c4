// Package cli renders search results for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/shirabe/internal/models"
)

// OutputFormat selects how results are rendered.
type OutputFormat int

const (
	// OutputText is the human-readable default.
	OutputText OutputFormat = iota
	// OutputCompact prints one result per line.
	OutputCompact
	// OutputJSON prints the full response as indented JSON.
	OutputJSON
)

// ParseFormat maps a format name to an OutputFormat.
func ParseFormat(name string) (OutputFormat, error) {
	switch name {
	case "text":
		return OutputText, nil
	case "compact":
		return OutputCompact, nil
	case "json":
		return OutputJSON, nil
	default:
		return OutputText, fmt.Errorf("unknown output format %q; use text, compact, or json", name)
	}
}

// WriteSearchResults renders resp to w in the given format.
func WriteSearchResults(w io.Writer, resp *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case OutputCompact:
		return writeCompact(w, resp)
	default:
		return writeText(w, resp)
	}
}

func writeCompact(w io.Writer, resp *models.SearchResponse) error {
	if resp.Mode == models.ModeBoolean {
		for _, doc := range resp.Documents {
			if _, err := fmt.Fprintln(w, doc); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range resp.Results {
		if _, err := fmt.Fprintf(w, "%.6f\t%s\n", r.Score, r.Document); err != nil {
			return err
		}
	}
	return nil
}

func writeText(w io.Writer, resp *models.SearchResponse) error {
	if _, err := fmt.Fprintf(w, "Query: %s (%s)\n", resp.Query, resp.Mode); err != nil {
		return err
	}
	if resp.Total == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	if resp.Mode == models.ModeBoolean {
		for i, doc := range resp.Documents {
			if _, err := fmt.Fprintf(w, "%3d. %s\n", i+1, doc); err != nil {
				return err
			}
		}
	} else {
		for i, r := range resp.Results {
			if _, err := fmt.Fprintf(w, "%3d. %s (score %.4f)\n", i+1, r.Document, r.Score); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d result(s) in %dms\n", resp.Total, resp.QueryTime)
	return err
}
