package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/dukerupert/usps/internal/address"
	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"
)

// Format is an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat converts s to a Format.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(s))
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return format, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of: table, json, yaml", s)
	}
}

// Result is one line of command output.
type Result struct {
	Index   int              `json:"index" yaml:"index"`
	Address *address.Address `json:"address,omitempty" yaml:"address,omitempty"`
	Verdict *address.Verdict `json:"verdict,omitempty" yaml:"verdict,omitempty"`
	Error   string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// Formatter writes results.
type Formatter interface {
	Format(w io.Writer, results []Result) error
}

// NewFormatter returns the formatter for format. Unknown formats print a table.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return jsonFormatter{}
	case FormatYAML:
		return yamlFormatter{}
	default:
		return tableFormatter{}
	}
}

type jsonFormatter struct{}

func (jsonFormatter) Format(w io.Writer, results []Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

type yamlFormatter struct{}

func (yamlFormatter) Format(w io.Writer, results []Result) error {
	b, err := yaml.MarshalWithOptions(results, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

type tableFormatter struct{}

func (tableFormatter) Format(w io.Writer, results []Result) error {
	table := tablewriter.NewTable(w)
	table.Header("#", "Address", "ZIP", "Valid", "Message")

	for _, r := range results {
		row := []any{strconv.Itoa(r.Index + 1), "", "", "", ""}
		if r.Address != nil {
			row[1] = strings.ReplaceAll(r.Address.String(), "\n", ", ")
			row[2] = r.Address.Zip()
		}
		switch {
		case r.Error != "":
			row[3] = "error"
			row[4] = r.Error
		case r.Verdict != nil:
			row[3] = validity(*r.Verdict)
			row[4] = r.Verdict.Message
		}
		if err := table.Append(row...); err != nil {
			return err
		}
	}

	return table.Render()
}

func validity(v address.Verdict) string {
	switch {
	case !v.Known():
		return "unknown"
	case v.IsValid():
		return "yes"
	default:
		return "no"
	}
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
