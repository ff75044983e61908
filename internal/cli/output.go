package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputTable, OutputJSON, OutputYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

type OutputOptions struct {
	Format OutputFormat
	Quiet  bool
	Writer io.Writer
	Err    io.Writer
}

func NewOutputOptions() *OutputOptions {
	return &OutputOptions{
		Format: OutputTable,
		Writer: os.Stdout,
		Err:    os.Stderr,
	}
}

// Structured reports whether results should be machine readable.
func (o *OutputOptions) Structured() bool {
	return o.Format == OutputJSON || o.Format == OutputYAML
}

func formatJSON(data any) (string, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal JSON: %w", err)
	}
	return string(b) + "\n", nil
}

func formatYAML(data any) (string, error) {
	b, err := yaml.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal YAML: %w", err)
	}
	return string(b), nil
}

// PrintData writes data as JSON or YAML. For table output, render is called
// instead.
func PrintData(opts *OutputOptions, data any, render func(w io.Writer) error) error {
	if opts.Quiet {
		return nil
	}

	var (
		out string
		err error
	)
	switch opts.Format {
	case OutputJSON:
		out, err = formatJSON(data)
	case OutputYAML:
		out, err = formatYAML(data)
	default:
		return render(opts.Writer)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(opts.Writer, out)
	return err
}

// Table is a small wrapper around tabwriter with a header row.
type Table struct {
	w       *tabwriter.Writer
	columns int
}

func NewTable(w io.Writer, headers ...string) *Table {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return &Table{w: tw, columns: len(headers)}
}

func (t *Table) Row(values ...string) {
	for len(values) < t.columns {
		values = append(values, "")
	}
	fmt.Fprintln(t.w, strings.Join(values, "\t"))
}

func (t *Table) Flush() error {
	return t.w.Flush()
}

// PrintError reports err on the error writer in the selected format.
func PrintError(opts *OutputOptions, err error) {
	if opts.Structured() {
		data := map[string]any{
			"success": false,
			"error":   map[string]string{"message": err.Error()},
		}
		if out, ferr := formatStructured(opts.Format, data); ferr == nil {
			fmt.Fprint(opts.Err, out)
			return
		}
	}
	errorColor.Fprintf(opts.Err, "✗ %s\n", err.Error())
}

// PrintSuccess reports a completed action.
func PrintSuccess(opts *OutputOptions, format string, args ...any) {
	if opts.Quiet {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if opts.Structured() {
		data := map[string]any{"success": true, "message": msg}
		if out, err := formatStructured(opts.Format, data); err == nil {
			fmt.Fprint(opts.Writer, out)
			return
		}
	}
	successColor.Fprintf(opts.Writer, "✓ %s\n", msg)
}

// PrintInfo writes a hint line. It is suppressed for structured output.
func PrintInfo(opts *OutputOptions, format string, args ...any) {
	if opts.Quiet || opts.Structured() {
		return
	}
	infoColor.Fprintf(opts.Writer, "ℹ %s\n", fmt.Sprintf(format, args...))
}

func formatStructured(f OutputFormat, data any) (string, error) {
	if f == OutputYAML {
		return formatYAML(data)
	}
	return formatJSON(data)
}
