package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/kuberos/kuberos-cli/internal/prompt"
)

// Format is an output format selected with -o.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func parseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (use table, json or yaml)", s)
}

func (a *app) format() Format {
	f, err := parseFormat(a.output)
	if err != nil {
		return FormatTable
	}
	return f
}

// table collects rows for a borderless tablewriter table.
type table struct {
	headers []string
	rows    [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers, rows: make([][]string, 0)}
}

func (t *table) addRow(row ...string) {
	t.rows = append(t.rows, row)
}

// render writes the table to w.
func (t *table) render(w io.Writer) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(t.headers)

	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetCenterSeparator("")
	tw.SetColumnSeparator("")
	tw.SetRowSeparator("")
	tw.SetHeaderLine(false)
	tw.SetBorder(false)
	tw.SetTablePadding("  ")
	tw.SetNoWhiteSpace(true)

	tw.AppendBulk(t.rows)
	tw.Render()
}

// printJSON writes the value as pretty-printed JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printYAML writes the value as YAML.
func printYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// render prints v as JSON or YAML, or calls human for table output.
func (a *app) render(v interface{}, human func(w io.Writer)) error {
	switch a.format() {
	case FormatJSON:
		return printJSON(a.stdout, v)
	case FormatYAML:
		return printYAML(a.stdout, v)
	default:
		human(a.stdout)
		return nil
	}
}

// success prints a green confirmation line.
func (a *app) success(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(a.stdout, format+"\n", args...)
}

// warn prints a yellow notice line on stderr.
func (a *app) warn(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(a.stderr, format+"\n", args...)
}

// section prints a bold heading followed by a rule.
func section(w io.Writer, title string, width int) {
	color.New(color.Bold).Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", width))
}

// field prints an aligned "Key: value" line.
func field(w io.Writer, key string, value interface{}) {
	fmt.Fprintf(w, "%-16s%v\n", key+":", value)
}

// phase colors a status or phase word.
func phase(s string) string {
	switch strings.ToLower(s) {
	case "running", "ready", "success", "succeeded", "finished", "active", "true":
		return color.GreenString(s)
	case "pending", "deploying", "deleting", "starting", "waiting", "scheduled":
		return color.YellowString(s)
	case "failed", "error", "crashloopbackoff", "unreachable", "false":
		return color.RedString(s)
	}
	return s
}

func yesNo(b bool) string {
	return strconv.FormatBool(b)
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

// done prints the server's message, or fallback when the server sent none.
func (a *app) done(msg, fallback string, args ...interface{}) {
	if msg != "" {
		a.success("%s", msg)
		return
	}
	a.success(fallback, args...)
}

// confirm asks before a destructive call unless force is set. It prints
// "Cancelled." and returns false when the user declines.
func (a *app) confirm(label string, force bool) (bool, error) {
	ok, err := prompt.ConfirmWithForce(a.prompter, label, force)
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Fprintln(a.stdout, "Cancelled.")
	}
	return ok, nil
}
