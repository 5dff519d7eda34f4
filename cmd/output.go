package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func more(items []string, extra int) string {
	text := strings.Join(items, ", ")
	if extra > 0 {
		text += fmt.Sprintf(" +%d", extra)
	}
	return text
}
