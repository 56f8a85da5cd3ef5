package admincli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

func (cli *CLI) printJSON(v any) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table prints rows under header, tab aligned.
func (cli *CLI) table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

// emit prints v as JSON with --json, otherwise the table built by rows.
func (cli *CLI) emit(v any, header []string, rows func() [][]string) error {
	if cli.jsonOutput {
		return cli.printJSON(v)
	}
	return cli.table(header, rows())
}

func (cli *CLI) printf(format string, args ...any) {
	fmt.Fprintf(cli.out, format, args...)
}

func vnd(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%d", v)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String() + "d"
	}
	return b.String() + "d"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func pageFooter(page, totalPages int, total int64) string {
	return fmt.Sprintf("page %d/%d (%d total)\n", page, totalPages, total)
}
