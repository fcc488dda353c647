// Package observability provides logger setup and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/getlisticled/internal/discovery"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, shorten(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// shorten cuts s to n runes, marking the cut with "...".
func shorten(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// PrintResults outputs the merged listicles for query.
func (p *Printer) PrintResults(query string, results []discovery.ListicleResult) {
	if len(results) == 0 {
		p.printBox("LISTICLES", fmt.Sprintf("No listicles found for %q", query))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Query: %s\n", query))
	sb.WriteString(fmt.Sprintf("Found: %d\n\n", len(results)))

	count := min(len(results), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := results[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, r.Title))
		sb.WriteString(fmt.Sprintf("    %s\n", r.Domain))
		sb.WriteString(fmt.Sprintf("    %s\n", r.URL))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(results) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more listicles", len(results)-maxItemsToShow))
	}

	p.printBox("LISTICLES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintVariants outputs the expanded query variants in search order.
func (p *Printer) PrintVariants(query string, variants []string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Query: %s\n\n", query))
	for i, v := range variants {
		sb.WriteString(fmt.Sprintf("%2d. %s\n", i+1, v))
	}
	p.printBox("QUERY VARIANTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintEstimate outputs the teaser count for query.
func (p *Printer) PrintEstimate(query string, estimate int) {
	p.printBox("ESTIMATE", fmt.Sprintf("Query:     %s\nListicles: ~%d", query, estimate))
}
