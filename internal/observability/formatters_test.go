package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/jonathan/getlisticled/internal/discovery"
	"github.com/stretchr/testify/assert"
)

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResults("kitchen gadgets", []discovery.ListicleResult{
		{
			ID:     "1",
			Title:  "The 25 Best Kitchen Gadgets of 2025",
			URL:    "https://www.goodhousekeeping.com/best-kitchen-gadgets",
			Domain: "goodhousekeeping.com",
		},
	})
	output := buf.String()

	assert.Contains(t, output, "LISTICLES")
	assert.Contains(t, output, "kitchen gadgets")
	assert.Contains(t, output, "Found: 1")
	assert.Contains(t, output, "#1  The 25 Best Kitchen Gadgets of 2025")
	assert.Contains(t, output, "goodhousekeeping.com")
}

func TestPrintResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResults("obscure niche", nil)

	assert.Contains(t, buf.String(), `No listicles found for "obscure niche"`)
}

func TestPrintResults_Truncates(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var results []discovery.ListicleResult
	for i := 0; i < maxItemsToShow+3; i++ {
		results = append(results, discovery.ListicleResult{
			Title:  fmt.Sprintf("List number %d", i),
			URL:    fmt.Sprintf("https://example.com/list-%d", i),
			Domain: "example.com",
		})
	}

	p.PrintResults("lists", results)
	output := buf.String()

	assert.Contains(t, output, "... and 3 more listicles")
	assert.NotContains(t, output, fmt.Sprintf("List number %d", maxItemsToShow))
}

func TestPrintVariants(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintVariants("espresso machines", []string{"espresso machines", "best espresso machines 2025"})
	output := buf.String()

	assert.Contains(t, output, "QUERY VARIANTS")
	assert.Contains(t, output, " 1. espresso machines")
	assert.Contains(t, output, " 2. best espresso machines 2025")
}

func TestPrintEstimate(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintEstimate("hiking boots", 14)

	assert.Contains(t, buf.String(), "ESTIMATE")
	assert.Contains(t, buf.String(), "~14")
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TEST", strings.Repeat("é", boxWidth*2))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}
