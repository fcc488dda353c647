package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand_Defaults(t *testing.T) {
	variants := Expand("kitchen gadgets", 2025, nil, 0)

	assert.Len(t, variants, DefaultMaxVariants)
	assert.Equal(t, "kitchen gadgets", variants[0])
	assert.Equal(t, "best kitchen gadgets", variants[1])
	assert.Equal(t, "top kitchen gadgets", variants[2])
	assert.Equal(t, "kitchen gadgets reviews", variants[3])
	assert.Contains(t, variants, "best kitchen gadgets 2025")
	// the original query takes a slot, so the last template is cut
	assert.NotContains(t, variants, "best kitchen gadgets 2026")
}

func TestExpand_Properties(t *testing.T) {
	queries := []string{"a", "best laptops", "top rated blenders", "running shoes for beginners", "x y z"}

	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			variants := Expand(q, 2025, nil, 0)

			assert.LessOrEqual(t, len(variants), DefaultMaxVariants)
			assert.Contains(t, variants, q)

			seen := map[string]bool{}
			for _, v := range variants {
				assert.False(t, seen[v], "duplicate variant %q", v)
				seen[v] = true
			}
		})
	}
}

func TestExpand_Dedup(t *testing.T) {
	templates := []string{"{q}", "best {q}", "best  {q}", "best {q}"}
	variants := Expand("mugs", 2025, templates, 0)

	assert.Equal(t, []string{"mugs", "best mugs"}, variants)
}

func TestExpand_Cap(t *testing.T) {
	variants := Expand("tents", 2025, nil, 3)
	assert.Equal(t, []string{"tents", "best tents", "top tents"}, variants)
}

func TestExpand_YearPlaceholders(t *testing.T) {
	variants := Expand("tents", 2030, []string{"{q} {year}", "{q} {next_year}"}, 0)
	assert.Equal(t, []string{"tents", "tents 2030", "tents 2031"}, variants)
}

func TestExpand_Deterministic(t *testing.T) {
	assert.Equal(t, Expand("desk lamps", 2025, nil, 0), Expand("desk lamps", 2025, nil, 0))
}

func TestExpand_EmptyTemplates(t *testing.T) {
	assert.Equal(t, []string{"tents"}, Expand("tents", 2025, []string{}, 0))
}
