package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func titles(rs []Record) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Title)
	}
	return out
}

func TestSearch_EmptyQueryIsIdentity(t *testing.T) {
	rs := []Record{{Title: "A"}, {Title: "B"}}
	for _, q := range []string{"", "   ", "\t\n"} {
		got := Search(rs, q)
		assert.Equal(t, rs, got, "query %q", q)
	}
	assert.Nil(t, Search(nil, ""))
}

func TestSearch_TokensAndFields(t *testing.T) {
	rs := []Record{
		{Title: "Chicken Soup"},
		{Title: "Beef Stew", Meal: "soup night"},
	}

	assert.Equal(t, []string{"Chicken Soup", "Beef Stew"}, titles(Search(rs, "soup")))
	assert.Equal(t, []string{"Chicken Soup"}, titles(Search(rs, "chicken soup")))
}

func TestSearch_TokensMayMatchDifferentFields(t *testing.T) {
	rs := []Record{
		{Title: "Pad Thai", Core: "Noodles", Source: "Ottolenghi"},
		{Title: "Ramen", Core: "Noodles", Source: "Momofuku"},
		{Title: "Green curry", Meal: "Dinner", Notes: "noodles on the side"},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"case insensitive", "NOODLES", []string{"Pad Thai", "Ramen"}},
		{"across fields", "noodles otto", []string{"Pad Thai"}},
		{"substring", "men", []string{"Ramen"}},
		{"notes not searched", "side", []string{}},
		{"one token misses", "ramen dinner", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(Search(rs, tt.query)))
		})
	}
}
