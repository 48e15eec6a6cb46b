package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleMatch(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"elser", "elser", true},
		{"elser", "elser2", false},
		{"elser*", "elser", true},
		{"elser*", "elser_model_2", true},
		{"*model", "my-model", true},
		{"*model", "model-x", false},
		{"e*r", "elser", true},
		{"e*r", "er", true},
		{"e*r", "e", false},
		{"a*b*c", "axxbyyc", true},
		{"a*b*c", "axxcyyb", false},
		{"ab*ba", "aba", false},
		{"*", "", true},
		{"**", "anything", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SimpleMatch(tt.pattern, tt.input))
		})
	}
}

func TestMatcherIDMatches(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		matches    []string
		rejects    []string
		matchAll   bool
	}{
		{
			name:       "empty expression",
			expression: "",
			matches:    []string{"a", "b"},
			matchAll:   true,
		},
		{
			name:       "star",
			expression: "*",
			matches:    []string{"a"},
			matchAll:   true,
		},
		{
			name:       "all keyword",
			expression: "_all",
			matches:    []string{"a"},
			matchAll:   true,
		},
		{
			name:       "exact and wildcard",
			expression: "elser, e5-*",
			matches:    []string{"elser", "e5-small", "e5-"},
			rejects:    []string{"elser-2", "e5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Parse(tt.expression)
			assert.Equal(t, tt.matchAll, m.MatchesAll())
			for _, id := range tt.matches {
				assert.True(t, m.IDMatches(id), id)
			}
			for _, id := range tt.rejects {
				assert.False(t, m.IDMatches(id), id)
			}
		})
	}
}

func TestMatcherUnmatched(t *testing.T) {
	m := Parse("elser,missing,e5-*,bge-*")

	assert.Equal(t, []string{"bge-*", "missing"}, m.Unmatched([]string{"elser", "e5-small"}))
	assert.Nil(t, Parse("_all").Unmatched(nil))
}

func TestMatcherString(t *testing.T) {
	assert.Equal(t, "a,b*", Parse("a, b*").String())
	assert.Equal(t, All, New(nil).String())
}
