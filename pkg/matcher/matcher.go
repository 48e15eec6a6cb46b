// Package matcher expands deployment id expressions.
//
// An expression is a list of tokens. The tokens "", "*" and "_all" match
// every id. A token containing '*' is a wildcard where each '*' matches any
// run of characters, including none. Any other token matches one id exactly.
package matcher

import (
	"sort"
	"strings"
)

// All is the token that matches every id
const All = "_all"

// Matcher matches ids against a list of tokens
type Matcher struct {
	matchAll  bool
	exact     map[string]bool
	wildcards []string
	tokens    []string
}

// New creates a matcher for the given tokens
func New(tokens []string) *Matcher {
	m := &Matcher{exact: make(map[string]bool)}

	if len(tokens) == 0 {
		m.matchAll = true
		return m
	}

	for _, token := range tokens {
		token = strings.TrimSpace(token)
		switch {
		case token == "" || token == "*" || token == All:
			m.matchAll = true
		case strings.Contains(token, "*"):
			m.wildcards = append(m.wildcards, token)
		default:
			m.exact[token] = true
		}
		m.tokens = append(m.tokens, token)
	}
	return m
}

// Parse splits a comma separated expression and creates a matcher for it
func Parse(expression string) *Matcher {
	return New(Tokenize(expression))
}

// Tokenize splits a comma separated expression into trimmed tokens
func Tokenize(expression string) []string {
	parts := strings.Split(expression, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		tokens = append(tokens, strings.TrimSpace(part))
	}
	return tokens
}

// MatchesAll reports whether the matcher accepts every id
func (m *Matcher) MatchesAll() bool {
	return m.matchAll
}

// IDMatches reports whether id is selected by any token
func (m *Matcher) IDMatches(id string) bool {
	if m.matchAll || m.exact[id] {
		return true
	}
	for _, pattern := range m.wildcards {
		if SimpleMatch(pattern, id) {
			return true
		}
	}
	return false
}

// Unmatched returns the tokens that select none of the given ids, sorted.
// Match-all tokens are never reported.
func (m *Matcher) Unmatched(ids []string) []string {
	if m.matchAll {
		return nil
	}

	var unmatched []string
	for token := range m.exact {
		if !containsString(ids, token) {
			unmatched = append(unmatched, token)
		}
	}
	for _, pattern := range m.wildcards {
		found := false
		for _, id := range ids {
			if SimpleMatch(pattern, id) {
				found = true
				break
			}
		}
		if !found {
			unmatched = append(unmatched, pattern)
		}
	}
	sort.Strings(unmatched)
	return unmatched
}

// String returns the tokens joined by commas
func (m *Matcher) String() string {
	if len(m.tokens) == 0 {
		return All
	}
	return strings.Join(m.tokens, ",")
}

// SimpleMatch matches s against a pattern where '*' matches any run of
// characters.
func SimpleMatch(pattern, s string) bool {
	segments := strings.Split(pattern, "*")
	if len(segments) == 1 {
		return pattern == s
	}

	// Anchor the first and last segments, then find the middle ones in order
	first, last := segments[0], segments[len(segments)-1]
	if !strings.HasPrefix(s, first) {
		return false
	}
	s = s[len(first):]
	if !strings.HasSuffix(s, last) {
		return false
	}
	s = s[:len(s)-len(last)]

	for _, segment := range segments[1 : len(segments)-1] {
		idx := strings.Index(s, segment)
		if idx < 0 {
			return false
		}
		s = s[idx+len(segment):]
	}
	return true
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
