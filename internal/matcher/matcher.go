// Package matcher reports which gazetteer terms occur in a normalized text as
// whole words or whole phrases.
//
// A term is present iff " "+term+" " is a substring of " "+text+" ". Both
// sides must already be normalized (single spaces, no punctuation), which
// makes the space the only token boundary.
package matcher

import "strings"

// Matches reports whether term occurs in text as a whole word or phrase.
func Matches(term, text string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(pad(text), pad(term))
}

// MatchAny returns the subset of terms found in text, in input order.
func MatchAny(terms []string, text string) []string {
	return New(terms).MatchAny(text)
}

// Matcher holds a fixed term list with its padded forms computed once.
// It is immutable and safe for concurrent use.
type Matcher struct {
	terms  []string
	padded []string
}

// New builds a Matcher over terms. Empty terms are dropped; the slice is
// copied so later changes by the caller have no effect.
func New(terms []string) *Matcher {
	m := &Matcher{
		terms:  make([]string, 0, len(terms)),
		padded: make([]string, 0, len(terms)),
	}
	for _, t := range terms {
		if t == "" {
			continue
		}
		m.terms = append(m.terms, t)
		m.padded = append(m.padded, pad(t))
	}
	return m
}

// Len returns the number of terms.
func (m *Matcher) Len() int { return len(m.terms) }

// MatchAny returns the terms found in text, in the order the Matcher was
// built with. The result is never nil.
func (m *Matcher) MatchAny(text string) []string {
	out := []string{}
	if m == nil || text == "" {
		return out
	}
	padded := pad(text)
	for i, p := range m.padded {
		if len(p) > len(padded) {
			continue
		}
		if strings.Contains(padded, p) {
			out = append(out, m.terms[i])
		}
	}
	return out
}

func pad(s string) string {
	return " " + s + " "
}
