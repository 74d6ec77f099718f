// Package normalize implements the text normalization contract shared by
// gazetteer keys and documents: transliterate to ASCII, replace everything
// outside [A-Za-z0-9\s] with a space, collapse whitespace, lower-case, and
// substitute caller-supplied keywords.
package normalize

import (
	"sort"
	"strings"
	"unicode"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultRawSubstitutions are applied case-sensitively before lower-casing,
// where the upper-case acronym is still distinguishable from the pronoun.
var DefaultRawSubstitutions = map[string]string{
	"HIM": "himband",
}

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// letters with no canonical decomposition to ASCII.
var foldTable = map[rune]string{
	'ø': "o", 'Ø': "O",
	'ß': "ss", 'ẞ': "SS",
	'æ': "ae", 'Æ': "AE",
	'œ': "oe", 'Œ': "OE",
	'ł': "l", 'Ł': "L",
	'đ': "d", 'Đ': "D",
	'ð': "d", 'Ð': "D",
	'þ': "th", 'Þ': "Th",
	'ı': "i",
}

// Options configures a Normalizer.
type Options struct {
	// RawSubstitutions replace whole words case-sensitively after punctuation
	// stripping and before lower-casing. Applied to keys and documents.
	RawSubstitutions map[string]string
	// Keywords maps an alias to its replacement. Both sides are folded at
	// construction. Applied to documents only.
	Keywords map[string]string
}

// Normalizer is safe for concurrent use.
type Normalizer struct {
	raw      *replacer
	keywords *replacer
}

// New builds a Normalizer from opts.
func New(opts Options) *Normalizer {
	raw := make(map[string]string, len(opts.RawSubstitutions))
	for k, v := range opts.RawSubstitutions {
		k = clean(k)
		if k == "" {
			continue
		}
		raw[k] = strings.ToLower(clean(v))
	}

	keywords := make(map[string]string, len(opts.Keywords))
	for k, v := range opts.Keywords {
		k = Fold(k)
		if k == "" {
			continue
		}
		keywords[k] = Fold(v)
	}

	return &Normalizer{
		raw:      newReplacer(raw),
		keywords: newReplacer(keywords),
	}
}

// Key normalizes a gazetteer name into its lookup key.
func (n *Normalizer) Key(raw string) string {
	s := clean(raw)
	if n != nil && n.raw != nil {
		s = collapse(n.raw.replace(s))
	}
	return strings.ToLower(s)
}

// Text normalizes a document. It is Key plus keyword substitution.
func (n *Normalizer) Text(raw string) string {
	s := n.Key(raw)
	if n != nil && n.keywords != nil {
		s = collapse(n.keywords.replace(s))
	}
	return s
}

// Fold transliterates, strips punctuation and lower-cases without any
// substitution.
func (n *Normalizer) Fold(raw string) string {
	return Fold(raw)
}

// Fold is the substitution-free normalization used for entity names.
func Fold(raw string) string {
	return strings.ToLower(clean(raw))
}

// clean transliterates raw to ASCII, replaces every run of characters outside
// [A-Za-z0-9] with one space and trims the result.
func clean(raw string) string {
	if raw == "" {
		return ""
	}
	s, _, err := transform.String(stripMarks, raw)
	if err != nil {
		s = raw
	}

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	emit := func(r rune) {
		if isASCIIAlnum(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			return
		}
		pendingSpace = true
	}
	for _, r := range s {
		if rep, ok := foldTable[r]; ok {
			for _, fr := range rep {
				emit(fr)
			}
			continue
		}
		emit(r)
	}
	return b.String()
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// replacer substitutes whole-word occurrences of its patterns, preferring the
// leftmost-longest match.
type replacer struct {
	ac      ahocorasick.AhoCorasick
	targets []string
}

func newReplacer(subs map[string]string) *replacer {
	if len(subs) == 0 {
		return nil
	}
	patterns := make([]string, 0, len(subs))
	for k := range subs {
		patterns = append(patterns, k)
	}
	sort.Strings(patterns)
	targets := make([]string, len(patterns))
	for i, p := range patterns {
		targets[i] = subs[p]
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: false,
		MatchOnlyWholeWords:  true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
		DFA:                  true,
	})
	return &replacer{
		ac:      builder.Build(patterns),
		targets: targets,
	}
}

func (r *replacer) replace(s string) string {
	if r == nil || s == "" {
		return s
	}
	matches := r.ac.FindAll(s)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		if m.Start() < last {
			continue
		}
		b.WriteString(s[last:m.Start()])
		b.WriteString(r.targets[m.Pattern()])
		last = m.End()
	}
	b.WriteString(s[last:])
	return b.String()
}
