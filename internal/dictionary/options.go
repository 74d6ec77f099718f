package dictionary

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rocknews/rocktag/internal/normalize"
)

// CollisionPolicy decides which record survives when two records normalize
// to the same key.
type CollisionPolicy string

const (
	// LastWriteWins keeps the record loaded last.
	LastWriteWins CollisionPolicy = "last"
	// FirstWriteWins keeps the record loaded first.
	FirstWriteWins CollisionPolicy = "first"
)

// ParseCollisionPolicy converts a config value to a CollisionPolicy.
// The empty string selects LastWriteWins.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", LastWriteWins:
		return LastWriteWins, nil
	case FirstWriteWins:
		return FirstWriteWins, nil
	default:
		return "", fmt.Errorf("unknown collision policy %q: must be %q or %q", s, LastWriteWins, FirstWriteWins)
	}
}

// DefaultArticle is the removable leading article.
const DefaultArticle = "the"

// DefaultExclusions are canonical artist names dropped before key
// derivation: common words that cause false matches, or names already
// represented in compound form.
var DefaultExclusions = []string{"The Band", "Sweet", "!!!"}

// DefaultAliasExceptions are two-word keys admitted as prefix-recovery
// aliases although their remainder is a single word.
var DefaultAliasExceptions = []string{"the beatles"}

// DefaultAliasDenylist are keys never admitted as aliases.
var DefaultAliasDenylist = []string{"the new year"}

// DefaultKeySubstitutions replace whole artist keys that would otherwise
// match a common word.
var DefaultKeySubstitutions = map[string]string{"yes": "yesband"}

// Options configures Build.
type Options struct {
	Normalizer       *normalize.Normalizer
	Exclusions       []string
	Article          string
	AliasExceptions  []string
	AliasDenylist    []string
	KeySubstitutions map[string]string
	Collisions       CollisionPolicy
	Logger           *slog.Logger
}

// DefaultOptions returns the stock gazetteer options.
func DefaultOptions(n *normalize.Normalizer) Options {
	return Options{
		Normalizer:       n,
		Exclusions:       DefaultExclusions,
		Article:          DefaultArticle,
		AliasExceptions:  DefaultAliasExceptions,
		AliasDenylist:    DefaultAliasDenylist,
		KeySubstitutions: DefaultKeySubstitutions,
		Collisions:       LastWriteWins,
	}
}

// resolved holds Options with every list turned into a normalized set.
type resolved struct {
	normalizer *normalize.Normalizer
	exclusions map[string]struct{}
	article    string
	exceptions map[string]struct{}
	denylist   map[string]struct{}
	keySubs    map[string]string
	collisions CollisionPolicy
	logger     *slog.Logger
}

func (o Options) resolve() resolved {
	r := resolved{
		normalizer: o.Normalizer,
		exclusions: make(map[string]struct{}, len(o.Exclusions)),
		article:    normalize.Fold(o.Article),
		exceptions: make(map[string]struct{}, len(o.AliasExceptions)),
		denylist:   make(map[string]struct{}, len(o.AliasDenylist)),
		keySubs:    make(map[string]string, len(o.KeySubstitutions)),
		collisions: o.Collisions,
		logger:     o.Logger,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.collisions == "" {
		r.collisions = LastWriteWins
	}
	// Exclusions compare against canonical names as written in the table.
	for _, name := range o.Exclusions {
		r.exclusions[strings.TrimSpace(name)] = struct{}{}
	}
	for _, k := range o.AliasExceptions {
		r.exceptions[r.key(k)] = struct{}{}
	}
	for _, k := range o.AliasDenylist {
		r.denylist[r.key(k)] = struct{}{}
	}
	for k, v := range o.KeySubstitutions {
		r.keySubs[r.key(k)] = r.key(v)
	}
	return r
}

func (r resolved) key(name string) string {
	return r.normalizer.Key(name)
}
