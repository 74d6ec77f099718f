// Package dictionary builds the immutable gazetteer lookups used by the
// resolver: artist keys to canonical names, prefix-recovery aliases, and
// member descriptions to member records.
package dictionary

import (
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rocknews/rocktag/internal/metrics"
	"github.com/rocknews/rocktag/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Dictionary is the read-only gazetteer. Build it once and share it; no
// method mutates it.
type Dictionary struct {
	article    string
	artists    map[string]string
	aliases    map[string]struct{}
	members    map[string]models.MemberRecord
	artistKeys []string
	aliasKeys  []string
	memberKeys []string
}

// Report summarizes a Build.
type Report struct {
	Artists          int `json:"artists"`
	Aliases          int `json:"aliases"`
	Members          int `json:"members"`
	Excluded         int `json:"excluded"`
	SkippedArtists   int `json:"skipped_artists"`
	SkippedMembers   int `json:"skipped_members"`
	ArtistCollisions int `json:"artist_collisions"`
	MemberCollisions int `json:"member_collisions"`
}

// Skipped returns the total number of malformed rows.
func (r Report) Skipped() int {
	return r.SkippedArtists + r.SkippedMembers
}

// Stats holds dictionary sizes.
type Stats struct {
	Artists int    `json:"artists"`
	Aliases int    `json:"aliases"`
	Members int    `json:"members"`
	Article string `json:"article"`
}

// Build turns the raw artist and member tables into a Dictionary.
//
// An empty table, or a table in which no row carries the required fields,
// is a *ConfigurationError. Individual malformed rows are skipped and
// counted in the Report.
func Build(artists []models.ArtistRow, members []models.MemberRow, opts Options) (*Dictionary, Report, error) {
	var report Report
	if len(artists) == 0 {
		return nil, report, &ConfigurationError{Table: TableArtists, Reason: "table is empty"}
	}
	if len(members) == 0 {
		return nil, report, &ConfigurationError{Table: TableMembers, Reason: "table is empty"}
	}

	r := opts.resolve()
	d := &Dictionary{
		article: r.article,
		artists: make(map[string]string, len(artists)),
		aliases: make(map[string]struct{}),
		members: make(map[string]models.MemberRecord, len(members)),
	}

	if err := d.loadArtists(artists, r, &report); err != nil {
		return nil, report, err
	}
	if err := d.loadMembers(members, r, &report); err != nil {
		return nil, report, err
	}
	d.buildAliases(r)

	d.artistKeys = sortedKeys(d.artists)
	d.aliasKeys = sortedKeys(d.aliases)
	d.memberKeys = sortedKeys(d.members)

	report.Artists = len(d.artistKeys)
	report.Aliases = len(d.aliasKeys)
	report.Members = len(d.memberKeys)

	metrics.MalformedRows.Add(int64(report.Skipped()))
	metrics.Inc(metrics.DictionaryBuilds)

	r.logger.Info("built dictionary",
		"artists", report.Artists,
		"aliases", report.Aliases,
		"members", report.Members,
		"excluded", report.Excluded,
		"skipped", report.Skipped(),
		"collisions", report.ArtistCollisions+report.MemberCollisions,
		"collision_policy", r.collisions,
	)
	return d, report, nil
}

func (d *Dictionary) loadArtists(rows []models.ArtistRow, r resolved, report *Report) error {
	valid := 0
	for i := range rows {
		row := models.ArtistRow{Name: strings.TrimSpace(rows[i].Name)}
		if err := validate.Struct(row); err != nil {
			report.SkippedArtists++
			r.logger.Debug("skipping artist row", "row", i, "error", ErrMalformedRecord, "cause", err)
			continue
		}
		valid++

		if _, ok := r.exclusions[row.Name]; ok {
			report.Excluded++
			continue
		}

		key := r.key(row.Name)
		if sub, ok := r.keySubs[key]; ok {
			key = sub
		}
		if key == "" {
			report.SkippedArtists++
			r.logger.Debug("skipping artist row", "row", i, "name", row.Name, "error", ErrMalformedRecord, "cause", "empty key")
			continue
		}

		if prev, ok := d.artists[key]; ok && prev != row.Name {
			report.ArtistCollisions++
			r.logger.Debug("artist key collision", "key", key, "kept", d.keep(prev, row.Name, r.collisions), "policy", r.collisions)
			if r.collisions == FirstWriteWins {
				continue
			}
		}
		d.artists[key] = row.Name
	}
	if valid == 0 {
		return &ConfigurationError{Table: TableArtists, Reason: "no row carries the required name field"}
	}
	return nil
}

func (d *Dictionary) loadMembers(rows []models.MemberRow, r resolved, report *Report) error {
	valid := 0
	for i := range rows {
		row := models.MemberRow{
			Description: strings.TrimSpace(rows[i].Description),
			Member:      strings.TrimSpace(rows[i].Member),
			Artist:      strings.TrimSpace(rows[i].Artist),
		}
		if err := validate.Struct(row); err != nil {
			report.SkippedMembers++
			r.logger.Debug("skipping member row", "row", i, "error", ErrMalformedRecord, "cause", err)
			continue
		}
		valid++

		key := r.key(row.Description)
		if key == "" {
			report.SkippedMembers++
			r.logger.Debug("skipping member row", "row", i, "description", row.Description, "error", ErrMalformedRecord, "cause", "empty key")
			continue
		}

		canonical := row.Member
		if canonical == "" {
			canonical = row.Description
		}
		rec := models.MemberRecord{
			DescriptionKey: key,
			CanonicalName:  canonical,
			OwnerArtist:    row.Artist,
		}

		if prev, ok := d.members[key]; ok && prev != rec {
			report.MemberCollisions++
			r.logger.Debug("member key collision", "key", key, "policy", r.collisions,
				"first_owner", prev.OwnerArtist, "second_owner", rec.OwnerArtist)
			if r.collisions == FirstWriteWins {
				continue
			}
		}
		d.members[key] = rec
	}
	if valid == 0 {
		return &ConfigurationError{Table: TableMembers, Reason: "no row carries the required description and artist fields"}
	}
	return nil
}

// buildAliases admits "<article> x y..." keys whose remainder has at least
// two words, plus the configured exceptions, minus the denylist. The stored
// alias is the remainder.
func (d *Dictionary) buildAliases(r resolved) {
	if r.article == "" {
		return
	}
	prefix := r.article + " "
	for key := range d.artists {
		rest, hasPrefix := strings.CutPrefix(key, prefix)
		if _, ok := r.exceptions[key]; ok && hasPrefix {
			d.aliases[rest] = struct{}{}
			continue
		}
		if !hasPrefix {
			continue
		}
		if _, denied := r.denylist[key]; denied {
			continue
		}
		if len(strings.Fields(rest)) >= 2 {
			d.aliases[rest] = struct{}{}
		}
	}
}

func (d *Dictionary) keep(prev, next string, policy CollisionPolicy) string {
	if policy == FirstWriteWins {
		return prev
	}
	return next
}

// Article returns the normalized leading article used for aliases.
func (d *Dictionary) Article() string { return d.article }

// Artist returns the canonical name for an artist key.
func (d *Dictionary) Artist(key string) (string, bool) {
	name, ok := d.artists[key]
	return name, ok
}

// Member returns the member record for a description key.
func (d *Dictionary) Member(key string) (models.MemberRecord, bool) {
	rec, ok := d.members[key]
	return rec, ok
}

// HasAlias reports whether alias is in the prefix-recovery set.
func (d *Dictionary) HasAlias(alias string) bool {
	_, ok := d.aliases[alias]
	return ok
}

// ArtistKeys returns all artist keys in ascending order.
func (d *Dictionary) ArtistKeys() []string { return slices.Clone(d.artistKeys) }

// AliasKeys returns all prefix-recovery aliases in ascending order.
func (d *Dictionary) AliasKeys() []string { return slices.Clone(d.aliasKeys) }

// MemberKeys returns all member description keys in ascending order.
func (d *Dictionary) MemberKeys() []string { return slices.Clone(d.memberKeys) }

// Artists returns every artist record ordered by key.
func (d *Dictionary) Artists() []models.ArtistRecord {
	out := make([]models.ArtistRecord, 0, len(d.artistKeys))
	for _, k := range d.artistKeys {
		out = append(out, models.ArtistRecord{CanonicalName: d.artists[k], NormalizedKey: k})
	}
	return out
}

// Members returns every member record ordered by key.
func (d *Dictionary) Members() []models.MemberRecord {
	out := make([]models.MemberRecord, 0, len(d.memberKeys))
	for _, k := range d.memberKeys {
		out = append(out, d.members[k])
	}
	return out
}

// Lookup returns the gazetteer entries stored under a normalized key:
// an artist, an artist reached through its alias, and/or a member.
func (d *Dictionary) Lookup(key string) []models.EntityMatch {
	var out []models.EntityMatch
	if name, ok := d.artists[key]; ok {
		out = append(out, models.EntityMatch{Kind: models.EntityKindArtist, Key: key, CanonicalName: name})
	}
	if d.HasAlias(key) {
		full := d.article + " " + key
		if name, ok := d.artists[full]; ok {
			out = append(out, models.EntityMatch{Kind: models.EntityKindArtist, Key: full, CanonicalName: name})
		}
	}
	if rec, ok := d.members[key]; ok {
		out = append(out, models.EntityMatch{
			Kind:          models.EntityKindMember,
			Key:           key,
			CanonicalName: rec.CanonicalName,
			OwnerArtist:   rec.OwnerArtist,
		})
	}
	return out
}

// Stats returns dictionary sizes.
func (d *Dictionary) Stats() Stats {
	return Stats{
		Artists: len(d.artistKeys),
		Aliases: len(d.aliasKeys),
		Members: len(d.memberKeys),
		Article: d.article,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
