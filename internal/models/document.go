package models

import "sort"

// NewsRow is one raw row of the news corpus.
type NewsRow struct {
	Website     string `json:"website,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Text joins headline and description the way documents are matched.
func (r NewsRow) Text() string {
	switch {
	case r.Title == "":
		return r.Description
	case r.Description == "":
		return r.Title
	default:
		return r.Title + " " + r.Description
	}
}

// KeywordRow maps an alias found in raw text to its replacement value.
type KeywordRow struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// Document is a normalized corpus entry. ID is the corpus position.
type Document struct {
	ID             int    `json:"id"`
	NormalizedText string `json:"normalized_text"`
}

// TagSet holds every tag source resolved for one document.
// All fields are sorted, duplicate-free and never nil.
type TagSet struct {
	DirectArtistTags    []string `json:"direct_artist_tags"`
	RecoveredArtistTags []string `json:"recovered_artist_tags"`
	MemberTags          []string `json:"member_tags"`
	DerivedOwnerTags    []string `json:"derived_owner_tags"`
	CombinedTags        []string `json:"combined_tags"`
}

// IsEmpty reports whether no source produced a tag.
func (t TagSet) IsEmpty() bool {
	return len(t.CombinedTags) == 0 && len(t.MemberTags) == 0
}

// DocumentTags is the per-document record handed to downstream consumers.
type DocumentTags struct {
	DocumentID   int      `json:"document_id"`
	CombinedTags []string `json:"combined_tags"`
	MemberTags   []string `json:"member_tags"`
}

// SortedSet returns the distinct non-empty values of the given slices in
// ascending order. The result is never nil.
func SortedSet(values ...[]string) []string {
	n := 0
	for _, v := range values {
		n += len(v)
	}
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for _, v := range values {
		for _, s := range v {
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// ForDocument projects the tag set onto the downstream record for id.
func (t TagSet) ForDocument(id int) DocumentTags {
	return DocumentTags{
		DocumentID:   id,
		CombinedTags: t.CombinedTags,
		MemberTags:   t.MemberTags,
	}
}
