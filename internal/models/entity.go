package models

// EntityKind classifies a gazetteer entry.
type EntityKind string

const (
	EntityKindArtist EntityKind = "artist"
	EntityKindMember EntityKind = "member"
)

// ValidEntityKinds is the set of all valid entity kinds.
var ValidEntityKinds = []EntityKind{
	EntityKindArtist,
	EntityKindMember,
}

// IsValid returns true if the entity kind is recognized.
func (k EntityKind) IsValid() bool {
	for i := range ValidEntityKinds {
		if k == ValidEntityKinds[i] {
			return true
		}
	}
	return false
}

// ArtistRow is one raw row of the artist master table.
type ArtistRow struct {
	Name string `json:"name" validate:"required"`
}

// MemberRow is one raw row of the artist members table.
// Description is the member as written in prose (usually the full name);
// Member is an optional display name and defaults to Description.
type MemberRow struct {
	Description string `json:"description" validate:"required"`
	Member      string `json:"member,omitempty"`
	Artist      string `json:"artist" validate:"required"`
}

// ArtistRecord is a gazetteer artist with its lookup key.
type ArtistRecord struct {
	CanonicalName string `json:"canonical_name"`
	NormalizedKey string `json:"normalized_key"`
}

// MemberRecord is a gazetteer member keyed by its normalized description.
type MemberRecord struct {
	DescriptionKey string `json:"description_key"`
	CanonicalName  string `json:"canonical_name"`
	OwnerArtist    string `json:"owner_artist"`
}

// EntityMatch describes a single gazetteer hit, used by lookups.
type EntityMatch struct {
	Kind          EntityKind `json:"kind"`
	Key           string     `json:"key"`
	CanonicalName string     `json:"canonical_name"`
	OwnerArtist   string     `json:"owner_artist,omitempty"`
}
