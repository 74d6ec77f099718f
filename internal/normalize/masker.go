package normalize

// DefaultPlaceholder replaces confirmed entity names in masked text.
const DefaultPlaceholder = "bandname"

// Masker hides confirmed entity names behind a placeholder so that generic
// text passes (topic modeling, publication-type rules) do not learn from them.
type Masker struct {
	r           *replacer
	placeholder string
	size        int
}

// NewMasker builds a Masker from a feedback set. Names are folded before
// use; an empty placeholder falls back to DefaultPlaceholder.
func NewMasker(names []string, placeholder string) *Masker {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	subs := make(map[string]string, len(names))
	for _, name := range names {
		if key := Fold(name); key != "" {
			subs[key] = placeholder
		}
	}
	return &Masker{
		r:           newReplacer(subs),
		placeholder: placeholder,
		size:        len(subs),
	}
}

// Size returns the number of distinct folded names the masker replaces.
func (m *Masker) Size() int { return m.size }

// Mask folds raw and replaces every whole-word entity name with the
// placeholder.
func (m *Masker) Mask(raw string) string {
	s := Fold(raw)
	if m == nil || m.r == nil {
		return s
	}
	return collapse(m.r.replace(s))
}
