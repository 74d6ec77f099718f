package normalize_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rocknews/rocktag/internal/normalize"
)

func TestFold(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Metallica", "metallica"},
		{"  The   Beatles  ", "the beatles"},
		{"AC/DC", "ac dc"},
		{"Guns N' Roses", "guns n roses"},
		{"Mötley Crüe", "motley crue"},
		{"Blue Öyster Cult", "blue oyster cult"},
		{"Sigur Rós", "sigur ros"},
		{"Mø", "mo"},
		{"Die Ärzte", "die arzte"},
		{"Motörhead!!!", "motorhead"},
		{"!!!", ""},
		{"", ""},
		{"Line-up\tchange\nannounced", "line up change announced"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalize.Fold(tt.input))
		})
	}
}

func TestKey_RawSubstitutionIsCaseSensitive(t *testing.T) {
	n := normalize.New(normalize.Options{RawSubstitutions: normalize.DefaultRawSubstitutions})

	assert.Equal(t, "himband", n.Key("HIM"))
	assert.Equal(t, "him", n.Key("him"))
	assert.Equal(t, "himband announce tour with him", n.Key("HIM announce tour with him"))
	assert.Equal(t, "himalaya", n.Key("HIMALAYA"), "substitution must respect word boundaries")
}

func TestText_AppliesKeywordsAfterKey(t *testing.T) {
	n := normalize.New(normalize.Options{
		RawSubstitutions: normalize.DefaultRawSubstitutions,
		Keywords: map[string]string{
			"RHCP":                       "Red Hot Chili Peppers",
			"rock hall":                  "rrhof",
			"rock and roll hall of fame": "rrhof",
			"yes":                        "yesband",
		},
	})

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"acronym", "RHCP announce tour", "red hot chili peppers announce tour"},
		{"longest match wins", "Inducted into the Rock and Roll Hall of Fame", "inducted into the rrhof"},
		{"short alias", "Rock Hall class of 2023", "rrhof class of 2023"},
		{"whole word only", "rhcpfan posts video", "rhcpfan posts video"},
		{"raw then keyword", "HIM and Yes share a bill", "himband and yesband share a bill"},
		{"no keywords", "nothing to see here", "nothing to see here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Text(tt.input))
		})
	}
}

func TestKey_DoesNotApplyKeywords(t *testing.T) {
	n := normalize.New(normalize.Options{Keywords: map[string]string{"yes": "yesband"}})
	assert.Equal(t, "yes", n.Key("Yes"))
	assert.Equal(t, "yesband", n.Text("Yes"))
}

func TestNilNormalizerFallsBackToFold(t *testing.T) {
	var n *normalize.Normalizer
	assert.Equal(t, "the who", n.Key("The Who"))
	assert.Equal(t, "the who", n.Text("The Who!"))
}

func TestNormalizer_ConcurrentUse(t *testing.T) {
	n := normalize.New(normalize.Options{Keywords: map[string]string{"gn r": "guns n roses"}})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "guns n roses reunion", n.Text("GN'R reunion"))
			}
		}()
	}
	wg.Wait()
}
