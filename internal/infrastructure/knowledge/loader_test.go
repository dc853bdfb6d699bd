package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alchemorsel/kitchen/internal/domain/assistant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleKnowledge = `
issues:
  gravy lumpy:
    - Whisk hard off the heat.
    - Strain through a fine sieve.
  lumpy:
    - This key is listed second.
techniques:
  zest: Zesting is grating the colored outer peel of citrus.
  chiffonade: Chiffonade is slicing leafy herbs into thin ribbons.
substitutions:
  shallot: Use a small onion plus a pinch of garlic.
`

func TestParse_PreservesOrder(t *testing.T) {
	kb, err := Parse([]byte(sampleKnowledge))
	require.NoError(t, err)

	issues := kb.Issues()
	require.Len(t, issues, 2)
	assert.Equal(t, "gravy lumpy", issues[0].Key)
	assert.Equal(t, []string{"Whisk hard off the heat.", "Strain through a fine sieve."}, issues[0].Sentences)

	techniques := kb.Techniques()
	require.Len(t, techniques, 2)
	assert.Equal(t, "zest", techniques[0].Key)
	assert.Equal(t, "chiffonade", techniques[1].Key)

	// first key in file order wins even though both are contained
	r := assistant.NewResolver(kb)
	assert.Equal(t, "Whisk hard off the heat. Strain through a fine sieve.", r.Resolve("my gravy lumpy again"))
	assert.Equal(t, "Use a small onion plus a pinch of garlic.", r.Resolve("substitute shallot?"))
}

func TestParse_EmptyDocument(t *testing.T) {
	kb, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, assistant.FallbackResponse, assistant.NewResolver(kb).Resolve("anything"))
}

func TestParse_EmptySection(t *testing.T) {
	kb, err := Parse([]byte("issues:\ntechniques:\n  sear: Brown it hard.\n"))
	require.NoError(t, err)
	assert.Len(t, kb.Issues(), 0)
	assert.Len(t, kb.Techniques(), 1)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"NotAMapping", "- a\n- b\n"},
		{"UnknownSection", "recipes:\n  a: b\n"},
		{"SectionNotMapping", "issues:\n  - a\n"},
		{"NestedValue", "techniques:\n  sear:\n    deep: value\n"},
		{"NestedSentence", "issues:\n  x:\n    - [a, b]\n"},
		{"DuplicateKey", "techniques:\n  sear: a\n  SEAR: b\n"},
		{"Malformed", "issues: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleKnowledge), 0o600))

	kb, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, kb.Substitutions(), 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
