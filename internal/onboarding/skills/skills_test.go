package skills

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddIsIdempotent(t *testing.T) {
	s := NewSet()
	assert.True(t, s.Add("Go"))
	assert.False(t, s.Add("Go"))

	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Has("Go"))

	assert.True(t, s.Remove("Go"))
	assert.Equal(t, 0, s.Len())
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	s := NewSet()
	s.Add("Go")

	assert.False(t, s.Remove("Rust"))
	assert.Equal(t, []string{"Go"}, s.Names())
}

func TestNamesAreTrimmedAndEmptyIgnored(t *testing.T) {
	s := NewSet()
	assert.True(t, s.Add("  Go "))
	assert.False(t, s.Add("Go"))
	assert.False(t, s.Add("   "))

	assert.Equal(t, []string{"Go"}, s.Names())
	assert.True(t, s.Remove(" Go"))
}

func TestAddList(t *testing.T) {
	s := NewSet()
	s.Add("Go")

	added := s.AddList("Go, Rust, , SQL, Rust")

	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"Go", "Rust", "SQL"}, s.Names())
}

func TestTagColoursComeFromPaletteAndDoNotAffectIdentity(t *testing.T) {
	s := NewSet()
	s.AddList("Go,Rust,SQL")

	for i := 0; i < 20; i++ {
		tags := s.Tags()
		require.Len(t, tags, 3)
		for _, tag := range tags {
			assert.Contains(t, Palette, tag.Color)
		}
	}
	assert.Equal(t, 3, s.Len())
}

func TestJSONRoundTrip(t *testing.T) {
	s := NewSet()
	s.AddList("Rust,Go")

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["Go","Rust"]`, string(data))

	restored := NewSet()
	require.NoError(t, json.Unmarshal(data, restored))
	assert.Equal(t, s.Names(), restored.Names())
}
