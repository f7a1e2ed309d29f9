package safeguard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultMap(id string, hint Hint) State {
	return State{
		ID:       id,
		Label:    hint.Text,
		HintType: hint.HintType,
		Status:   StatusAccepted,
	}
}

func TestNormalize_FreshBatch(t *testing.T) {
	raw := []Hint{
		{HintType: "tone", Text: "keep it professional"},
		{HintType: "scope", Text: "staging only"},
	}

	out := Normalize(raw, nil, defaultMap)

	require.Len(t, out, 2)
	assert.Equal(t, "keep it professional", out[0].Label)
	assert.Equal(t, "tone", out[0].HintType)
	assert.Equal(t, StatusAccepted, out[0].Status)
	assert.Equal(t, "staging only", out[1].Label)
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := []Hint{
		{HintType: "tone", Text: "keep it professional"},
		{HintType: "tone", Text: "keep it professional"}, // in-batch duplicate
		{HintType: "scope", Text: "staging only"},
	}

	first := Normalize(raw, nil, defaultMap)
	second := Normalize(raw, first, defaultMap)

	assert.Equal(t, first, second)
}

func TestNormalize_PreservesUserEdits(t *testing.T) {
	raw := []Hint{{HintType: "tone", Text: "keep it professional"}}

	first := Normalize(raw, nil, defaultMap)
	require.Len(t, first, 1)

	// User edits the entry.
	rationale := "softened wording"
	updated := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	edited := first[0]
	edited.Label = "keep it friendly but professional"
	edited.Status = StatusEdited
	edited.Pinned = true
	edited.Rationale = &rationale
	edited.LastUpdatedAt = &updated

	out := Normalize(raw, []State{edited}, defaultMap)

	require.Len(t, out, 1)
	assert.Equal(t, edited, out[0], "edited entry must come back unmodified")
}

func TestNormalize_DropsVanishedHints(t *testing.T) {
	raw := []Hint{
		{HintType: "tone", Text: "keep it professional"},
		{HintType: "scope", Text: "staging only"},
	}
	existing := Normalize(raw, nil, defaultMap)

	// The scope hint disappears from the next generation.
	out := Normalize(raw[:1], existing, defaultMap)

	require.Len(t, out, 1)
	assert.Equal(t, existing[0], out[0])
}

func TestNormalize_OrderFollowsBatch(t *testing.T) {
	raw := []Hint{
		{HintType: "a", Text: "1"},
		{HintType: "b", Text: "2"},
	}
	existing := Normalize(raw, nil, defaultMap)

	reversed := []Hint{raw[1], raw[0]}
	out := Normalize(reversed, existing, defaultMap)

	require.Len(t, out, 2)
	assert.Equal(t, existing[1], out[0])
	assert.Equal(t, existing[0], out[1])
}

func TestNormalize_DuplicatesGetDistinctStableIDs(t *testing.T) {
	raw := []Hint{
		{HintType: "tone", Text: "same"},
		{HintType: "tone", Text: "same"},
	}

	out := Normalize(raw, nil, defaultMap)

	require.Len(t, out, 2)
	assert.NotEqual(t, out[0].ID, out[1].ID)

	again := Normalize(raw, out, defaultMap)
	assert.Equal(t, out, again)
}

func TestNormalize_MissingHintTypeUsesFallback(t *testing.T) {
	out := Normalize([]Hint{{Text: "untyped"}}, nil, defaultMap)

	require.Len(t, out, 1)
	assert.Contains(t, out[0].ID, FallbackHintType+"-")
	assert.Equal(t, FallbackHintType, out[0].HintType)
}

func TestNormalize_UntypedAndExplicitFallbackShareSequence(t *testing.T) {
	// An untyped hint and an explicitly "general" hint with the same text
	// must count as occurrences of one identity, not collide on id.
	raw := []Hint{
		{HintType: "", Text: "same"},
		{HintType: FallbackHintType, Text: "same"},
	}

	out := Normalize(raw, nil, defaultMap)

	require.Len(t, out, 2)
	assert.NotEqual(t, out[0].ID, out[1].ID)
	assert.Contains(t, out[0].ID, FallbackHintType+"-")
	assert.Contains(t, out[1].ID, FallbackHintType+"-")

	again := Normalize(raw, out, defaultMap)
	assert.Equal(t, out, again)
}
