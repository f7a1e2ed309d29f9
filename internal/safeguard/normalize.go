package safeguard

// MapFunc synthesizes the normalized state for a hint that has no existing
// entry. Callers decide the initial label, status, and confidence.
type MapFunc func(id string, hint Hint) State

// Normalize merges a fresh batch of raw hints with the previously normalized
// state. For each raw hint, in order: compute its id; when an entry with that
// id already exists, return it unmodified so user edits to label, status,
// pinned, and rationale survive regeneration; otherwise synthesize a new
// entry via mapFn. Entries whose id no longer appears in the batch are
// dropped.
//
// Re-running Normalize over its own output with the same raw hints is
// idempotent.
func Normalize(raw []Hint, existing []State, mapFn MapFunc) []State {
	byID := make(map[string]State, len(existing))
	for _, st := range existing {
		byID[st.ID] = st
	}

	// occurrence index per (type, text) pair within this batch
	seen := make(map[string]int, len(raw))

	out := make([]State, 0, len(raw))
	for _, hint := range raw {
		// Resolve the fallback type up front so an untyped hint and an
		// explicitly "general" hint with the same text share one
		// occurrence sequence instead of colliding on id.
		if hint.HintType == "" {
			hint.HintType = FallbackHintType
		}

		k := hint.HintType + "\x00" + hint.Text
		occurrence := seen[k]
		seen[k] = occurrence + 1

		id := BuildID(hint, occurrence)
		if prev, ok := byID[id]; ok {
			out = append(out, prev)
			continue
		}
		out = append(out, mapFn(id, hint))
	}
	return out
}
