package approval

import (
	"encoding/json"
	"fmt"
)

// Defect describes one piece of a metadata blob that failed validation and
// was dropped during decoding. Decoding itself never fails the read path;
// defects make the degradation observable for diagnostics.
type Defect struct {
	Field  string
	Reason string
}

func (d Defect) String() string {
	return fmt.Sprintf("%s: %s", d.Field, d.Reason)
}

// rawMetadata defers sub-field decoding so one malformed item cannot fail
// the whole blob.
type rawMetadata struct {
	Summary  json.RawMessage   `json:"summary"`
	History  []json.RawMessage `json:"history"`
	Comments []json.RawMessage `json:"comments"`
}

// DecodeMetadata parses a metadata column into its structured form. A
// missing or malformed blob degrades to empty defaults; each sub-field is
// checked independently and malformed items are dropped and reported as
// defects rather than failing the read.
func DecodeMetadata(data []byte) (Metadata, []Defect) {
	meta := EmptyMetadata()
	if len(data) == 0 {
		return meta, nil
	}

	var raw rawMetadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return meta, []Defect{{Field: "metadata", Reason: err.Error()}}
	}

	var defects []Defect

	if len(raw.Summary) > 0 && string(raw.Summary) != "null" {
		var summary Summary
		if err := json.Unmarshal(raw.Summary, &summary); err != nil {
			defects = append(defects, Defect{Field: "summary", Reason: err.Error()})
		} else {
			meta.Summary = summary
		}
	}

	for i, item := range raw.History {
		var entry HistoryEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			defects = append(defects, Defect{Field: fmt.Sprintf("history[%d]", i), Reason: err.Error()})
			continue
		}
		if entry.Action == "" || !entry.Action.Valid() {
			defects = append(defects, Defect{Field: fmt.Sprintf("history[%d]", i), Reason: fmt.Sprintf("unknown action %q", entry.Action)})
			continue
		}
		if entry.Timestamp.IsZero() {
			defects = append(defects, Defect{Field: fmt.Sprintf("history[%d]", i), Reason: "missing timestamp"})
			continue
		}
		meta.History = append(meta.History, entry)
	}

	for i, item := range raw.Comments {
		var comment Comment
		if err := json.Unmarshal(item, &comment); err != nil {
			defects = append(defects, Defect{Field: fmt.Sprintf("comments[%d]", i), Reason: err.Error()})
			continue
		}
		if comment.Content == "" {
			defects = append(defects, Defect{Field: fmt.Sprintf("comments[%d]", i), Reason: "missing content"})
			continue
		}
		if comment.Timestamp.IsZero() {
			defects = append(defects, Defect{Field: fmt.Sprintf("comments[%d]", i), Reason: "missing timestamp"})
			continue
		}
		meta.Comments = append(meta.Comments, comment)
	}

	return meta, defects
}

// EncodeMetadata serializes metadata for the store's JSON column.
func EncodeMetadata(meta Metadata) ([]byte, error) {
	if meta.History == nil {
		meta.History = []HistoryEntry{}
	}
	if meta.Comments == nil {
		meta.Comments = []Comment{}
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal approval metadata: %w", err)
	}
	return data, nil
}
