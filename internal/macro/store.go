package macro

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tinytask/internal/event"
)

// FormatVersion is the current macro file format version. Older files
// remain loadable; files from a newer version are rejected.
const FormatVersion = 1

// document is the on-disk form of a Macro.
type document struct {
	FormatVersion int           `json:"format_version"`
	ID            string        `json:"id,omitempty"`
	Name          string        `json:"name"`
	CreatedAt     time.Time     `json:"created_at"`
	EventCount    int           `json:"event_count"`
	DurationMs    int64         `json:"duration_ms"`
	Events        []event.Event `json:"events"`
}

// Save serializes a macro to path as a JSON document. The file is
// written atomically using a temporary file and rename.
func Save(m *Macro, path string) error {
	doc := document{
		FormatVersion: FormatVersion,
		ID:            m.id,
		Name:          m.name,
		CreatedAt:     m.createdAt,
		EventCount:    m.Len(),
		DurationMs:    m.Duration().Milliseconds(),
		Events:        m.Events(),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal macro: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create macro directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write macro file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename macro file: %w", err)
	}
	return nil
}

// Load parses a macro document back into a sealed Macro. Malformed files
// are rejected wholesale with ErrMalformedMacro: unknown event kinds,
// buttons and key names all fail, and nothing in the file is ever
// evaluated as code. Unknown JSON object fields are ignored so files
// written by a newer minor revision remain loadable.
func Load(path string) (*Macro, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read macro file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMacro, err)
	}

	if doc.FormatVersion < 1 || doc.FormatVersion > FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d (max %d)",
			ErrMalformedMacro, doc.FormatVersion, FormatVersion)
	}
	if doc.EventCount != 0 && doc.EventCount != len(doc.Events) {
		return nil, fmt.Errorf("%w: event_count %d does not match %d events",
			ErrMalformedMacro, doc.EventCount, len(doc.Events))
	}

	m, err := New(doc.Name, doc.CreatedAt, doc.Events)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMacro, err)
	}
	if doc.ID != "" {
		m.id = doc.ID
	}
	return m, nil
}
