// Package transfer exports the local collections to a single document and
// imports such a document back. Import replaces the local collections only;
// it never writes to the backend.
package transfer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/julianstephens/habitflow/internal/errors"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/state"
	"github.com/julianstephens/habitflow/internal/validation"
)

// Format is a document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml; empty means json
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format %q (expected json or yaml)", s)
}

// Ext returns the file extension for f, including the dot
func (f Format) Ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// Document is a full export of the three collections
type Document struct {
	Habits       []models.Habit      `json:"habits" yaml:"habits"`
	Tasks        []models.Task       `json:"tasks" yaml:"tasks"`
	HabitEntries []models.HabitEntry `json:"habitEntries" yaml:"habitEntries"`
	ExportDate   time.Time           `json:"exportDate" yaml:"exportDate"`
}

// wireDocument detects absent collections, which a plain slice cannot
type wireDocument struct {
	Habits       *[]models.Habit      `json:"habits" yaml:"habits"`
	Tasks        *[]models.Task       `json:"tasks" yaml:"tasks"`
	HabitEntries *[]models.HabitEntry `json:"habitEntries" yaml:"habitEntries"`
	ExportDate   *time.Time           `json:"exportDate" yaml:"exportDate"`
}

// Export captures the collections of a snapshot. Loading and error status is
// not part of the document.
func Export(s state.State, now time.Time) Document {
	doc := Document{
		Habits:       append([]models.Habit{}, s.Habits...),
		Tasks:        make([]models.Task, len(s.Tasks)),
		HabitEntries: append([]models.HabitEntry{}, s.Entries...),
		ExportDate:   now.UTC(),
	}
	for i, t := range s.Tasks {
		t.Subtasks = append([]models.Subtask{}, t.Subtasks...)
		doc.Tasks[i] = t
	}
	return doc
}

// Encode writes doc to w
func Encode(w io.Writer, doc Document, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
}

func malformed(format string, args ...interface{}) error {
	return apperrors.Newf(apperrors.KindMalformedImport, "import", format, args...)
}

// Decode reads a document. Syntax errors, unknown fields and missing
// collections are reported as KindMalformedImport.
func Decode(r io.Reader, format Format) (Document, error) {
	var wire wireDocument
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&wire); err != nil {
			return Document{}, malformed("invalid yaml: %v", err)
		}
	default:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&wire); err != nil {
			return Document{}, malformed("invalid json: %v", err)
		}
	}

	var missing []string
	if wire.Habits == nil {
		missing = append(missing, "habits")
	}
	if wire.Tasks == nil {
		missing = append(missing, "tasks")
	}
	if wire.HabitEntries == nil {
		missing = append(missing, "habitEntries")
	}
	if len(missing) > 0 {
		return Document{}, malformed("document is missing %s", strings.Join(missing, ", "))
	}

	doc := Document{Habits: *wire.Habits, Tasks: *wire.Tasks, HabitEntries: *wire.HabitEntries}
	if wire.ExportDate != nil {
		doc.ExportDate = *wire.ExportDate
	}
	return doc, nil
}

// Validate checks every record and the cross-record invariants
func Validate(doc Document) error {
	result := validation.ValidateCollections(doc.Habits, doc.Tasks, doc.HabitEntries)
	if result.HasConflicts() {
		return malformed("%s", strings.TrimSpace(result.FormatReport()))
	}
	return nil
}

// Import validates doc and replaces all three collections in one dispatch.
// Nothing is applied when the document has any defect.
func Import(store *state.Container, doc Document) error {
	if err := Validate(doc); err != nil {
		logger.Warn("Import rejected", "error", err)
		return err
	}
	store.Dispatch(state.ReplaceAll{Habits: doc.Habits, Tasks: doc.Tasks, Entries: doc.HabitEntries})
	logger.Info("Import applied", "habits", len(doc.Habits), "tasks", len(doc.Tasks), "entries", len(doc.HabitEntries))
	return nil
}
