package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/framefill/internal/canvas"
)

// DocumentExt is the file extension used for saved documents.
const DocumentExt = ".framefill.json"

// DocumentFile is the on-disk structure of a saved document.
type DocumentFile struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Document  canvas.Snapshot `json:"document"`
}

// SaveDocument writes doc to path as JSON.
func SaveDocument(path string, doc *canvas.Document) error {
	file := DocumentFile{
		Version:   "1.0.0",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Document:  doc.Snapshot(),
	}
	if err := writeJSON(path, file); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// LoadDocument reads a document saved by SaveDocument. Options are passed to
// the rebuilt canvas.
func LoadDocument(path string, opts ...canvas.Option) (*canvas.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	var file DocumentFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if file.Version == "" {
		return nil, fmt.Errorf("invalid document file: missing version field")
	}
	doc, err := canvas.FromSnapshot(file.Document, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid document file: %w", err)
	}
	return doc, nil
}
