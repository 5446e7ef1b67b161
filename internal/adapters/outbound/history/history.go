package history

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/phpsniff/phpsniff/internal/domain"
)

const historyFile = ".phpsniff/history/runs.json"

// DefaultMaxEntries bounds how many runs are kept per project.
const DefaultMaxEntries = 200

// FileHistory implements domain.RunHistory using JSON file storage. Only the
// newest maxEntries runs are kept; older ones are dropped on save.
type FileHistory struct {
	maxEntries int
}

func New() *FileHistory {
	return NewWithLimit(DefaultMaxEntries)
}

// NewWithLimit keeps at most limit runs. Zero or negative keeps every run.
func NewWithLimit(limit int) *FileHistory {
	return &FileHistory{maxEntries: limit}
}

func (h *FileHistory) Save(projectPath string, entry domain.RunEntry) error {
	entries, err := h.Load(projectPath)
	if err != nil {
		return err
	}

	entries = append(entries, entry)
	if h.maxEntries > 0 && len(entries) > h.maxEntries {
		entries = entries[len(entries)-h.maxEntries:]
	}

	fp := filepath.Join(projectPath, historyFile)
	if err := os.MkdirAll(filepath.Dir(fp), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(fp, data, 0644)
}

func (h *FileHistory) Load(projectPath string) ([]domain.RunEntry, error) {
	fp := filepath.Join(projectPath, historyFile)

	data, err := os.ReadFile(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []domain.RunEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}
