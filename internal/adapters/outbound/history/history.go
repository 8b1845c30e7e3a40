package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dakshscra/scra/internal/adapters/outbound/filelock"
	"github.com/dakshscra/scra/internal/domain"
)

const historyFile = "history/runs.json"

// FileHistory implements domain.RunHistory using JSON file storage inside the
// report directory.
type FileHistory struct{}

func New() *FileHistory {
	return &FileHistory{}
}

func (h *FileHistory) Save(outDir string, entry domain.HistoryEntry) error {
	entries, err := h.Load(outDir)
	if err != nil {
		return err
	}

	entries = append(entries, entry)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	return filelock.AtomicWrite(filepath.Join(outDir, historyFile), data)
}

func (h *FileHistory) Load(outDir string) ([]domain.HistoryEntry, error) {
	fp := filepath.Join(outDir, historyFile)

	data, err := os.ReadFile(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []domain.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fp, err)
	}

	return entries, nil
}
