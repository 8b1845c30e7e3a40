package summary

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dakshscra/scra/internal/adapters/outbound/filelock"
	"github.com/dakshscra/scra/internal/domain"
)

// JSONFile is the summary record's location inside a report directory.
const JSONFile = "json/scan_summary.json"

// Store is a file-based implementation of domain.SummaryStore.
type Store struct{}

func New() *Store {
	return &Store{}
}

// Save writes the summary record atomically, creating directories as needed.
func (s *Store) Save(outDir string, sum *domain.RunSummary) error {
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	return filelock.AtomicWrite(filepath.Join(outDir, JSONFile), append(data, '\n'))
}

// Load reads the summary record of the last run. Returns (nil, nil) if none exists.
func (s *Store) Load(outDir string) (*domain.RunSummary, error) {
	path := filepath.Join(outDir, JSONFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sum domain.RunSummary
	if err := json.Unmarshal(data, &sum); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &sum, nil
}
