package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manifest manages operation records on the filesystem, one JSON file per
// run.
type Manifest struct {
	dir string
	mu  sync.Mutex
}

// New creates a Manifest rooted at dir. The directory is not created until
// the first record is written.
func New(dir string) (*Manifest, error) {
	if dir == "" {
		return nil, errors.New("manifest directory cannot be empty")
	}
	return &Manifest{dir: dir}, nil
}

// Log creates and persists a record for a completed run.
func (m *Manifest) Log(op OperationType, dryRun bool, summary Summary) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	record := &Record{
		ID:        fmt.Sprintf("%s-%s-%s", now.Format("20060102-150405"), op, uuid.NewString()[:8]),
		Timestamp: now,
		Operation: op,
		DryRun:    dryRun,
		Summary:   summary,
	}

	if err := m.writeRecord(record); err != nil {
		return nil, fmt.Errorf("failed to write manifest record: %w", err)
	}

	return record, nil
}

// writeRecord writes a record to a JSON file in the manifest directory.
func (m *Manifest) writeRecord(record *Record) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	filePath := filepath.Join(m.dir, record.ID+".json")

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	// Write atomically using a temp file and rename
	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// List returns records sorted by timestamp descending (newest first).
// If limit is 0 or negative, all records are returned.
func (m *Manifest) List(limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	files, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("failed to read manifest directory: %w", err)
	}

	records := make([]Record, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(m.dir, f.Name()))
		if err != nil {
			continue
		}

		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			// Skip unreadable records rather than failing the listing.
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
