package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/tartampluch/go-saturdays/internal/config"
	"github.com/tartampluch/go-saturdays/internal/engine"
)

const (
	tmpSuffix    = ".tmp"
	backupSuffix = ".backup"
)

// FileStore keeps the backend collection in memory and persists it as one JSON file.
type FileStore struct {
	path  string
	clock engine.Clock

	mu      sync.RWMutex
	records []engine.MonthSaturdayRecord
}

// Open loads the collection from path. A missing file yields an empty collection.
func Open(path string, clock engine.Clock) (*FileStore, error) {
	if clock == nil {
		clock = engine.RealClock{}
	}
	s := &FileStore{path: path, clock: clock, records: []engine.MonthSaturdayRecord{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("%s: %w", config.ErrStoreRead, err)
	}

	var env engine.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreDecode, err)
	}
	if env.AlternateSaturdays != nil {
		s.records = env.AlternateSaturdays
	}

	slog.Info(config.MsgCollectionRead,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyFile, path,
		config.LogKeyCount, len(s.records))
	return s, nil
}

// All returns a sorted copy of the collection.
func (s *FileStore) All() []engine.MonthSaturdayRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := engine.CloneRecords(s.records)
	if out == nil {
		out = []engine.MonthSaturdayRecord{}
	}
	engine.SortRecords(out)
	return out
}

// Len returns the number of stored month records.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// ReplaceAll swaps the whole collection for records and persists it.
// Months that already existed keep their identifier and creation time.
// The in-memory collection is only updated once the file is written.
func (s *FileStore) ReplaceAll(records []engine.MonthSaturdayRecord) ([]engine.MonthSaturdayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UTC()

	next := make([]engine.MonthSaturdayRecord, 0, len(records))
	for _, r := range engine.CloneRecords(records) {
		if i := engine.FindRecord(s.records, r.Month, r.Year); i >= 0 {
			prev := s.records[i]
			r.ID = prev.ID
			r.CreatedAt = prev.CreatedAt
		} else {
			r.ID = uuid.NewString()
			created := now
			r.CreatedAt = &created
		}
		if r.WorkingSaturdays == nil {
			r.WorkingSaturdays = []int{}
		}
		updated := now
		r.UpdatedAt = &updated
		next = append(next, r)
	}
	engine.SortRecords(next)

	if err := s.persist(next); err != nil {
		return nil, err
	}
	s.records = next

	slog.Info(config.MsgCollectionSave,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyCount, len(next))
	return engine.CloneRecords(next), nil
}

// persist writes records to a temp file, keeps the current file as backup
// and renames the temp file into place.
func (s *FileStore) persist(records []engine.MonthSaturdayRecord) error {
	data, err := json.MarshalIndent(engine.Envelope{AlternateSaturdays: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreWrite, err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, config.DirPermUserRWX); err != nil {
			return fmt.Errorf("%s: %w", config.ErrStoreWrite, err)
		}
	}

	tmpFile := s.path + tmpSuffix
	if err := os.WriteFile(tmpFile, data, config.FilePermData); err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreWrite, err)
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := copyFile(s.path, s.path+backupSuffix); err != nil {
			slog.Warn(config.MsgBackupFailed,
				config.LogKeyComponent, config.CompStore,
				config.LogKeyError, err)
		}
	}

	if err := os.Rename(tmpFile, s.path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("%s: %w", config.ErrStoreWrite, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, config.FilePermData)
}
