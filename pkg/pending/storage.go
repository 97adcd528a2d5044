package pending

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const (
	DefaultStorageFileName = ".virtual-swap-pending.json"
)

// Storage persists pending swap records to a JSON file
type Storage struct {
	filePath string
	mu       sync.RWMutex
	records  map[string]*Record
}

// fileFormat is the JSON structure on disk
type fileFormat struct {
	Swaps map[string]*Record `json:"swaps"`
}

// NewStorage opens the store, defaulting to a file in the home directory
func NewStorage(filePath string) (*Storage, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}

	storage := &Storage{
		filePath: filePath,
		records:  make(map[string]*Record),
	}

	if err := storage.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load pending swaps: %w", err)
	}

	return storage, nil
}

func (s *Storage) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to unmarshal pending swaps: %w", err)
	}

	s.records = f.Swaps
	if s.records == nil {
		s.records = make(map[string]*Record)
	}
	return nil
}

// saveLocked writes the store atomically; the caller holds mu
func (s *Storage) saveLocked() error {
	data, err := json.MarshalIndent(fileFormat{Swaps: s.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pending swaps: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write pending swaps: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Create adds a new record
func (s *Storage) Create(r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[r.ItemID]; exists {
		return fmt.Errorf("pending swap '%s' already exists", r.ItemID)
	}
	s.records[r.ItemID] = r
	return s.saveLocked()
}

// Get returns a copy of the record
func (s *Storage) Get(itemID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.records[itemID]
	if !exists {
		return nil, fmt.Errorf("pending swap '%s' not found", itemID)
	}
	return r.clone(), nil
}

// Update applies fn to the stored record and persists the result
func (s *Storage) Update(itemID string, fn func(r *Record) error) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.records[itemID]
	if !exists {
		return nil, fmt.Errorf("pending swap '%s' not found", itemID)
	}

	updated := r.clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	s.records[itemID] = updated

	if err := s.saveLocked(); err != nil {
		s.records[itemID] = r
		return nil, err
	}
	return updated.clone(), nil
}

// Delete removes a record
func (s *Storage) Delete(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[itemID]; !exists {
		return fmt.Errorf("pending swap '%s' not found", itemID)
	}
	delete(s.records, itemID)
	return s.saveLocked()
}

// List returns copies of every record ordered by ready time
func (s *Storage) List() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReadyAt.Equal(out[j].ReadyAt) {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].ReadyAt.Before(out[j].ReadyAt)
	})
	return out
}

// GetFilePath returns the storage file path
func (s *Storage) GetFilePath() string {
	return s.filePath
}

func (r *Record) clone() *Record {
	cp := *r
	cp.Attempts = append([]Attempt(nil), r.Attempts...)
	return &cp
}
