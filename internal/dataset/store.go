package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"jit-rca/internal/records"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const indexFile = "datasets.json"

// ErrNotFound is returned for an unknown dataset id or name.
var ErrNotFound = errors.New("dataset not found")

// Info describes a stored dataset.
type Info struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Records    int       `json:"records"`
	ImportedAt time.Time `json:"imported_at"`
}

type entry struct {
	info    Info
	records []records.OrderRecord
}

// Store keeps imported record collections in memory, keyed by dataset id, and persists them
// as JSONL files in dir. Readers always receive a copy.
type Store struct {
	mu   sync.RWMutex
	dir  string
	sets map[string]*entry
}

// NewStore creates an empty store. An empty dir disables persistence.
func NewStore(dir string) *Store {
	return &Store{
		dir:  dir,
		sets: make(map[string]*entry),
	}
}

// Put stores a copy of recs under a fresh id.
func (s *Store) Put(name string, recs []records.OrderRecord) Info {
	info := Info{
		ID:         uuid.NewString(),
		Name:       name,
		Records:    len(recs),
		ImportedAt: time.Now().UTC().Truncate(time.Second),
	}

	s.mu.Lock()
	s.sets[info.ID] = &entry{info: info, records: records.Clone(recs)}
	s.mu.Unlock()

	log.Info().Str("dataset", info.ID).Str("name", name).Int("records", info.Records).Msg("Dataset stored")
	return info
}

// Snapshot returns an independent copy of the records of a dataset.
func (s *Store) Snapshot(id string) ([]records.OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return records.Clone(e.records), nil
}

// Resolve maps a dataset id or name to an id. A name resolves to its most recent import;
// an empty ref resolves to the most recent dataset overall.
func (s *Store) Resolve(ref string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sets[ref]; ok {
		return ref, nil
	}

	var best *Info
	for _, e := range s.sets {
		if ref != "" && e.info.Name != ref {
			continue
		}
		if best == nil || e.info.ImportedAt.After(best.ImportedAt) ||
			(e.info.ImportedAt.Equal(best.ImportedAt) && e.info.ID > best.ID) {
			info := e.info
			best = &info
		}
	}
	if best == nil {
		if ref == "" {
			return "", fmt.Errorf("%w: store is empty", ErrNotFound)
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return best.ID, nil
}

// List returns the stored datasets, newest first.
func (s *Store) List() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Info, 0, len(s.sets))
	for _, e := range s.sets {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ImportedAt.Equal(out[j].ImportedAt) {
			return out[i].ImportedAt.After(out[j].ImportedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Delete removes a dataset from memory and from disk.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.sets[id]
	delete(s.sets, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.dir == "" {
		return nil
	}
	if err := os.Remove(s.dataPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove dataset file: %w", err)
	}
	return s.saveIndex()
}

func (s *Store) dataPath(id string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.jsonl", id))
}

// Save persists one dataset and the index. Both files are written to a temp file and renamed.
func (s *Store) Save(id string) error {
	if s.dir == "" {
		return nil
	}
	s.mu.RLock()
	e, ok := s.sets[id]
	var recs []records.OrderRecord
	if ok {
		recs = e.records
	}
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	err := writeAtomic(s.dataPath(id), func(w *bufio.Writer) error {
		enc := json.NewEncoder(w)
		for _, r := range recs {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("failed to encode record: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("dataset", id).Int("records", len(recs)).Msg("Dataset saved")
	return s.saveIndex()
}

func (s *Store) saveIndex() error {
	infos := s.List()
	return writeAtomic(filepath.Join(s.dir, indexFile), func(w *bufio.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	})
}

func writeAtomic(path string, write func(*bufio.Writer) error) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	w := bufio.NewWriter(file)
	if err := write(w); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Load reads the index and every listed dataset from dir. A missing index is not an error.
// Invalid lines are skipped with a warning.
func (s *Store) Load() error {
	if s.dir == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read dataset index: %w", err)
	}

	var infos []Info
	if err := json.Unmarshal(data, &infos); err != nil {
		return fmt.Errorf("failed to parse dataset index: %w", err)
	}

	for _, info := range infos {
		recs, err := s.readData(info.ID)
		if err != nil {
			log.Warn().Err(err).Str("dataset", info.ID).Msg("Skipping unreadable dataset")
			continue
		}
		info.Records = len(recs)

		s.mu.Lock()
		s.sets[info.ID] = &entry{info: info, records: recs}
		s.mu.Unlock()
		log.Debug().Str("dataset", info.ID).Int("records", len(recs)).Msg("Loaded dataset from cache")
	}
	return nil
}

func (s *Store) readData(id string) ([]records.OrderRecord, error) {
	file, err := os.Open(s.dataPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	var recs []records.OrderRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		var r records.OrderRecord
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			log.Warn().Err(err).Str("dataset", id).Msg("Skipping invalid JSON line in dataset")
			continue
		}
		recs = append(recs, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}
	return recs, nil
}
