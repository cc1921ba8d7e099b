// Package storage keeps a history of selection runs in BoltDB.
//
// Each run is stored as JSON in the runs bucket under a key that starts with the run's
// creation time, so a reverse cursor walk lists the newest runs first.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const (
	runsBucket  = "runs"    // run records keyed by "<ts>_<id>"
	indexBucket = "run_ids" // run id -> key in runsBucket

	// keyTimeLayout sorts lexically in time order.
	keyTimeLayout = "20060102T150405.000000000Z"

	// DBFile is the database file name inside the data directory.
	DBFile = "featsel-runs.db"
)

var ErrRunNotFound = errors.New("storage: run not found")

// RunRecord describes one fit/transform with its inputs and results.
type RunRecord struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	Source             string    `json:"source"`
	Estimator          string    `json:"estimator"`
	InputColumns       []string  `json:"input_columns"`
	ReducedColumns     []string  `json:"reduced_columns"`
	OutputColumns      []string  `json:"output_columns"`
	Importances        []float64 `json:"importances"`
	Support            []bool    `json:"support"`
	NumberLogs         int       `json:"number_logs"`
	Threshold          float64   `json:"threshold"`
	ApplyNormalization bool      `json:"apply_normalization"`
	Rows               int       `json:"rows"`
}

// Store persists run records using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the run database in dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, DBFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return fmt.Errorf("create runs bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(indexBucket)); err != nil {
			return fmt.Errorf("create index bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun stores a run. A missing ID or timestamp is filled in and the stored record
// is returned.
func (s *Store) SaveRun(run RunRecord) (RunRecord, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		idx := tx.Bucket([]byte(indexBucket))
		if idx.Get([]byte(run.ID)) != nil {
			return fmt.Errorf("storage: run %s already exists", run.ID)
		}

		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshal run: %w", err)
		}

		key := runKey(run)
		if err := tx.Bucket([]byte(runsBucket)).Put(key, data); err != nil {
			return err
		}
		return idx.Put([]byte(run.ID), key)
	})
	if err != nil {
		return RunRecord{}, err
	}
	return run, nil
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(id string) (RunRecord, error) {
	var run RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket([]byte(indexBucket)).Get([]byte(id))
		if key == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		data := tx.Bucket([]byte(runsBucket)).Get(key)
		if data == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return json.Unmarshal(data, &run)
	})
	return run, err
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all runs.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			var run RunRecord
			if err := json.Unmarshal(v, &run); err != nil {
				continue // Skip malformed records
			}
			runs = append(runs, run)
		}
		return nil
	})
	return runs, err
}

// DeleteRun removes a run.
func (s *Store) DeleteRun(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		idx := tx.Bucket([]byte(indexBucket))
		key := idx.Get([]byte(id))
		if key == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		if err := tx.Bucket([]byte(runsBucket)).Delete(key); err != nil {
			return err
		}
		return idx.Delete([]byte(id))
	})
}

func runKey(run RunRecord) []byte {
	return []byte(fmt.Sprintf("%s_%s", run.CreatedAt.Format(keyTimeLayout), run.ID))
}
