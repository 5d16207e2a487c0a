package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

// IndexFileName is the name of the index database inside a workspace.
const IndexFileName = "index.db"

var (
	// testsBucket maps test case ids to their JSON encoded TestCaseRecord.
	testsBucket = []byte("tests")

	// metaBucket maps keys to JSON encoded information about the run.
	metaBucket = []byte("meta")
)

// MetaRunInfo is the meta bucket key holding the RunInfo of the run which produced the workspace.
const MetaRunInfo = "run"

// TestCaseRecord is the index entry of a single explored path.
type TestCaseRecord struct {
	// ID identifies the test case, its artifacts are named test_<ID>.*.
	ID string `json:"id"`

	// Index is the position of the representative assignment in exploration order.
	Index int `json:"index"`

	// Signature is the hex encoded signature of the path.
	Signature string `json:"signature"`

	// Assignment maps symbolic value names to the representative concrete values.
	Assignment map[string]string `json:"assignment"`

	// Statuses are the outcomes of each transaction of the path.
	Statuses []string `json:"statuses"`

	// Assignments is the amount of explored assignments which followed this path.
	Assignments int `json:"assignments"`

	// Branches is the amount of branch decisions taken along the path.
	Branches int `json:"branches"`
}

// RunInfo describes the run which produced a workspace.
type RunInfo struct {
	// Version is the version of the tool.
	Version string `json:"version"`

	// StartedAt is the time exploration started.
	StartedAt time.Time `json:"startedAt"`

	// Duration is how long exploration took.
	Duration time.Duration `json:"duration"`

	// Assignments is the amount of assignments executed.
	Assignments int `json:"assignments"`

	// TotalAssignments is the amount of assignments the candidate domains allow.
	TotalAssignments int `json:"totalAssignments"`

	// Paths is the amount of distinct paths found.
	Paths int `json:"paths"`

	// StopReason describes why exploration stopped, if it stopped early.
	StopReason string `json:"stopReason,omitempty"`
}

// Index is the bbolt database recording the test cases of a workspace.
type Index struct {
	db *bbolt.DB
}

// OpenIndex opens the index of the workspace directory at dir, creating it if create is true. Returns an error if
// the index does not exist and create is false.
func OpenIndex(dir string, create bool) (*Index, error) {
	path := filepath.Join(dir, IndexFileName)
	if !create {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "%s is not a workspace", dir)
		}
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "could not open workspace index")
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{testsBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.WithStack(err)
	}
	return &Index{db: db}, nil
}

// OpenIndex opens the index of the workspace, creating the workspace and its index as needed.
func (w *Workspace) OpenIndex() (*Index, error) {
	dir, err := w.Path()
	if err != nil {
		return nil, err
	}
	return OpenIndex(dir, true)
}

// PutTestCases stores the records in a single transaction.
func (i *Index) PutTestCases(records ...TestCaseRecord) error {
	return i.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(testsBucket)
		for _, record := range records {
			b, err := json.Marshal(record)
			if err != nil {
				return errors.WithStack(err)
			}
			if err = bucket.Put([]byte(record.ID), b); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
}

// ListTestCases returns every test case in the index, ordered by their Index.
func (i *Index) ListTestCases() ([]TestCaseRecord, error) {
	records := make([]TestCaseRecord, 0)
	err := i.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(testsBucket).ForEach(func(k, v []byte) error {
			var record TestCaseRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return errors.Wrapf(err, "corrupt index entry %s", k)
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(a, b int) bool {
		return records[a].Index < records[b].Index
	})
	return records, nil
}

// PutMeta stores value as JSON under key in the meta bucket.
func (i *Index) PutMeta(key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return errors.WithStack(err)
	}
	return i.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(metaBucket).Put([]byte(key), b)
	})
}

// GetMeta decodes the JSON value stored under key in the meta bucket into value. Returns false if no value was
// stored.
func (i *Index) GetMeta(key string, value any) (bool, error) {
	found := false
	err := i.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(metaBucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, value)
	})
	if err != nil {
		return false, errors.WithStack(err)
	}
	return found, nil
}

// Close closes the index database.
func (i *Index) Close() error {
	return i.db.Close()
}
