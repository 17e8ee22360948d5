package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store is a destination for a finalized report.
type Store interface {
	// Save persists the report and returns a description of where it went.
	Save(ctx context.Context, r AggregateReport) (location string, err error)
	String() string
}

const maxFileCollisions = 1000

// FileStore writes each report to <Dir>/test_results_<timestamp>.json.
type FileStore struct {
	Dir string
}

func (s FileStore) String() string { return "directory " + s.Dir }

// Save never overwrites an existing file. If the name is taken, it adds a numeric suffix.
func (s FileStore) Save(ctx context.Context, r AggregateReport) (string, error) {
	data, err := r.MarshalJSON()
	if err != nil {
		return "", err
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil { //nolint:gosec
		return "", err
	}
	for i := 0; i < maxFileCollisions; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		name := "test_results_" + r.Timestamp
		if i > 0 {
			name = fmt.Sprintf("%s-%d", name, i)
		}
		path := filepath.Join(dir, name+".json")
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644) //nolint:gosec
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		_, err = f.Write(append(data, '\n'))
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		return path, err
	}
	return "", fmt.Errorf("too many reports named test_results_%s in %s", r.Timestamp, dir)
}
