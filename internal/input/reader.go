// Package input reads ranked-list records into a dataset.
//
// The format is whitespace-separated with one header line:
//
//	<item id> <group id> <list id> <value> [<prob>]
//
// The group column may name several groups separated by commas. Reading stops
// at the first line with fewer than four fields.
package input

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/panbanda/rra/internal/cache"
	"github.com/panbanda/rra/pkg/models"
)

const (
	minFields = 4
	maxFields = 5

	// maxLineSize bounds a single input line.
	maxLineSize = 1 << 20
)

var (
	// ErrBadHeader is returned when the header line does not have 4 or 5 columns.
	ErrBadHeader = errors.New("input file format: <item id> <group id> <list id> <value> [<prob>]")

	// ErrBadRecord is returned for a record whose value or probability cannot be used.
	ErrBadRecord = errors.New("bad record")
)

// Read parses records from r into a new dataset.
func Read(r io.Reader) (*models.Dataset, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
		return nil, fmt.Errorf("%w (empty input)", ErrBadHeader)
	}
	if n := len(strings.Fields(sc.Text())); n != minFields && n != maxFields {
		return nil, fmt.Errorf("%w (header has %d columns)", ErrBadHeader, n)
	}

	ds := models.NewDataset()
	line := 1
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) < minFields {
			break
		}
		if err := addRecord(ds, fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return ds, nil
}

func addRecord(ds *models.Dataset, fields []string) error {
	groups := strings.FieldsFunc(fields[1], func(r rune) bool { return r == ',' })
	if len(groups) == 0 {
		return fmt.Errorf("%w: empty group column %q", ErrBadRecord, fields[1])
	}

	value, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return fmt.Errorf("%w: value %q: %w", ErrBadRecord, fields[3], err)
	}

	prob := models.DefaultProb
	if len(fields) > minFields {
		prob, err = strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return fmt.Errorf("%w: probability %q: %w", ErrBadRecord, fields[4], err)
		}
	}

	if err := ds.AddRecord(fields[0], groups, fields[2], value, prob); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRecord, err)
	}
	return nil
}

// ReadFile reads the dataset at path. It also returns the BLAKE3 hash of the
// file contents for result caching.
func ReadFile(path string) (*models.Dataset, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("error opening %s: %w", path, err)
	}
	ds, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return ds, cache.HashBytes(data), nil
}
