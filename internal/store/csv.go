package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CSVOptions controls how a samples file is written.
type CSVOptions struct {
	// Append opens the file in append mode instead of truncating.
	Append bool

	// OmitHeader suppresses the header row. Historically the header was
	// written even in append mode; that remains the default, and callers
	// appending to an existing file can opt out here.
	OmitHeader bool
}

// csvHeader is the samples file header, columns in insertion order.
var csvHeader = []string{"evaluations", "elapsed_time", "gc_time", "bytes_allocated", "allocations"}

// WriteCSV writes the samples table to w: a header row, then one row per
// sample in insertion order.
func (s *Samples) WriteCSV(w io.Writer, opts CSVOptions) error {
	cw := csv.NewWriter(w)

	if !opts.OmitHeader {
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
	}

	for i := 0; i < s.Len(); i++ {
		row := []string{
			formatFloat(s.evaluations[i]),
			formatFloat(s.elapsed[i]),
			formatFloat(s.gcTime[i]),
			strconv.FormatUint(s.bytes[i], 10),
			strconv.FormatUint(s.allocs[i], 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the samples table to the file at path, creating it if
// needed. With opts.Append the rows are added to the end of an existing
// file; note that the header is still written unless opts.OmitHeader is
// set.
func (s *Samples) SaveCSV(path string, opts CSVOptions) error {
	flags := os.O_WRONLY | os.O_CREATE
	if opts.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open samples file: %w", err)
	}

	if err := s.WriteCSV(f, opts); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write samples file: %w", err)
	}
	return f.Close()
}

// formatFloat renders a column value without trailing zeros, so integral
// observations round-trip as integers.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
