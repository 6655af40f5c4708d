package envinfo

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// CSVOptions controls how an environment file is written.
type CSVOptions struct {
	// Append opens the file in append mode instead of truncating.
	Append bool

	// OmitHeader suppresses the header row. As with the samples file the
	// header is historically written even when appending; this opts out.
	OmitHeader bool
}

// csvHeader lists the environment columns in their fixed order.
var csvHeader = []string{
	"uuid", "timestamp", "runtime_sha1", "package_sha1", "os",
	"cpu_cores", "arch", "machine", "cgo_enabled", "word_size",
}

// nullField renders an unknown value as the literal NULL.
func nullField(v string) string {
	if v == "" {
		return "NULL"
	}
	return v
}

// WriteCSV writes the record to w as a header row and one data row.
func (r Record) WriteCSV(w io.Writer, opts CSVOptions) error {
	cw := csv.NewWriter(w)

	if !opts.OmitHeader {
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
	}

	row := []string{
		nullField(r.UUID),
		r.Timestamp.Format(time.RFC3339),
		nullField(r.RuntimeRevision),
		nullField(r.PackageRevision),
		nullField(r.OS),
		strconv.Itoa(r.CPUCores),
		nullField(r.Arch),
		nullField(r.Machine),
		strconv.FormatBool(r.CgoEnabled),
		strconv.Itoa(r.WordSize),
	}
	if err := cw.Write(row); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the record to the file at path.
func (r Record) SaveCSV(path string, opts CSVOptions) error {
	flags := os.O_WRONLY | os.O_CREATE
	if opts.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open environment file: %w", err)
	}

	if err := r.WriteCSV(f, opts); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write environment file: %w", err)
	}
	return f.Close()
}
