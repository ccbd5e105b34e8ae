package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Cell conventions: a null value is stored as the empty cell and decodes back
// to nil, booleans are "true"/"false", timestamps are RFC 3339 UTC. Decoding
// runs on every record handed to a caller, so no format-specific sentinel
// (NaN, "<nil>", stray numerics) ever escapes the store.

// readRows loads all data rows from path. A missing file is an empty
// collection. The header row is verified and skipped.
func readRows(path string, columns []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(columns)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if !equalRow(records[0], columns) {
		return nil, fmt.Errorf("store: %s: unexpected header %v", path, records[0])
	}
	return records[1:], nil
}

// writeRows rewrites the whole file: header plus rows. The write goes to a
// temp file in the same directory and is renamed into place so a crash
// mid-write cannot leave a truncated collection behind.
func writeRows(path string, columns []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".csvtodo-*")
	if err != nil {
		return fmt.Errorf("store: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(columns); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("store: flush %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("store: replace %s: %w", path, err)
	}
	return nil
}

func equalRow(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func encodeBool(b bool) string {
	return strconv.FormatBool(b)
}

// decodeBool coerces the textual on-disk form to a real boolean. Accepts the
// spellings older files may carry ("True", "1").
func decodeBool(cell string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "true", "1":
		return true, nil
	case "false", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("store: invalid boolean cell %q", cell)
}

func decodeInt(cell string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil {
		return 0, fmt.Errorf("store: invalid integer cell %q", cell)
	}
	return n, nil
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func decodeTime(cell string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, cell)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: invalid timestamp cell %q", cell)
	}
	return t.UTC(), nil
}

func encodeTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return encodeTime(*t)
}

func decodeTimePtr(cell string) (*time.Time, error) {
	if cell == "" {
		return nil, nil
	}
	t, err := decodeTime(cell)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeStringPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// decodeStringPtr maps the empty cell back to nil. A present-but-empty string
// is not representable in CSV and also decodes to nil.
func decodeStringPtr(cell string) *string {
	if cell == "" {
		return nil
	}
	return &cell
}
