package export

import (
	"encoding/csv"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// ContentType returns the MIME type for format, or false for an unknown
// format.
func ContentType(format string) (string, bool) {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8", true
	case FormatJSON:
		return "application/json", true
	case FormatMsgpack:
		return "application/msgpack", true
	}
	return "", false
}

// Write encodes records to w in the given format.
func Write(w io.Writer, format string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	switch format {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatJSON:
		if err := json.NewEncoder(w).Encode(records); err != nil {
			return fmt.Errorf("failed to encode json export: %w", err)
		}
		return nil
	case FormatMsgpack:
		if err := msgpack.NewEncoder(w).Encode(records); err != nil {
			return fmt.Errorf("failed to encode msgpack export: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown export format %q", format)
}

// WriteCSV writes a header row followed by one row per record.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.fields()); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
