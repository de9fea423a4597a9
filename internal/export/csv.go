package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leadspider/leadspider/core"
)

// CSVSink appends records to a CSV file. The header is written once per file
// and every run starts with a separator row naming its date.
type CSVSink struct {
	Path string
}

func NewCSVSink(path string) *CSVSink {
	return &CSVSink{Path: path}
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Write(_ context.Context, records []core.OutputRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), os.ModePerm); err != nil {
		return fmt.Errorf("create csv directory: %w", err)
	}
	info, statErr := os.Stat(s.Path)
	fresh := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(core.RecordColumns); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	if err := w.Write(separatorRow(records[0])); err != nil {
		return fmt.Errorf("write csv separator: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec.Row()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return f.Close()
}

func separatorRow(first core.OutputRecord) []string {
	row := make([]string, len(core.RecordColumns))
	row[0] = fmt.Sprintf("--- %s ---", first.ExtractedDate)
	if first.RunID != "" {
		row[1] = "run " + first.RunID
	}
	return row
}
