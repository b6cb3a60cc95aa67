package report

import (
	"encoding/csv"
	"fmt"
	"io"
)

// csvHeader is the fixed column order of the report.
var csvHeader = []string{"DisplayName", "DtmfAccessId", "ScheduleName"}

// CSVSink writes report rows to CSV, one row per WriteRow call.
type CSVSink struct {
	w *csv.Writer
}

// NewCSVSink creates a sink over w and writes the header row.
func NewCSVSink(w io.Writer) (*CSVSink, error) {
	sink := &CSVSink{w: csv.NewWriter(w)}
	if err := sink.w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return sink, nil
}

// WriteRow implements RowSink.
func (s *CSVSink) WriteRow(row ReportRow) error {
	return s.w.Write([]string{row.DisplayName, row.DtmfAccessID, row.ScheduleName})
}

// Flush writes any buffered rows to the underlying writer.
func (s *CSVSink) Flush() error {
	s.w.Flush()
	return s.w.Error()
}
