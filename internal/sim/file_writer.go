package sim

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"fsa-anomaly-lab/internal/telemetry"
)

// FileWriter writes log entries, trend points and tick summaries to JSONL files.
type FileWriter struct {
	mu          sync.Mutex
	eventFile   *os.File
	trendFile   *os.File
	summaryFile *os.File
	eventEnc    *json.Encoder
	trendEnc    *json.Encoder
	summaryEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. trendPath or summaryPath may be empty to skip those logs.
func NewFileWriter(eventPath, trendPath, summaryPath string) (*FileWriter, error) {
	ef, err := os.Create(eventPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{eventFile: ef, eventEnc: json.NewEncoder(ef)}
	if trendPath != "" {
		tf, err := os.Create(trendPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.trendFile = tf
		fw.trendEnc = json.NewEncoder(tf)
	}
	if summaryPath != "" {
		sf, err := os.Create(summaryPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.summaryFile = sf
		fw.summaryEnc = json.NewEncoder(sf)
	}
	return fw, nil
}

// WriteEvent logs a single entry.
func (f *FileWriter) WriteEvent(e telemetry.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eventEnc.Encode(e)
}

// WriteEvents logs multiple entries.
func (f *FileWriter) WriteEvents(entries []telemetry.LogEntry) error {
	for _, e := range entries {
		if err := f.WriteEvent(e); err != nil {
			return err
		}
	}
	return nil
}

// WriteTrend logs a trend point, if enabled.
func (f *FileWriter) WriteTrend(p telemetry.TrendPoint) error {
	if f.trendEnc == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trendEnc.Encode(p)
}

// WriteSummary logs a tick summary row, if enabled.
func (f *FileWriter) WriteSummary(row telemetry.TickSummaryRow) error {
	if f.summaryEnc == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summaryEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var errs []error
	for _, file := range []*os.File{f.eventFile, f.trendFile, f.summaryFile} {
		if file == nil {
			continue
		}
		if err := file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
