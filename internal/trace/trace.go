// Package trace records the epochs of a run to disk, as JSON lines or CSV,
// and reads JSON-lines traces back.
package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mariolpantunes/optviewer/internal/stream"
)

// Entry is one epoch of a trace
type Entry struct {
	Epoch     int     `json:"epoch" csv:"epoch"`
	BestScore float64 `json:"best_score" csv:"best_score"`
	MeanScore float64 `json:"mean_score" csv:"mean_score"`
	// BestX, BestY locate the best member of this epoch's population
	BestX   float64 `json:"best_x" csv:"best_x"`
	BestY   float64 `json:"best_y" csv:"best_y"`
	Elapsed float64 `json:"elapsed_s" csv:"elapsed_s"`

	Timestamp time.Time `json:"timestamp" csv:"-"`

	// Population is only kept by the JSON-lines format
	Population *stream.EpochMessage `json:"population,omitempty" csv:"-"`
}

// FromEpoch summarizes msg. When keepPopulation is false the population
// itself is dropped to keep traces small.
func FromEpoch(msg *stream.EpochMessage, elapsed time.Duration, keepPopulation bool) Entry {
	e := Entry{
		Epoch:     msg.Epoch,
		BestScore: msg.BestScore,
		Elapsed:   elapsed.Seconds(),
		Timestamp: time.Now(),
	}
	if len(msg.PopZ) > 0 {
		best := floats.MinIdx(msg.PopZ)
		e.MeanScore = stat.Mean(msg.PopZ, nil)
		e.BestX = msg.PopX[best]
		e.BestY = msg.PopY[best]
	}
	if keepPopulation {
		e.Population = msg
	}
	return e
}

// Writer appends entries to a trace file
type Writer interface {
	Write(entry Entry) error
	Path() string
	Close() error
}

// Create opens a trace writer chosen by the file extension: .csv for CSV,
// .jsonl or .json for JSON lines. Existing files are truncated.
func Create(path string) (Writer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSVWriter(path)
	case ".jsonl", ".json":
		return NewJSONLWriter(path, false)
	default:
		return nil, fmt.Errorf("unsupported trace format %q (want .jsonl or .csv)", filepath.Ext(path))
	}
}

// JSONLWriter writes trace entries as JSON lines.
// It uses buffered I/O and is safe for concurrent use.
type JSONLWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
}

// NewJSONLWriter creates the trace file and any missing parent directories.
// If append is true, new entries are appended to an existing file.
func NewJSONLWriter(path string, append bool) (*JSONLWriter, error) {
	file, err := openTrace(path, append)
	if err != nil {
		return nil, err
	}

	return &JSONLWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, 64*1024),
		path:   path,
	}, nil
}

// Write buffers one entry; it reaches the file on Flush or Close.
func (tw *JSONLWriter) Write(entry Entry) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal trace entry: %w", err)
	}
	if _, err := tw.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	if err := tw.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	return nil
}

// Flush writes buffered entries and syncs the file.
func (tw *JSONLWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace writer: %w", err)
	}
	if err := tw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync trace file: %w", err)
	}
	return nil
}

// Close flushes buffered data and closes the trace file.
func (tw *JSONLWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.writer.Flush(); err != nil {
		tw.file.Close()
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := tw.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the trace file.
func (tw *JSONLWriter) Path() string {
	return tw.path
}

// CSVWriter writes trace entries as CSV rows, header first
type CSVWriter struct {
	mu            sync.Mutex
	file          *os.File
	path          string
	headerWritten bool
}

// NewCSVWriter creates the CSV trace file
func NewCSVWriter(path string) (*CSVWriter, error) {
	file, err := openTrace(path, false)
	if err != nil {
		return nil, err
	}
	return &CSVWriter{file: file, path: path}, nil
}

// Write appends one row
func (cw *CSVWriter) Write(entry Entry) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	records := []Entry{entry}
	if !cw.headerWritten {
		if err := gocsv.Marshal(records, cw.file); err != nil {
			return fmt.Errorf("failed to write trace row: %w", err)
		}
		cw.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, cw.file); err != nil {
		return fmt.Errorf("failed to write trace row: %w", err)
	}
	return nil
}

// Close closes the CSV file
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if err := cw.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the trace file.
func (cw *CSVWriter) Path() string {
	return cw.path
}

func openTrace(path string, append bool) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create trace directory: %w", err)
		}
	}

	var file *os.File
	var err error
	if append {
		file, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	} else {
		file, err = os.Create(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	return file, nil
}

// NotFoundError is returned when a trace file does not exist
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("trace not found: %s", e.Path)
}

// Is allows errors.Is to match any NotFoundError
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// Reader reads entries from a JSON-lines trace
type Reader struct {
	file    *os.File
	scanner *bufio.Scanner
}

// NewReader opens the trace at path
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	// Lines carrying a population can be long
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	return &Reader{file: file, scanner: scanner}, nil
}

// Read returns the next entry, or io.EOF when there are no more.
func (tr *Reader) Read() (*Entry, error) {
	if !tr.scanner.Scan() {
		if err := tr.scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan trace line: %w", err)
		}
		return nil, io.EOF
	}

	var entry Entry
	if err := json.Unmarshal(tr.scanner.Bytes(), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace entry: %w", err)
	}
	return &entry, nil
}

// ReadAll reads every remaining entry.
func (tr *Reader) ReadAll() ([]Entry, error) {
	var entries []Entry
	for {
		entry, err := tr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// Close closes the trace reader.
func (tr *Reader) Close() error {
	if err := tr.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}
