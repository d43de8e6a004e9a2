package trace

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mariolpantunes/optviewer/internal/stream"
)

func testEpoch(epoch int) *stream.EpochMessage {
	return &stream.EpochMessage{
		Epoch:     epoch,
		PopX:      []float64{1, -2, 3},
		PopY:      []float64{0.5, 0.25, -1},
		PopZ:      []float64{4, 1, 7},
		BestScore: 1,
	}
}

func TestFromEpoch(t *testing.T) {
	entry := FromEpoch(testEpoch(3), 1500*time.Millisecond, false)

	if entry.Epoch != 3 {
		t.Errorf("Expected epoch 3, got %d", entry.Epoch)
	}
	if entry.BestX != -2 || entry.BestY != 0.25 {
		t.Errorf("Expected best point (-2, 0.25), got (%f, %f)", entry.BestX, entry.BestY)
	}
	if entry.MeanScore != 4 {
		t.Errorf("Expected mean score 4, got %f", entry.MeanScore)
	}
	if entry.Elapsed != 1.5 {
		t.Errorf("Expected elapsed 1.5s, got %f", entry.Elapsed)
	}
	if entry.Population != nil {
		t.Error("Population should be dropped")
	}

	if FromEpoch(testEpoch(0), 0, true).Population == nil {
		t.Error("Population should be kept")
	}
}

func TestJSONLWriter_WriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "trace.jsonl")

	writer, err := NewJSONLWriter(path, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}

	for i := 0; i < 4; i++ {
		if err := writer.Write(FromEpoch(testEpoch(i), time.Duration(i)*time.Second, i == 2)); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		if entry.Epoch != i {
			t.Errorf("Entry %d: expected epoch %d, got %d", i, i, entry.Epoch)
		}
		if (entry.Population != nil) != (i == 2) {
			t.Errorf("Entry %d: unexpected population presence", i)
		}
	}
	if got := entries[2].Population.PopZ; len(got) != 3 || got[2] != 7 {
		t.Errorf("Expected population scores to survive, got %v", got)
	}
}

func TestJSONLWriter_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	for i := 0; i < 2; i++ {
		writer, err := NewJSONLWriter(path, i > 0)
		if err != nil {
			t.Fatalf("Failed to create trace writer: %v", err)
		}
		if err := writer.Write(FromEpoch(testEpoch(i), 0, false)); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("Failed to close writer: %v", err)
		}
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
}

func TestJSONLWriter_Flush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	writer, err := NewJSONLWriter(path, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer writer.Close()

	if err := writer.Write(FromEpoch(testEpoch(0), 0, false)); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read trace file: %v", err)
	}
	if len(data) == 0 {
		t.Error("Trace file is empty after flush")
	}
}

func TestReader_ReadIteratively(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	writer, err := NewJSONLWriter(path, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	for i := 0; i < 3; i++ {
		writer.Write(FromEpoch(testEpoch(i), 0, false))
	}
	writer.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		entry, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read entry: %v", err)
		}
		if entry.Epoch != count {
			t.Errorf("Entry %d: expected epoch %d, got %d", count, count, entry.Epoch)
		}
		count++
	}
	if count != 3 {
		t.Errorf("Expected 3 entries, got %d", count)
	}
}

func TestReader_NotFound(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.jsonl"))
	if !errors.Is(err, &NotFoundError{}) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestCSVWriter_HeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")

	writer, err := Create(path)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	if _, ok := writer.(*CSVWriter); !ok {
		t.Fatalf("Expected *CSVWriter, got %T", writer)
	}
	for i := 0; i < 3; i++ {
		if err := writer.Write(FromEpoch(testEpoch(i), 0, true)); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read trace file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header plus 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "epoch,best_score,mean_score,best_x,best_y,elapsed_s" {
		t.Errorf("Unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "1,1,4,-2,0.25,") {
		t.Errorf("Unexpected row %q", lines[2])
	}
}

func TestCreate_Formats(t *testing.T) {
	dir := t.TempDir()

	w, err := Create(filepath.Join(dir, "trace.jsonl"))
	if err != nil {
		t.Fatalf("Failed to create JSONL writer: %v", err)
	}
	if _, ok := w.(*JSONLWriter); !ok {
		t.Errorf("Expected *JSONLWriter, got %T", w)
	}
	w.Close()

	if _, err := Create(filepath.Join(dir, "trace.parquet")); err == nil {
		t.Error("Expected error for unsupported extension")
	}
}
