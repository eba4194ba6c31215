package storage

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/gstewart/log-insights-go/internal/ngram"
)

// newTestStorage creates a storage backed by a temp database
func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	storage, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func sampleRun() *RunRecord {
	return &RunRecord{
		Timestamp:       time.Now(),
		LogType:         "apache-error",
		GramSize:        5,
		InputDir:        "/var/log/httpd",
		FileCount:       4,
		RecordCount:     1200,
		DurationSeconds: 0.42,
		TopGrams: []ngram.ScoredGram{
			{Gram: "File does not exist: /favicon.ico", Weight: 98.4},
			{Gram: "client denied by server configuration", Weight: 54.1},
		},
	}
}

func TestNew(t *testing.T) {
	storage := newTestStorage(t)

	if storage == nil {
		t.Fatal("Expected storage to be created")
	}
	if storage.db == nil {
		t.Fatal("Expected database connection to be initialized")
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	storage, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer func() { _ = storage.Close() }()

	if storage == nil {
		t.Fatal("Expected storage to be created with nested directories")
	}
}

func TestSchemaVersion(t *testing.T) {
	storage := newTestStorage(t)

	if version := storage.getSchemaVersion(); version != currentSchemaVersion {
		t.Errorf("Schema version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestSaveRun(t *testing.T) {
	storage := newTestStorage(t)

	run := sampleRun()
	if err := storage.SaveRun(run); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	if run.ID == 0 {
		t.Error("Expected ID to be set after save")
	}
}

func TestGetRecentRuns(t *testing.T) {
	storage := newTestStorage(t)

	run := sampleRun()
	if err := storage.SaveRun(run); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	runs, err := storage.GetRecentRuns(7, "")
	if err != nil {
		t.Fatalf("Failed to get recent runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}

	got := runs[0]
	if got.LogType != run.LogType {
		t.Errorf("LogType mismatch: got %s, want %s", got.LogType, run.LogType)
	}
	if got.GramSize != run.GramSize {
		t.Errorf("GramSize mismatch: got %d, want %d", got.GramSize, run.GramSize)
	}
	if got.FileCount != run.FileCount {
		t.Errorf("FileCount mismatch: got %d, want %d", got.FileCount, run.FileCount)
	}
	if got.RecordCount != run.RecordCount {
		t.Errorf("RecordCount mismatch: got %d, want %d", got.RecordCount, run.RecordCount)
	}
	if !reflect.DeepEqual(got.TopGrams, run.TopGrams) {
		t.Errorf("TopGrams mismatch: got %v, want %v", got.TopGrams, run.TopGrams)
	}
}

func TestGetRecentRuns_FilterByLogType(t *testing.T) {
	storage := newTestStorage(t)

	errorRun := sampleRun()
	if err := storage.SaveRun(errorRun); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	accessRun := sampleRun()
	accessRun.LogType = "apache-access"
	if err := storage.SaveRun(accessRun); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	runs, err := storage.GetRecentRuns(7, "apache-access")
	if err != nil {
		t.Fatalf("Failed to get recent runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 filtered run, got %d", len(runs))
	}
	if runs[0].LogType != "apache-access" {
		t.Errorf("LogType = %s, want apache-access", runs[0].LogType)
	}
}

func TestGetRecentRuns_ExcludesOldRuns(t *testing.T) {
	storage := newTestStorage(t)

	oldRun := sampleRun()
	oldRun.Timestamp = time.Now().AddDate(0, 0, -30)
	if err := storage.SaveRun(oldRun); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	runs, err := storage.GetRecentRuns(7, "")
	if err != nil {
		t.Fatalf("Failed to get recent runs: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("Expected 0 recent runs, got %d", len(runs))
	}
}

func TestCleanupOldRuns(t *testing.T) {
	storage := newTestStorage(t)

	oldRun := sampleRun()
	oldRun.Timestamp = time.Now().AddDate(0, 0, -120)
	if err := storage.SaveRun(oldRun); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	recentRun := sampleRun()
	if err := storage.SaveRun(recentRun); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	deleted, err := storage.CleanupOldRuns(90)
	if err != nil {
		t.Fatalf("Failed to cleanup old runs: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted run, got %d", deleted)
	}

	runs, err := storage.GetRecentRuns(365, "")
	if err != nil {
		t.Fatalf("Failed to get recent runs: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("Expected 1 remaining run, got %d", len(runs))
	}
}

func TestGetStatistics(t *testing.T) {
	storage := newTestStorage(t)

	for i := 0; i < 3; i++ {
		if err := storage.SaveRun(sampleRun()); err != nil {
			t.Fatalf("Failed to save run: %v", err)
		}
	}
	accessRun := sampleRun()
	accessRun.LogType = "apache-access"
	if err := storage.SaveRun(accessRun); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	stats, err := storage.GetStatistics()
	if err != nil {
		t.Fatalf("Failed to get statistics: %v", err)
	}

	if stats["total_runs"] != 4 {
		t.Errorf("total_runs = %v, want 4", stats["total_runs"])
	}

	typeDist, ok := stats["runs_by_log_type"].(map[string]int)
	if !ok {
		t.Fatalf("runs_by_log_type has unexpected type: %T", stats["runs_by_log_type"])
	}
	if typeDist["apache-error"] != 3 {
		t.Errorf("apache-error runs = %d, want 3", typeDist["apache-error"])
	}
	if typeDist["apache-access"] != 1 {
		t.Errorf("apache-access runs = %d, want 1", typeDist["apache-access"])
	}
}

func TestSaveRun_EmptyTopGrams(t *testing.T) {
	storage := newTestStorage(t)

	run := sampleRun()
	run.TopGrams = nil
	if err := storage.SaveRun(run); err != nil {
		t.Fatalf("Failed to save run with empty grams: %v", err)
	}

	runs, err := storage.GetRecentRuns(7, "")
	if err != nil {
		t.Fatalf("Failed to get recent runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}
	if len(runs[0].TopGrams) != 0 {
		t.Errorf("Expected empty TopGrams, got %v", runs[0].TopGrams)
	}
}
