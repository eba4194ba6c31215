// Package pipeline orchestrates the log insight extraction run: file
// discovery, line normalization, and n-gram scoring.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gstewart/log-insights-go/internal/insight"
	"github.com/gstewart/log-insights-go/internal/ngram"
)

// Report holds the outcome of one analysis run.
type Report struct {
	LogType     insight.LogType
	GramSize    int
	FileCount   int
	RecordCount int
	TopGrams    []ngram.ScoredGram
	Duration    time.Duration
}

// Pipeline runs the batch analysis over a directory of log files.
type Pipeline struct {
	handler     insight.LogHandler
	logType     insight.LogType
	gramSize    int
	resultLimit int
	maxSizeMB   int
}

// New creates a pipeline for the given handler and gram size.
func New(logType insight.LogType, handler insight.LogHandler, gramSize, resultLimit, maxSizeMB int) *Pipeline {
	return &Pipeline{
		handler:     handler,
		logType:     logType,
		gramSize:    gramSize,
		resultLimit: resultLimit,
		maxSizeMB:   maxSizeMB,
	}
}

// Discover returns the paths under inputDir whose base names start with one
// of the handler's file prefixes, sorted by modification time ascending.
// The sort is stable: files with equal mtimes keep glob discovery order.
func (p *Pipeline) Discover(inputDir string) ([]string, error) {
	if _, err := os.Stat(inputDir); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("input directory does not exist: %s", inputDir)
		}
		return nil, fmt.Errorf("failed to stat input directory: %w", err)
	}

	type fileEntry struct {
		path  string
		mtime time.Time
	}

	var entries []fileEntry
	for _, prefix := range p.handler.FilePrefixes() {
		matches, err := filepath.Glob(filepath.Join(inputDir, prefix+"*"))
		if err != nil {
			return nil, fmt.Errorf("failed to glob %s%s*: %w", inputDir, prefix, err)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", match, err)
			}
			if info.IsDir() {
				continue
			}
			entries = append(entries, fileEntry{path: match, mtime: info.ModTime()})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].mtime.Before(entries[j].mtime)
	})

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.path
	}
	return paths, nil
}

// Run reads every file, normalizes each line through the handler, scores the
// collected records, and returns the ranked report. Any file read failure or
// handler parse failure aborts the run; there is no partial result.
func (p *Pipeline) Run(ctx context.Context, paths []string) (*Report, error) {
	start := time.Now()

	var records []string
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled: %w", err)
		}

		fileRecords, err := p.parseFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		records = append(records, fileRecords...)
	}

	topGrams, err := ngram.Score(records, p.gramSize, p.resultLimit)
	if err != nil {
		return nil, fmt.Errorf("scoring failed: %w", err)
	}

	return &Report{
		LogType:     p.logType,
		GramSize:    p.gramSize,
		FileCount:   len(paths),
		RecordCount: len(records),
		TopGrams:    topGrams,
		Duration:    time.Since(start),
	}, nil
}

// parseFile reads one log file whole and normalizes it line by line.
func (p *Pipeline) parseFile(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	maxBytes := int64(p.maxSizeMB) * 1024 * 1024
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("file exceeds maximum size of %dMB (size: %.2fMB)",
			p.maxSizeMB, float64(info.Size())/1024/1024)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) == 0 {
		return nil, nil
	}

	// Every line reaches the handler, blank interior lines included; the
	// handler's own policy decides whether those are skipped or fatal.
	// Only the empty element a trailing newline would produce is dropped.
	var records []string
	for _, line := range strings.Split(strings.TrimSuffix(string(content), "\n"), "\n") {
		record, ok, err := p.handler.Normalize(line)
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, record)
		}
	}
	return records, nil
}
