// Package report renders analysis results for the terminal.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/gstewart/log-insights-go/internal/pipeline"
	"github.com/gstewart/log-insights-go/internal/storage"
)

// WriteDiscovery prints the file-count line. Called after discovery and
// before any file is parsed, so the operator sees what a long run is
// working through.
func WriteDiscovery(w io.Writer, fileCount int) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Identified %d files for parsing\n", fileCount)
}

// WriteRecordCount prints the record-count line.
func WriteRecordCount(w io.Writer, recordCount int) {
	fmt.Fprintf(w, "There are %d log records in this data\n", recordCount)
	fmt.Fprintln(w)
}

// WriteTable prints the ranked n-gram table to w.
func WriteTable(w io.Writer, r *pipeline.Report) {
	fmt.Fprintf(w, "%-65s%s\n", fmt.Sprintf("%d-GRAMS", r.GramSize), "TF-IDF VALUE")
	for _, sg := range r.TopGrams {
		fmt.Fprintf(w, "%-70s%5.2f\n", sg.Gram, sg.Weight)
	}
}

// WriteStats prints the run-history statistics and the recent runs table.
func WriteStats(w io.Writer, stats map[string]interface{}, runs []*storage.RunRecord) {
	fmt.Fprintf(w, "Total runs: %v\n", stats["total_runs"])

	if dist, ok := stats["runs_by_log_type"].(map[string]int); ok && len(dist) > 0 {
		logTypes := make([]string, 0, len(dist))
		for logType := range dist {
			logTypes = append(logTypes, logType)
		}
		sort.Strings(logTypes)
		for _, logType := range logTypes {
			fmt.Fprintf(w, "  %-15s%d\n", logType, dist[logType])
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-18s%-15s%4s%8s%10s\n", "TIMESTAMP", "LOG TYPE", "N", "FILES", "RECORDS")
	for _, r := range runs {
		fmt.Fprintf(w, "%-18s%-15s%4d%8d%10d\n",
			r.Timestamp.Format("2006-01-02 15:04"), r.LogType, r.GramSize, r.FileCount, r.RecordCount)
	}
}
