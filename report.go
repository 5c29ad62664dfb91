package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const (
	communityReportFile = "community_metrics.json"
	userReportFile      = "user_metrics.json"
)

// ReportWriter persists the two metric result structures as JSON documents.
// It is a thin consumer of the aggregation output; nothing is read back
// between runs.
type ReportWriter struct {
	dir string
}

// NewReportWriter creates a writer rooted at the given directory.
func NewReportWriter(dir string) (*ReportWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &ReportWriter{dir: dir}, nil
}

// WriteAll writes both reports. A failed run leaves no partial results: the
// community report failing aborts before the user report is touched.
func (w *ReportWriter) WriteAll(community CommunityMetrics, users UserMetricsReport) error {
	if err := w.write(communityReportFile, community); err != nil {
		return err
	}
	return w.write(userReportFile, users)
}

func (w *ReportWriter) write(name string, v any) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	log.Info().
		Str("path", path).
		Int("bytes", len(jsonData)).
		Msg("Report written")

	return nil
}
