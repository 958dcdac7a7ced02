// Package export persists finished scans. Each exporter writes the full
// item list plus the summary block; the pipeline stays pure and only
// this layer touches disk.
package export

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/keywordpulse/backend/internal/metrics"
	"github.com/keywordpulse/backend/internal/model"
)

// Metadata travels with every export so a file is self-describing.
type Metadata struct {
	RunID       string
	Keywords    []string
	Sort        string
	Container   string
	Partial     bool
	GeneratedAt time.Time
}

type Exporter interface {
	// Format returns the short format name used in filenames and metrics.
	Format() string
	Export(path string, items []model.ScoredItem, stats model.SummaryStats, meta Metadata) error
}

// Manager dispatches to registered exporters by format name.
type Manager struct {
	exporters map[string]Exporter
	outputDir string
	logger    *zap.Logger
}

func NewManager(outputDir string, logger *zap.Logger, exporters ...Exporter) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		exporters: make(map[string]Exporter, len(exporters)),
		outputDir: outputDir,
		logger:    logger,
	}
	for _, e := range exporters {
		m.exporters[e.Format()] = e
	}
	return m
}

// Formats lists the registered format names.
func (m *Manager) Formats() []string {
	out := make([]string, 0, len(m.exporters))
	for f := range m.exporters {
		out = append(out, f)
	}
	return out
}

// Write exports one scan to a run-scoped file and returns its path.
func (m *Manager) Write(format string, items []model.ScoredItem, stats model.SummaryStats, meta Metadata) (string, error) {
	exporter, ok := m.exporters[format]
	if !ok {
		return "", fmt.Errorf("unknown export format %q", format)
	}

	path := filepath.Join(m.outputDir, fmt.Sprintf("scan_%s_%s.%s",
		meta.GeneratedAt.Format("20060102_150405"), meta.RunID, extension(format)))

	start := time.Now()
	if err := exporter.Export(path, items, stats, meta); err != nil {
		return "", fmt.Errorf("failed to export %s: %w", format, err)
	}
	metrics.ExportDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())

	m.logger.Info("Export written",
		zap.String("format", format),
		zap.String("path", path),
		zap.Int("items", len(items)),
	)
	return path, nil
}

func extension(format string) string {
	if format == "excel" {
		return "xlsx"
	}
	return format
}
