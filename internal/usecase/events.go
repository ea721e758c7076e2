package usecase

import (
	"log/slog"

	"github.com/AbdElbassetKh/PharmaCentral/internal/ports"
)

// LoggingSink is the default ProgressSink: it turns pipeline progress events
// into structured log lines. A UI layer substitutes its own implementation.
type LoggingSink struct {
	logger *slog.Logger
}

var _ ports.ProgressSink = (*LoggingSink)(nil)

// NewLoggingSink wraps a logger as a progress sink.
func NewLoggingSink(logger *slog.Logger) *LoggingSink {
	return &LoggingSink{logger: logger}
}

// RefreshProgress reports the outcome of one full ingestion pass.
func (s *LoggingSink) RefreshProgress(succeeded, failed int) {
	if s.logger != nil {
		s.logger.Info("refresh finished", "succeeded", succeeded, "failed", failed)
	}
}

// TranslationProgress reports queue progress as processed/total.
func (s *LoggingSink) TranslationProgress(processed, total int) {
	if s.logger != nil {
		s.logger.Info("translation progress", "processed", processed, "total", total)
	}
}
