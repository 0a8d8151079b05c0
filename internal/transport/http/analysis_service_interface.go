package http

import (
	"context"
	"io"

	"cellpeak/internal/services"
)

// AnalysisServiceInterface defines the analysis operations the handler needs
type AnalysisServiceInterface interface {
	Analyze(ctx context.Context, name string, src io.Reader, format string, o services.Overrides) (*services.AnalysisResult, error)
}
