package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"whorep/internal/hierarchy"
)

// Service renders hierarchies in every supported format.
type Service struct {
	now    func() time.Time
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{now: time.Now, logger: logger.With("component", "export")}
}

// Render produces h in the requested format. The JSON form is the
// re-importable export.
func (s *Service) Render(ctx context.Context, h *hierarchy.Hierarchy, format Format) (*Result, error) {
	base := "whorep-" + sanitizeFilename(h.Address)

	if format == FormatJSON {
		data, err := hierarchy.Export(h)
		if err != nil {
			return nil, err
		}
		return &Result{Data: data, Filename: base + ".json", MimeType: "application/json"}, nil
	}
	if format != FormatHTML && format != FormatPDF {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	html, err := RenderReportHTML(NewReportData(h, s.now()))
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	if format == FormatHTML {
		return &Result{Data: []byte(html), Filename: base + ".html", MimeType: "text/html; charset=utf-8"}, nil
	}

	start := time.Now()
	pdf, err := renderPDF(ctx, html)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("rendered pdf", "bytes", len(pdf), "duration_ms", time.Since(start).Milliseconds())
	return &Result{Data: pdf, Filename: base + ".pdf", MimeType: "application/pdf"}, nil
}
