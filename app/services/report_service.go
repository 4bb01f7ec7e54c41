package services

import (
	"context"
	"errors"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/repositories"
	"github.com/darzi-app/darzi/pkg/logger"
	"github.com/darzi-app/darzi/pkg/metrics"
	"github.com/darzi-app/darzi/pkg/tracing"
)

// ErrNoExporter is wrapped in the ExportError returned when Export is called
// on a service built without an exporter.
var ErrNoExporter = errors.New("no exporter configured")

// ReportService aggregates orders over a time window and hands the result
// to an exporter.
type ReportService struct {
	store    repositories.Store
	exporter Exporter
	notifier Notifier
	opts     options
}

func NewReportService(store repositories.Store, exporter Exporter, notifier Notifier, opts ...Option) *ReportService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ReportService{store: store, exporter: exporter, notifier: notifier, opts: newOptions(opts)}
}

// Generate builds the report described by req. A window with no orders
// yields an empty report, not an error.
func (s *ReportService) Generate(ctx context.Context, req models.ReportRequest) (r models.Report, err error) {
	ctx, span := tracing.Start(ctx, "report.generate", tracing.ReportType(string(req.Type)))
	defer func() { tracing.End(span, err, models.ErrValidation) }()

	now := s.opts.clock()
	w, err := models.ResolveWindow(req, now)
	if err != nil {
		return models.Report{}, err
	}

	orders, err := s.store.ListOrdersBetween(ctx, w.Start, w.End)
	if err != nil {
		return models.Report{}, err
	}
	names, err := categoryNameIndex(ctx, s.store)
	if err != nil {
		return models.Report{}, err
	}

	r = models.Aggregate(req.Type, w, orders, names, now)
	span.SetAttributes(tracing.ResultCount(r.OrderCount))
	metrics.ReportsGenerated.WithLabelValues(string(r.Type)).Inc()
	logger.WithCtx(ctx).Info("report generated",
		"type", r.Type,
		"window", r.Window.String(),
		"orders", r.OrderCount,
		"revenue", r.Revenue.StringFixed(2),
	)

	notify(ctx, EventReportGenerated, func() error { return s.notifier.ReportGenerated(ctx, r) })
	return r, nil
}

// Export generates the report and renders it in req.Format (PDF when
// empty). When rendering fails the computed report is still returned,
// alongside an *models.ExportError.
func (s *ReportService) Export(ctx context.Context, req models.ReportRequest) (models.Report, Artifact, error) {
	format, err := models.ParseReportFormat(string(req.Format))
	if err != nil {
		return models.Report{}, Artifact{}, err
	}

	r, err := s.Generate(ctx, req)
	if err != nil {
		return models.Report{}, Artifact{}, err
	}

	ctx, span := tracing.Start(ctx, "report.export",
		tracing.ReportType(string(r.Type)), tracing.ReportFormat(string(format)))

	var art Artifact
	if s.exporter == nil {
		err = ErrNoExporter
	} else {
		art, err = s.exporter.Export(ctx, r, format)
	}
	metrics.RecordExport(string(format), err)
	tracing.End(span, err)

	if err != nil {
		logger.WithCtx(ctx).Error("report export failed", "format", format, "error", err)
		return r, Artifact{}, &models.ExportError{Format: format, Err: err}
	}
	logger.WithCtx(ctx).Info("report exported", "format", format, "path", art.Path, "bytes", art.Size)
	return r, art, nil
}
