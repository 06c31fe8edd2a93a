package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	catalogdomain "github.com/Apurer/storefront-client/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/storefront-client/internal/domains/catalog/ports"
)

const tracerName = "github.com/Apurer/storefront-client/internal/domains/catalog/adapters/observability/service"

// Service decorates the catalog cache with tracing, logging, and metrics.
// Read-only lookups pass straight through.
type Service struct {
	inner   catalogports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the catalog service.
func New(inner catalogports.Service, opts ...Option) catalogports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) Refresh(ctx context.Context) ([]catalogdomain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Refresh")
	defer span.End()

	s.logDebug(ctx, "refreshing catalog")
	products, err := s.inner.Refresh(ctx)
	if err != nil {
		s.metrics.recordRefresh(ctx, false)
		return nil, s.handleError(ctx, span, err, "failed to refresh catalog")
	}
	s.metrics.recordRefresh(ctx, true)
	span.SetAttributes(attribute.Int("catalog.size", len(products)))
	s.logInfo(ctx, "catalog refreshed", slog.Int("catalog.size", len(products)))
	return products, nil
}

func (s *Service) Lookup(id string) (catalogdomain.Product, bool) {
	return s.inner.Lookup(id)
}

func (s *Service) First() (catalogdomain.Product, bool) {
	return s.inner.First()
}

func (s *Service) Snapshot() []catalogdomain.Product {
	return s.inner.Snapshot()
}

func (s *Service) Len() int {
	return s.inner.Len()
}

func (s *Service) Subscribe(fn catalogports.RefreshFunc) func() {
	return s.inner.Subscribe(fn)
}

func (s *Service) CreateProduct(ctx context.Context, in catalogdomain.NewProduct) (catalogdomain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.CreateProduct",
		trace.WithAttributes(attribute.String("product.name", in.Name), attribute.Int("product.quantity", in.Quantity)))
	defer span.End()

	s.logInfo(ctx, "creating product", slog.String("product.name", in.Name))
	created, err := s.inner.CreateProduct(ctx, in)
	if err != nil {
		return catalogdomain.Product{}, s.handleError(ctx, span, err, "failed to create product", slog.String("product.name", in.Name))
	}
	s.metrics.recordCreated(ctx)
	s.logInfo(ctx, "product created", slog.String("product.id", created.ID), slog.String("product.code", created.Code))
	return created, nil
}

func (s *Service) logDebug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	refreshes       metric.Int64Counter
	productsCreated metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	refreshes, _ := m.Int64Counter("catalog.refreshes", metric.WithDescription("Number of catalog refreshes"))
	productsCreated, _ := m.Int64Counter("catalog.products_created", metric.WithDescription("Number of products created"))
	return serviceMetrics{refreshes: refreshes, productsCreated: productsCreated}
}

func (m serviceMetrics) recordRefresh(ctx context.Context, ok bool) {
	if m.refreshes != nil {
		m.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", ok)))
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	if m.productsCreated != nil {
		m.productsCreated.Add(ctx, 1)
	}
}

var _ catalogports.Service = (*Service)(nil)
