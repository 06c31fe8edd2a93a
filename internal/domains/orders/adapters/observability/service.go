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

	ordersdomain "github.com/Apurer/storefront-client/internal/domains/orders/domain"
	ordersports "github.com/Apurer/storefront-client/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/storefront-client/internal/domains/orders/adapters/observability/service"

type Option func(*instrumentation)

func WithLogger(logger *slog.Logger) Option {
	return func(i *instrumentation) {
		i.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(i *instrumentation) {
		i.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(i *instrumentation) {
		i.metrics = newServiceMetrics(m)
	}
}

type instrumentation struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

func newInstrumentation(opts []Option) instrumentation {
	i := instrumentation{
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&i)
		}
	}
	if i.tracer == nil {
		i.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return i
}

// Submitter decorates order submission with tracing, logging, and metrics.
type Submitter struct {
	inner ordersports.Submitter
	instrumentation
}

// NewSubmitter wraps the core submitter.
func NewSubmitter(inner ordersports.Submitter, opts ...Option) ordersports.Submitter {
	return &Submitter{inner: inner, instrumentation: newInstrumentation(opts)}
}

func (s *Submitter) Submit(ctx context.Context, draft *ordersdomain.Draft) (ordersdomain.Order, error) {
	if draft == nil {
		return s.inner.Submit(ctx, draft)
	}
	state := draft.Snapshot()
	attrs := []attribute.KeyValue{
		attribute.String("order.product_code", state.ProductCode),
		attribute.Int("order.quantity", state.Quantity),
		attribute.String("order.total", state.TotalAmount.String()),
		attribute.String("order.submission_key", state.SubmissionKey),
	}
	ctx, span := s.tracer.Start(ctx, "OrderSubmitter.Submit", trace.WithAttributes(attrs...))
	defer span.End()

	s.logInfo(ctx, "submitting order",
		slog.String("order.product_code", state.ProductCode),
		slog.Int("order.quantity", state.Quantity),
		slog.String("order.total", state.TotalAmount.String()))
	order, err := s.inner.Submit(ctx, draft)
	if err != nil {
		s.metrics.recordSubmitted(ctx, false)
		return ordersdomain.Order{}, s.handleError(ctx, span, err, "failed to submit order",
			slog.String("order.submission_key", state.SubmissionKey))
	}
	s.metrics.recordSubmitted(ctx, true)
	span.SetAttributes(attribute.String("order.id", order.ID))
	s.logInfo(ctx, "order submitted", slog.String("order.id", order.ID), slog.String("order.invoice", order.InvoiceNo))
	return order, nil
}

// Reconciler decorates the order list with tracing, logging, and metrics.
type Reconciler struct {
	inner ordersports.Reconciler
	instrumentation
}

// NewReconciler wraps the core reconciler.
func NewReconciler(inner ordersports.Reconciler, opts ...Option) ordersports.Reconciler {
	return &Reconciler{inner: inner, instrumentation: newInstrumentation(opts)}
}

func (r *Reconciler) Refresh(ctx context.Context) ([]ordersdomain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderReconciler.Refresh")
	defer span.End()

	orders, err := r.inner.Refresh(ctx)
	if err != nil {
		return nil, r.handleError(ctx, span, err, "failed to refresh orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	r.logInfo(ctx, "orders refreshed", slog.Int("orders.count", len(orders)))
	return orders, nil
}

func (r *Reconciler) Orders() []ordersdomain.Order {
	return r.inner.Orders()
}

func (r *Reconciler) Remove(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "OrderReconciler.Remove", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	r.logInfo(ctx, "deleting order", slog.String("order.id", id))
	if err := r.inner.Remove(ctx, id); err != nil {
		return r.handleError(ctx, span, err, "failed to delete order", slog.String("order.id", id))
	}
	r.metrics.recordDeleted(ctx)
	r.logInfo(ctx, "order deleted", slog.String("order.id", id))
	return nil
}

func (r *Reconciler) History(userID string) []ordersdomain.HistoryEntry {
	return r.inner.History(userID)
}

func (i *instrumentation) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if i.logger == nil {
		return
	}
	i.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (i *instrumentation) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if i.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	i.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (i *instrumentation) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	i.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	ordersSubmitted metric.Int64Counter
	ordersDeleted   metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersSubmitted, _ := m.Int64Counter("orders.submitted", metric.WithDescription("Number of order submissions"))
	ordersDeleted, _ := m.Int64Counter("orders.deleted", metric.WithDescription("Number of orders deleted"))
	return serviceMetrics{ordersSubmitted: ordersSubmitted, ordersDeleted: ordersDeleted}
}

func (m serviceMetrics) recordSubmitted(ctx context.Context, ok bool) {
	if m.ordersSubmitted != nil {
		m.ordersSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", ok)))
	}
}

func (m serviceMetrics) recordDeleted(ctx context.Context) {
	if m.ordersDeleted != nil {
		m.ordersDeleted.Add(ctx, 1)
	}
}

var (
	_ ordersports.Submitter  = (*Submitter)(nil)
	_ ordersports.Reconciler = (*Reconciler)(nil)
)
