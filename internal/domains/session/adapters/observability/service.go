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

	sessiondomain "github.com/Apurer/storefront-client/internal/domains/session/domain"
	sessionports "github.com/Apurer/storefront-client/internal/domains/session/ports"
)

const tracerName = "github.com/Apurer/storefront-client/internal/domains/session/adapters/observability/service"

// Service decorates the session service with tracing, logging, and metrics.
// Passwords and tokens are never logged.
type Service struct {
	inner   sessionports.Service
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

// New wraps the core session service.
func New(inner sessionports.Service, opts ...Option) sessionports.Service {
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

func (s *Service) Login(ctx context.Context, email, password string) (sessiondomain.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.Login")
	defer span.End()

	s.logInfo(ctx, "logging in", slog.String("user.email", email))
	identity, err := s.inner.Login(ctx, email, password)
	if err != nil {
		s.metrics.recordLogin(ctx, false)
		return sessiondomain.Identity{}, s.handleError(ctx, span, err, "login failed", slog.String("user.email", email))
	}
	s.metrics.recordLogin(ctx, true)
	span.SetAttributes(attribute.String("user.id", identity.UserID))
	s.logInfo(ctx, "logged in", slog.String("user.id", identity.UserID))
	return identity, nil
}

func (s *Service) Register(ctx context.Context, reg sessiondomain.Registration) error {
	ctx, span := s.tracer.Start(ctx, "SessionService.Register")
	defer span.End()

	s.logInfo(ctx, "registering account", slog.String("user.email", reg.Email))
	if err := s.inner.Register(ctx, reg); err != nil {
		return s.handleError(ctx, span, err, "registration failed", slog.String("user.email", reg.Email))
	}
	s.logInfo(ctx, "account registered", slog.String("user.email", reg.Email))
	return nil
}

func (s *Service) Logout(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "SessionService.Logout")
	defer span.End()

	if err := s.inner.Logout(ctx); err != nil {
		return s.handleError(ctx, span, err, "logout failed")
	}
	s.logInfo(ctx, "logged out")
	return nil
}

func (s *Service) WhoAmI(ctx context.Context) (sessiondomain.Identity, error) {
	return s.inner.WhoAmI(ctx)
}

func (s *Service) RequireIdentity(ctx context.Context) (sessiondomain.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.RequireIdentity")
	defer span.End()

	identity, err := s.inner.RequireIdentity(ctx)
	if err != nil {
		s.logWarn(ctx, "no identity, credential cleared", slog.String("error", err.Error()))
		span.SetStatus(codes.Error, err.Error())
		return sessiondomain.Identity{}, err
	}
	span.SetAttributes(attribute.String("user.id", identity.UserID))
	return identity, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logWarn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

type serviceMetrics struct {
	logins metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	logins, _ := m.Int64Counter("session.logins", metric.WithDescription("Number of login attempts"))
	return serviceMetrics{logins: logins}
}

func (m serviceMetrics) recordLogin(ctx context.Context, ok bool) {
	if m.logins != nil {
		m.logins.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", ok)))
	}
}

var _ sessionports.Service = (*Service)(nil)
