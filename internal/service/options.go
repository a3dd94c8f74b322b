package service

import (
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cardocs/internal/logging"
	"cardocs/internal/metrics"
)

var tracer = otel.Tracer("cardocs/internal/service")

const (
	defaultPresignExpiry   = 15 * time.Minute
	compensationTimeout    = 10 * time.Second
	defaultUploadMediaType = "application/octet-stream"
)

type options struct {
	logger        *logrus.Logger
	metrics       *metrics.Recorder
	now           func() time.Time
	presignExpiry time.Duration
}

// Option configures a service.
type Option func(*options)

// WithLogger sets the logger used for partial failures and compensations.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the domain metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock overrides the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithPresignExpiry sets how long download links stay valid.
func WithPresignExpiry(d time.Duration) Option {
	return func(o *options) { o.presignExpiry = d }
}

func newOptions(opts []Option) options {
	o := options{
		logger:        logging.Discard(),
		now:           time.Now,
		presignExpiry: defaultPresignExpiry,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
