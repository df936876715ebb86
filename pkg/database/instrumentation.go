package database

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	startKey = "carelink:query_start"
	spanKey  = "carelink:query_span"
)

// Instrumentation is a gorm plugin that times every statement into a
// histogram and wraps it in a client span.
type Instrumentation struct {
	duration *prometheus.HistogramVec
	tracer   trace.Tracer
}

func NewInstrumentation(duration *prometheus.HistogramVec) *Instrumentation {
	return &Instrumentation{
		duration: duration,
		tracer:   otel.Tracer("github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/database"),
	}
}

func (i *Instrumentation) Name() string {
	return "carelink:instrumentation"
}

func (i *Instrumentation) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op     string
		before func(name string, fn func(*gorm.DB)) error
		after  func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, h := range hooks {
		if err := h.before("carelink:before_"+h.op, i.before(h.op)); err != nil {
			return err
		}
		if err := h.after("carelink:after_"+h.op, i.after(h.op)); err != nil {
			return err
		}
	}
	return nil
}

func (i *Instrumentation) before(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx, span := i.tracer.Start(db.Statement.Context, "db."+op,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("db.system", "postgresql")),
		)
		db.Statement.Context = ctx
		db.InstanceSet(spanKey, span)
		db.InstanceSet(startKey, time.Now())
	}
}

func (i *Instrumentation) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		if v, ok := db.InstanceGet(startKey); ok {
			if start, ok := v.(time.Time); ok {
				i.duration.WithLabelValues(op, table).Observe(time.Since(start).Seconds())
			}
		}

		if v, ok := db.InstanceGet(spanKey); ok {
			if span, ok := v.(trace.Span); ok {
				span.SetAttributes(
					attribute.String("db.sql.table", table),
					attribute.Int64("db.rows_affected", db.RowsAffected),
				)
				if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
					span.RecordError(db.Error)
					span.SetStatus(codes.Error, db.Error.Error())
				}
				span.End()
			}
		}
	}
}
