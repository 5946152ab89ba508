package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type queryStartKey struct{}

type queryStart struct {
	sql string
	at  time.Time
}

// slowQueryTracer warns about queries slower than threshold.
type slowQueryTracer struct {
	threshold time.Duration
	logger    *zerolog.Logger
}

func (t *slowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{sql: data.SQL, at: time.Now()})
}

func (t *slowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}

	if elapsed := time.Since(start.at); elapsed >= t.threshold {
		t.logger.Warn().
			Dur("duration", elapsed).
			Dur("threshold", t.threshold).
			Str("sql", start.sql).
			AnErr("query_error", data.Err).
			Msg("slow query")
	}
}
