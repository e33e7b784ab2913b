// Package materials keeps an append-only audit trail of calculation results.
package materials

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jengacalc/jengacalc/internal/filex"
	"github.com/jengacalc/jengacalc/internal/logging"
)

// Entry is one rendered calculation.
type Entry struct {
	Calculator string
	Email      string
	Record     string
	CreatedAt  time.Time
}

// Sink stores entries.
type Sink interface {
	Append(ctx context.Context, e Entry) error
}

// FileSink appends entries to a local text file.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink creates the parent directory of path if needed.
func NewFileSink(path string) (*FileSink, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}
	return &FileSink{path: path}, nil
}

func (s *FileSink) Append(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filex.AppendFile(s.path, []byte(e.Record))
}

// Log writes entries to a sink. A failing sink never fails the calculation
// that produced the entry; the error is only logged.
type Log struct {
	sink   Sink
	logger logging.Logger
}

func NewLog(sink Sink, logger logging.Logger) *Log {
	return &Log{sink: sink, logger: logger.With("module", "materials")}
}

// Record appends a calculation result. It never returns an error.
func (l *Log) Record(ctx context.Context, calculator, email, record string, at time.Time) {
	if l == nil || l.sink == nil {
		return
	}
	e := Entry{Calculator: calculator, Email: email, Record: record, CreatedAt: at}
	if err := l.sink.Append(ctx, e); err != nil {
		l.logger.Error(ctx, "materials log write failed", "calculator", calculator, "error", err)
		return
	}
	l.logger.Debug(ctx, "materials log written", "calculator", calculator)
}

// objectKey lays S3 objects out by day: materials/YYYY/MM/DD/<calc>-<id>.txt.
func objectKey(e Entry, id string) string {
	d := e.CreatedAt.UTC()
	return fmt.Sprintf("materials/%04d/%02d/%02d/%s-%s.txt", d.Year(), d.Month(), d.Day(), strings.ToLower(e.Calculator), id)
}
