package numerator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// MockGenerator is a test implementation of Generator that hands out
// deterministic numbers without a database.
type MockGenerator struct {
	NextNumberFunc func(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	seq atomic.Int64
}

// NextNumber implements Generator.
func (m *MockGenerator) NextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error) {
	if m.NextNumberFunc != nil {
		return m.NextNumberFunc(ctx, cfg, opts, period)
	}
	n := m.seq.Add(1)
	return fmt.Sprintf("%s-%d-%06d", cfg.Prefix, period.Year(), n), nil
}

// SetNextNumber implements Generator.
func (m *MockGenerator) SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error {
	m.seq.Store(value - 1)
	return nil
}

var _ Generator = (*MockGenerator)(nil)
