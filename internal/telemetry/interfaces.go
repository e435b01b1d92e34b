package telemetry

import (
	"log"
	"sort"
	"sync"
)

// Logger exposes the logging capabilities required by server components.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger adapts a standard library logger to the Logger interface.
func WrapLogger(logger *log.Logger) Logger {
	return &loggerAdapter{logger: logger}
}

type loggerAdapter struct {
	logger *log.Logger
}

func (l *loggerAdapter) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf(format, args...)
}

// Counters is a concurrency-safe set of named monotonic counters surfaced by
// the diagnostics endpoint.
type Counters struct {
	mu     sync.RWMutex
	values map[string]uint64
}

func NewCounters() *Counters {
	return &Counters{values: make(map[string]uint64)}
}

func (c *Counters) Add(key string, delta uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.values[key] += delta
	c.mu.Unlock()
}

func (c *Counters) Store(key string, value uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
}

// Snapshot copies the counters into a plain map with stable key order for
// callers that iterate.
func (c *Counters) Snapshot() map[string]uint64 {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]uint64, len(keys))
	for _, k := range keys {
		out[k] = c.values[k]
	}
	return out
}
