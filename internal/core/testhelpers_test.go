package core

import (
	"context"
	"os"
	"sync"
	"time"

	"usercore/internal/infra/persistence/memory"
	"usercore/pkg/domain"
)

type logEntry struct {
	level   string
	msg     string
	keyvals []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, msg string, keyvals []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, keyvals: keyvals})
}

func (l *recordingLogger) Debug(msg string, keyvals ...any) { l.record("debug", msg, keyvals) }
func (l *recordingLogger) Info(msg string, keyvals ...any)  { l.record("info", msg, keyvals) }
func (l *recordingLogger) Warn(msg string, keyvals ...any)  { l.record("warn", msg, keyvals) }
func (l *recordingLogger) Error(msg string, keyvals ...any) { l.record("error", msg, keyvals) }

func (l *recordingLogger) byLevel(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

type observation struct {
	operation string
	success   bool
	duration  time.Duration
}

type recordingMetrics struct {
	mu  sync.Mutex
	obs []observation
}

func (m *recordingMetrics) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs = append(m.obs, observation{operation: operation, success: success, duration: duration})
}

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Unix(0, 0)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}

func writeFile(path string) error {
	return os.WriteFile(path, []byte("x"), 0o600)
}

func newTrackedMemoryContext(users []domain.User) *memory.Context {
	return memory.NewContextWithUsers(NewDefaultRulesEngine(), users)
}
