package token

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Journal is the per-request diagnostic log returned to the caller.
// Every line is mirrored to zap.
type Journal struct {
	mu     sync.Mutex
	lines  []string
	logger *zap.Logger
}

// NewJournal creates an empty journal writing through logger
func NewJournal(logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{logger: logger, lines: []string{}}
}

// Add appends a line
func (j *Journal) Add(msg string) {
	j.mu.Lock()
	j.lines = append(j.lines, msg)
	j.mu.Unlock()

	j.logger.Info(msg)
}

// Addf appends a formatted line
func (j *Journal) Addf(format string, args ...interface{}) {
	j.Add(fmt.Sprintf(format, args...))
}

// Lines returns a copy of the journal, never nil
func (j *Journal) Lines() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]string, len(j.lines))
	copy(out, j.lines)
	return out
}
