package log

import (
	"fmt"
	"os"
	"sync"
)

// DefaultAgent is recorded in the header of files created by FileLogger.
const DefaultAgent = "grass-node"

// FileLogger appends session events to a capture file.
// It is safe for concurrent use.
type FileLogger struct {
	mu      sync.Mutex
	file    *os.File
	enc     *Encoder
	agent   string
	pending bool // header still owed
	closed  bool
	dropped uint64
}

// NewFileLogger opens path for appending, creating it with mode 0644.
// A header is written before the first event when the file is empty.
func NewFileLogger(path string) (*FileLogger, error) {
	return NewFileLoggerWithAgent(path, DefaultAgent)
}

// NewFileLoggerWithAgent is NewFileLogger with the header's Agent set.
func NewFileLoggerWithAgent(path, agent string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &FileLogger{
		file:    f,
		enc:     NewEncoder(f),
		agent:   agent,
		pending: info.Size() == 0,
	}, nil
}

// Log appends event. Write failures are counted by Dropped, not returned.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if l.pending {
		if err := l.enc.WriteHeader(NewHeader(l.agent)); err != nil {
			l.dropped++
			return
		}
		l.pending = false
	}
	if err := l.enc.Encode(event); err != nil {
		l.dropped++
	}
}

// Dropped returns the number of events that could not be written.
func (l *FileLogger) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close closes the file. Later Log calls are ignored; repeated Close calls
// return nil.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

var _ Logger = (*FileLogger)(nil)
