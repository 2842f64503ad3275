package log

import (
	"fmt"
	"os"
	"sync"
)

// RotatedSuffix is appended to the path of a rotated protocol log.
const RotatedSuffix = ".1"

// FileLogger appends protocol events to a CBOR file, one record per event.
// Every record is written with a single write call, so concurrent
// connections never interleave partial records.
//
// With a size limit, the file is renamed to path+RotatedSuffix once the
// next record would grow it past the limit, replacing an earlier rotation.
type FileLogger struct {
	path    string
	maxSize int64

	mu      sync.Mutex
	file    *os.File
	size    int64
	dropped int
	closed  bool
}

// FileLoggerOption configures a FileLogger.
type FileLoggerOption func(*FileLogger)

// WithMaxSize sets the size limit in bytes. Zero disables rotation.
func WithMaxSize(n int64) FileLoggerOption {
	return func(l *FileLogger) {
		l.maxSize = n
	}
}

// NewFileLogger opens path for appending, creating it with mode 0644.
func NewFileLogger(path string, opts ...FileLoggerOption) (*FileLogger, error) {
	l := &FileLogger{path: path}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.open(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLogger) open() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open protocol log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("open protocol log: %w", err)
	}
	l.file = f
	l.size = info.Size()
	return nil
}

// Log appends the event. Events that cannot be encoded or written are
// counted by Dropped; the connection is never disturbed.
func (l *FileLogger) Log(event Event) {
	data, encErr := EncodeEvent(event)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if encErr != nil {
		l.dropped++
		return
	}
	if l.maxSize > 0 && l.size > 0 && l.size+int64(len(data)) > l.maxSize {
		if err := l.rotate(); err != nil && l.file == nil {
			l.dropped++
			return
		}
	}

	n, err := l.file.Write(data)
	l.size += int64(n)
	if err != nil {
		l.dropped++
	}
}

// rotate moves the current file aside and opens a fresh one. l.file is nil
// only when the fresh file could not be opened.
func (l *FileLogger) rotate() error {
	_ = l.file.Close()
	l.file = nil
	renameErr := os.Rename(l.path, l.path+RotatedSuffix)
	if err := l.open(); err != nil {
		return err
	}
	return renameErr
}

// Dropped returns the number of events that were not written.
func (l *FileLogger) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close closes the file. Later calls to Log and Close do nothing.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

var _ Logger = (*FileLogger)(nil)
