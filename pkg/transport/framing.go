package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/xena-tools/xenamanager-go/pkg/log"
)

// Framing constants.
const (
	// LineTerminator ends every line written to the chassis.
	LineTerminator = "\r\n"

	// DefaultMaxLineSize is the default maximum line size (64 KB).
	DefaultMaxLineSize = 65536

	// MaxLogLineSize is the maximum line text to include in logs (1 KB).
	MaxLogLineSize = 1024
)

// Framing errors.
var (
	// ErrLineTooLarge indicates the line exceeds the maximum size.
	ErrLineTooLarge = errors.New("line too large")

	// ErrLineEmpty indicates an attempt to write an empty line.
	ErrLineEmpty = errors.New("line is empty")

	// ErrLineEmbeddedNewline indicates a line containing a terminator.
	ErrLineEmbeddedNewline = errors.New("line contains newline")
)

// LineWriter writes terminated lines to an underlying writer.
type LineWriter struct {
	w           io.Writer
	maxLineSize int
	mu          sync.Mutex

	// Logging support (optional)
	logger log.Logger
	connID string
}

// NewLineWriter creates a new line writer.
func NewLineWriter(w io.Writer, maxLineSize int) *LineWriter {
	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}
	return &LineWriter{w: w, maxLineSize: maxLineSize}
}

// SetLogger configures logging for this writer.
// Pass nil to disable logging.
func (lw *LineWriter) SetLogger(logger log.Logger, connID string) {
	lw.logger = logger
	lw.connID = connID
}

// WriteLine writes a line followed by CRLF.
// Thread-safe: can be called from multiple goroutines.
func (lw *LineWriter) WriteLine(line string) error {
	if strings.TrimSpace(line) == "" {
		return ErrLineEmpty
	}
	if strings.ContainsAny(line, "\r\n") {
		return ErrLineEmbeddedNewline
	}
	if len(line)+len(LineTerminator) > lw.maxLineSize {
		return fmt.Errorf("%w: %d > %d", ErrLineTooLarge, len(line), lw.maxLineSize)
	}

	lw.mu.Lock()
	defer lw.mu.Unlock()

	if _, err := io.WriteString(lw.w, line+LineTerminator); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}

	if lw.logger != nil {
		lw.logger.Log(makeLineEvent(lw.connID, line, log.DirectionOut))
	}

	return nil
}

// LineReader reads terminated lines from an underlying reader.
type LineReader struct {
	r           *bufio.Reader
	maxLineSize int
	partial     []byte

	// Logging support (optional)
	logger log.Logger
	connID string
}

// NewLineReader creates a new line reader.
func NewLineReader(r io.Reader, maxLineSize int) *LineReader {
	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}
	return &LineReader{
		r:           bufio.NewReaderSize(r, min(4096, maxLineSize)),
		maxLineSize: maxLineSize,
	}
}

// SetLogger configures logging for this reader.
// Pass nil to disable logging.
func (lr *LineReader) SetLogger(logger log.Logger, connID string) {
	lr.logger = logger
	lr.connID = connID
}

// ReadLine reads one line and strips the LF or CRLF terminator.
// Returns io.EOF when the peer closed the stream. Bytes received before a
// read error such as an expired deadline are kept, and the next call
// resumes the same line.
func (lr *LineReader) ReadLine() (string, error) {
	for {
		chunk, err := lr.r.ReadSlice('\n')
		lr.partial = append(lr.partial, chunk...)
		if len(lr.partial) > lr.maxLineSize {
			lr.partial = lr.partial[:0]
			return "", ErrLineTooLarge
		}
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err == io.EOF {
			if len(lr.partial) == 0 {
				return "", io.EOF
			}
			break
		}
		return "", fmt.Errorf("failed to read line: %w", err)
	}

	line := strings.TrimRight(string(lr.partial), "\r\n")
	lr.partial = lr.partial[:0]

	if lr.logger != nil {
		lr.logger.Log(makeLineEvent(lr.connID, line, log.DirectionIn))
	}

	return line, nil
}

// makeLineEvent creates a log event for a line.
func makeLineEvent(connID, line string, direction log.Direction) log.Event {
	text := line
	truncated := false
	if len(text) > MaxLogLineSize {
		text = text[:MaxLogLineSize]
		truncated = true
	}

	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    direction,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Line: &log.LineEvent{
			Text:      text,
			Size:      len(line) + len(LineTerminator),
			Truncated: truncated,
		},
	}
}

// Framer combines line reading and writing.
type Framer struct {
	*LineReader
	*LineWriter
}

// NewFramer creates a new framer for bidirectional communication.
func NewFramer(rw io.ReadWriter, maxLineSize int) *Framer {
	return &Framer{
		LineReader: NewLineReader(rw, maxLineSize),
		LineWriter: NewLineWriter(rw, maxLineSize),
	}
}

// SetLogger configures logging for both reader and writer.
// Pass nil to disable logging.
func (f *Framer) SetLogger(logger log.Logger, connID string) {
	f.LineReader.SetLogger(logger, connID)
	f.LineWriter.SetLogger(logger, connID)
}
