// Package joblog provides the bounded per-job log buffer. Each job owns
// exactly one Buffer; writes go through the job's lock, so the Buffer itself
// is not synchronized.
package joblog

import (
	"fmt"
	"unicode/utf8"
)

const (
	// blockSize is the fixed allocation per job. Output beyond this is
	// discarded, keeping memory bounded regardless of payload verbosity.
	blockSize = 64 * 1024

	// truncationMarker is appended exactly once when the buffer overflows.
	truncationMarker = "...[ TRUNCATED ]...\n"

	// availableSize reserves room for the truncation marker so it always fits.
	availableSize = blockSize - len(truncationMarker)

	nonUTF8Placeholder = "<non-utf8 log data>"
)

// Level is the severity of a log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

var levelNames = []string{"DEBUG", "INFO", "WARNING", "ERROR"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// Buffer is an append-only, fixed-capacity log capture. Once an append would
// exceed the available capacity the truncation marker is written and the
// buffer is permanently full; later appends are silent no-ops.
type Buffer struct {
	data []byte
	full bool
}

// New creates an empty Buffer.
func New() *Buffer {
	return &Buffer{data: make([]byte, 0, blockSize)}
}

// Append writes one "[LEVEL] msg\n" line, or nothing once full.
func (b *Buffer) Append(level Level, msg string) {
	if b.full {
		return
	}
	// Line length is known up front: "[" + level + "] " + msg + "\n".
	need := len(b.data) + 3 + len(level.String()) + len(msg) + 1
	if need > availableSize {
		b.data = append(b.data, truncationMarker...)
		b.full = true
		return
	}
	b.data = append(b.data, '[')
	b.data = append(b.data, level.String()...)
	b.data = append(b.data, ']', ' ')
	b.data = append(b.data, msg...)
	b.data = append(b.data, '\n')
}

// Appendf is Append with fmt formatting.
func (b *Buffer) Appendf(level Level, format string, args ...any) {
	if b.full {
		return
	}
	b.Append(level, fmt.Sprintf(format, args...))
}

// Render returns everything written so far, or a placeholder if the bytes
// are not valid UTF-8.
func (b *Buffer) Render() string {
	if !utf8.Valid(b.data) {
		return nonUTF8Placeholder
	}
	return string(b.data)
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int { return len(b.data) }

// Full reports whether the buffer has overflowed and stopped accepting lines.
func (b *Buffer) Full() bool { return b.full }
