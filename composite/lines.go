package composite

import (
	"bufio"
	"io"
	"strings"
)

// LineReader iterates lazily over the lines of an open stream. It is a
// single forward pass tied to one backend's stream: once exhausted it
// stays exhausted, and re-reading requires a new ReadLines call.
//
// Usage follows bufio.Scanner:
//
//	lines, err := cfs.ReadLines("s3://bucket/logs/part-0000")
//	if err != nil { ... }
//	defer lines.Close()
//	for lines.Scan() {
//	    process(lines.Text())
//	}
//	if err := lines.Err(); err != nil { ... }
//
// Unlike bufio.Scanner there is no token size limit; arbitrarily long
// lines are returned whole.
type LineReader struct {
	rc   io.ReadCloser
	br   *bufio.Reader
	line []byte
	err  error
	done bool
}

// NewLineReader wraps an open stream in a LineReader. The reader takes
// ownership of rc; Close closes it.
func NewLineReader(rc io.ReadCloser) *LineReader {
	return &LineReader{rc: rc, br: bufio.NewReader(rc)}
}

// Scan advances to the next line. It returns false at end of stream or
// on a read error; Err distinguishes the two. A final line without a
// trailing newline is still returned.
func (r *LineReader) Scan() bool {
	if r.done {
		return false
	}

	line, err := r.br.ReadBytes('\n')
	if err != nil {
		r.done = true
		if err != io.EOF {
			r.err = err
		}
	}
	if len(line) == 0 {
		return false
	}
	r.line = line
	return true
}

// Bytes returns the current line including its trailing newline, if any.
// The slice is valid until the next call to Scan.
func (r *LineReader) Bytes() []byte { return r.line }

// Text returns the current line with the trailing newline (and any
// carriage return) removed.
func (r *LineReader) Text() string {
	return strings.TrimRight(string(r.line), "\r\n")
}

// Err returns the first error encountered mid-stream, excluding io.EOF.
func (r *LineReader) Err() error { return r.err }

// Close releases the underlying stream.
func (r *LineReader) Close() error { return r.rc.Close() }
