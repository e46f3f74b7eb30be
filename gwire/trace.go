package gwire

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/atomic"
)

// CountingReader counts the bytes read through it.
type CountingReader struct {
	r     io.Reader
	count atomic.Uint64
}

func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

func (c *CountingReader) Count() uint64 {
	return c.count.Load()
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.count.Add(uint64(n))
	return n, err
}

// CountingWriter counts the bytes written through it.
type CountingWriter struct {
	w     io.Writer
	count atomic.Uint64
}

func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{w: w}
}

func (c *CountingWriter) Count() uint64 {
	return c.count.Load()
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.count.Add(uint64(n))
	return n, err
}

// TraceEntry describes one node of a decoded stream.
type TraceEntry struct {
	Offset uint64
	Depth  int
	Tag    byte
	Detail string
}

func (t TraceEntry) String() string {
	line := fmt.Sprintf("%08x %s%s", t.Offset, strings.Repeat("  ", t.Depth), TagName(t.Tag))
	if t.Detail != "" {
		line += " " + t.Detail
	}
	return line
}

type tracer struct {
	cr      *CountingReader
	entries []TraceEntry
}

func (t *tracer) offset() uint64 {
	return t.cr.Count()
}

func (s *Session) offset() uint64 {
	if s.trace == nil {
		return 0
	}
	return s.trace.offset()
}

func (s *Session) record(offset uint64, tag byte, detail string) {
	s.finish(s.begin(offset, tag), detail)
}

// begin adds an entry whose detail is filled in by finish, so a manifest
// is listed ahead of the manifests nested in it.
func (s *Session) begin(offset uint64, tag byte) int {
	if s.trace == nil {
		return -1
	}
	s.trace.entries = append(s.trace.entries, TraceEntry{
		Offset: offset,
		Depth:  s.depth,
		Tag:    tag,
	})
	return len(s.trace.entries) - 1
}

func (s *Session) finish(entry int, detail string) {
	if entry < 0 {
		return
	}
	s.trace.entries[entry].Detail = detail
}

// Trace decodes one graph from r and returns a description of every node
// in it. On error the entries read so far are returned with it.
func (e *Engine) Trace(r io.Reader) ([]TraceEntry, error) {
	cr := NewCountingReader(r)
	s := newSession(e)
	s.trace = &tracer{cr: cr}
	_, err := s.ReadObject(cr)
	return s.trace.entries, err
}

// Trace describes a stream using the default engine.
func Trace(r io.Reader) ([]TraceEntry, error) {
	return defaultEngine.Trace(r)
}
