package process

import (
	"io"
	"strings"
	"sync"

	"github.com/arumata/terrasup/internal/usecase"
)

// Collector reads a server's merged output stream in the background and
// keeps every line in arrival order. Readers take snapshots; nothing is
// pushed to them.
type Collector struct {
	mu    sync.Mutex
	lines []string
	done  chan struct{}
}

// NewCollector starts collecting lines from r until end of stream. Lines are
// framed on '\n' only, with one trailing '\r' removed. If r is
// an io.Closer it is closed once the stream ends.
func NewCollector(r io.Reader) *Collector {
	c := &Collector{done: make(chan struct{})}
	go c.run(r)
	return c
}

func (c *Collector) run(r io.Reader) {
	defer close(c.done)
	if closer, ok := r.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}
	for line := range usecase.ReadLines(r) {
		c.append(strings.TrimSuffix(line, "\r"))
	}
}

func (c *Collector) append(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

// Output returns a copy of all lines, or of the last maxLines lines when
// 0 < maxLines < Len().
func (c *Collector) Output(maxLines int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := 0
	if maxLines > 0 && maxLines < len(c.lines) {
		start = len(c.lines) - maxLines
	}
	out := make([]string, len(c.lines)-start)
	copy(out, c.lines[start:])
	return out
}

// Since returns a copy of the lines after the first offset lines.
func (c *Collector) Since(offset int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(c.lines) {
		return nil
	}
	out := make([]string, len(c.lines)-offset)
	copy(out, c.lines[offset:])
	return out
}

// Len returns the number of collected lines.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Done is closed when the stream has ended.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

// Finished reports whether the stream has ended.
func (c *Collector) Finished() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
