package usecase

import (
	"io"
	"math"
	"time"

	"github.com/mitchellh/go-linereader"
)

// lineIdleFlush disables linereader's idle flush. A line is only complete
// at '\n' or at end of stream; a slow writer must not split it.
const lineIdleFlush = time.Duration(math.MaxInt64)

// ReadLines delivers the '\n'-terminated lines of r without the newline.
// An unterminated tail is delivered at end of stream. The channel closes
// when r is exhausted or fails.
func ReadLines(r io.Reader) <-chan string {
	lr := &linereader.Reader{
		Reader:  r,
		Timeout: lineIdleFlush,
		Ch:      make(chan string),
	}
	go lr.Run()
	return lr.Ch
}
