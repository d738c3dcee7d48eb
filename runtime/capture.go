package runtime

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/justapithecus/supervise/metrics"
)

// MaxLineBytes is the longest line Capture buffers before splitting it.
const MaxLineBytes = 1 << 20

// Stream names used for capture metrics.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// Capture drains r line by line until EOF. Each line is written to echo
// immediately and then appended to state. Lines longer than MaxLineBytes
// are split into MaxLineBytes pieces. Capture never blocks on anything but
// r and echo.
//
// A nil echo discards the console copy.
func Capture(r io.Reader, echo io.Writer, state *RunState, stream string, collector *metrics.Collector) error {
	if echo == nil {
		echo = io.Discard
	}

	br := bufio.NewReaderSize(r, 64*1024)
	var pending []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		if len(chunk) > 0 || (err == nil && !isPrefix) {
			pending = append(pending, chunk...)
			for len(pending) >= MaxLineBytes {
				emit(echo, state, stream, collector, pending[:MaxLineBytes])
				pending = pending[MaxLineBytes:]
			}
			if !isPrefix && err == nil {
				emit(echo, state, stream, collector, pending)
				pending = pending[:0]
			}
		}
		if err != nil {
			if len(pending) > 0 {
				emit(echo, state, stream, collector, pending)
			}
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return fmt.Errorf("capture %s: %w", stream, err)
		}
	}
}

func emit(echo io.Writer, state *RunState, stream string, collector *metrics.Collector, line []byte) {
	// A closed console must not stop draining.
	_, _ = echo.Write(append(append([]byte(nil), line...), '\n'))
	state.Append(string(line))
	collector.AddLine(stream, len(line))
}
