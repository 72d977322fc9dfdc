package sarvam

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// LineDecoder splits a byte stream into lines without assuming that reads
// end on line boundaries. A trailing partial line is held until the next
// Feed or Flush.
type LineDecoder struct {
	buf []byte
}

// Feed appends chunk and returns every line it completed, without the
// terminating "\n" or "\r\n".
func (d *LineDecoder) Feed(chunk []byte) []string {
	d.buf = append(d.buf, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(bytes.TrimSuffix(d.buf[:i], []byte{'\r'})))
		d.buf = d.buf[i+1:]
	}

	// Reclaim the consumed prefix once everything is drained.
	if len(d.buf) == 0 {
		d.buf = d.buf[:0:0]
	}
	return lines
}

// Flush returns whatever partial line is left at end of stream.
func (d *LineDecoder) Flush() (string, bool) {
	if len(d.buf) == 0 {
		return "", false
	}
	line := string(bytes.TrimSuffix(d.buf, []byte{'\r'}))
	d.buf = nil
	return line, true
}

// Frame is the useful part of one SSE line.
type Frame struct {
	Delta string
	Done  bool
}

// ParseFrame extracts the content delta from a "data: " line. ok is false for
// lines that carry nothing: other SSE fields, heartbeats, malformed JSON, or
// chunks without a choices[0].delta.content string.
func ParseFrame(line string) (Frame, bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return Frame{}, false
	}

	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == doneSentinel {
		return Frame{Done: true}, true
	}

	if !gjson.Valid(payload) {
		return Frame{}, false
	}
	content := gjson.Get(payload, "choices.0.delta.content")
	if content.Type != gjson.String || content.Str == "" {
		return Frame{}, false
	}
	return Frame{Delta: content.Str}, true
}

// StreamResult summarizes one relayed stream.
type StreamResult struct {
	Fragments int
	Bytes     int
	Skipped   int  // data lines that carried no usable delta
	Done      bool // the [DONE] sentinel was received
}

// StreamDeltas reads an upstream SSE body and sends each non-empty content
// delta on out as soon as its line is complete. It returns when the sentinel
// arrives, the body ends, or ctx is cancelled. out is never closed here.
//
// A nil error means the stream ended cleanly (sentinel or EOF).
func StreamDeltas(ctx context.Context, body io.Reader, out chan<- string) (StreamResult, error) {
	var (
		res     StreamResult
		decoder LineDecoder
		buf     = make([]byte, 4096)
	)

	// handle returns false once the stream must stop.
	handle := func(line string) (bool, error) {
		frame, ok := ParseFrame(line)
		if !ok {
			if strings.HasPrefix(line, dataPrefix) {
				res.Skipped++
			}
			return true, nil
		}
		if frame.Done {
			res.Done = true
			return false, nil
		}
		select {
		case out <- frame.Delta:
			res.Fragments++
			res.Bytes += len(frame.Delta)
			return true, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			for _, line := range decoder.Feed(buf[:n]) {
				cont, err := handle(line)
				if err != nil || !cont {
					return res, err
				}
			}
		}

		if readErr != nil {
			// Reads fail once ctx is cancelled; report the cancellation instead.
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if !errors.Is(readErr, io.EOF) {
				return res, readErr
			}
			if line, ok := decoder.Flush(); ok {
				if _, err := handle(line); err != nil {
					return res, err
				}
			}
			return res, nil
		}
	}
}
