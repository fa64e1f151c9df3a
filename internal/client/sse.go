package client

import (
	"bytes"
	"encoding/json"

	"aipm/internal/types"
)

const dataPrefix = "data:"

// Decoder turns an SSE byte stream into stream events. Chunks may split
// frames at arbitrary byte boundaries; the decoder buffers the trailing
// incomplete fragment between calls. Malformed frames are dropped so one
// corrupt frame cannot abort an otherwise good stream.
type Decoder struct {
	buf []byte
}

// Feed appends a chunk and returns every event completed by it.
func (d *Decoder) Feed(chunk []byte) []types.StreamEvent {
	if len(chunk) > 0 {
		d.buf = append(d.buf, chunk...)
	}
	var events []types.StreamEvent
	for {
		sep, width := frameSeparator(d.buf)
		if sep < 0 {
			break
		}
		frame := d.buf[:sep]
		d.buf = d.buf[sep+width:]
		if event, ok := decodeFrame(frame); ok {
			events = append(events, event)
		}
	}
	return events
}

// Close makes one final attempt to parse whatever remains buffered. Streams
// that end cleanly leave nothing behind; abrupt closes may leave a complete
// frame missing only its trailing separator.
func (d *Decoder) Close() (types.StreamEvent, bool) {
	frame := d.buf
	d.buf = nil
	return decodeFrame(frame)
}

func frameSeparator(buf []byte) (index, width int) {
	lf := bytes.Index(buf, []byte("\n\n"))
	crlf := bytes.Index(buf, []byte("\r\n\r\n"))
	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return crlf, 4
	default:
		return lf, 2
	}
}

func decodeFrame(frame []byte) (types.StreamEvent, bool) {
	var data [][]byte
	for _, line := range bytes.Split(frame, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if !bytes.HasPrefix(line, []byte(dataPrefix)) {
			continue
		}
		data = append(data, bytes.TrimSpace(line[len(dataPrefix):]))
	}
	if len(data) == 0 {
		return types.StreamEvent{}, false
	}
	var event types.StreamEvent
	if err := json.Unmarshal(bytes.Join(data, []byte("\n")), &event); err != nil {
		return types.StreamEvent{}, false
	}
	if event.Type == "" {
		return types.StreamEvent{}, false
	}
	return event, true
}
