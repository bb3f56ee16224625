package protocol

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// Message is one decoded frame.
type Message struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Decoder splits a stream into framed messages and ordinary text. Frames are
// always emitted on a line of their own, so the decoder works line by line.
type Decoder struct {
	scanner *bufio.Scanner
	text    []string
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return &Decoder{scanner: s}
}

// Next returns the next message. It returns io.EOF when the stream ends.
func (d *Decoder) Next() (Message, error) {
	for d.scanner.Scan() {
		line := d.scanner.Text()
		if msg, ok := parseLine(line); ok {
			return msg, nil
		}
		if line != "" {
			d.text = append(d.text, line)
		}
	}
	if err := d.scanner.Err(); err != nil {
		return Message{}, err
	}
	return Message{}, io.EOF
}

// Text returns the non-empty lines seen so far that were not frames.
func (d *Decoder) Text() []string {
	return d.text
}

// parseLine decodes a single framed line.
func parseLine(line string) (Message, bool) {
	rest, ok := strings.CutPrefix(line, header)
	if !ok {
		return Message{}, false
	}
	kind, payload, ok := strings.Cut(rest, delimiter)
	if !ok {
		return Message{}, false
	}
	payload, ok = strings.CutSuffix(payload, delimiter)
	if !ok || !json.Valid([]byte(payload)) {
		return Message{}, false
	}
	return Message{Kind: Kind(kind), Payload: json.RawMessage(payload)}, true
}

// DecodeAll reads every message from r.
func DecodeAll(r io.Reader) ([]Message, []string, error) {
	d := NewDecoder(r)
	var msgs []Message
	for {
		m, err := d.Next()
		if err == io.EOF {
			return msgs, d.Text(), nil
		}
		if err != nil {
			return msgs, d.Text(), err
		}
		msgs = append(msgs, m)
	}
}
