package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// DecodeError is returned when an inbound frame can't be parsed. The stream
// can't be resumed after it.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed frame: %s", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decoder reads consecutive JSON frames off a persistent stream. Frames may
// be back to back or separated by whitespace.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		dec: json.NewDecoder(bufio.NewReader(r)),
	}
}

// Decode blocks until the next frame is available. It returns io.EOF when
// the stream ends on a frame boundary.
func (d *Decoder) Decode() (*Frame, error) {
	var raw json.RawMessage
	if err := d.dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, &DecodeError{Err: err}
		}
		if _, ok := err.(*json.SyntaxError); ok {
			return nil, &DecodeError{Err: err}
		}
		// Transport error
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes a single frame.
func Parse(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &DecodeError{Err: err}
	}
	f.Raw = append(json.RawMessage(nil), data...)
	logger.Printf("Decoded %s frame: %s", f.Type, data)
	return &f, nil
}

// Encode serializes a request as a single JSON object with no trailing
// delimiter.
func Encode(r Request) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Encoder writes each request with exactly one Write call.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) Encode(r Request) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}
	_, err = e.w.Write(data)
	return err
}
