// Package protocol implements the Framecast wire protocol: a typed binary
// envelope transmitted inside length-prefixed frames over a byte stream.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Kind is a message kind tag. The set of kinds is closed: frames carrying
// any other tag are rejected on decode.
type Kind uint8

const (
	KindText     Kind = 0
	KindEvent    Kind = 1
	KindSnapshot Kind = 2
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k <= KindSnapshot
}

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindEvent:
		return "event"
	case KindSnapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

var (
	// ErrMalformedFrame is returned by Decode for structurally invalid
	// envelopes: truncated header, unknown kind tag, or a declared body
	// length exceeding the buffer.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrFrameTooLarge is returned by ReadFrame when a peer declares a
	// frame larger than the configured limit.
	ErrFrameTooLarge = errors.New("frame size limit exceeded")
)

// envelope layout: kind (1) | sender (1) | body length (4, BE) | body.
const envelopeHeaderLen = 6

// outer frame layout on stream transports: total length (4, BE) | envelope.
const outerHeaderLen = 4

// Message is a single relay message. Values are treated as immutable after
// construction: sender attribution produces a copy via WithSender, never an
// in-place write. Payload bytes are opaque to the relay.
type Message struct {
	Kind    Kind
	Sender  uint8
	Payload []byte
}

// WithSender returns a copy of m carrying the given sender id. The relay
// uses it to stamp every inbound message with the server-assigned id of
// the originating session, discarding whatever the client reported.
func (m Message) WithSender(id uint8) Message {
	return Message{Kind: m.Kind, Sender: id, Payload: m.Payload}
}

// Encode serializes m into an envelope buffer. It never fails for a
// well-formed Message (payload length representable in 32 bits).
func Encode(m Message) []byte {
	buf := make([]byte, envelopeHeaderLen+len(m.Payload))
	buf[0] = byte(m.Kind)
	buf[1] = m.Sender
	binary.BigEndian.PutUint32(buf[2:6], uint32(len(m.Payload)))
	copy(buf[envelopeHeaderLen:], m.Payload)
	return buf
}

// Decode parses a complete envelope buffer into a Message. The buffer must
// already be length-delimited by the caller (see ReadFrame): Decode never
// deals with partial reads. The returned Message aliases buf.
func Decode(buf []byte) (Message, error) {
	if len(buf) < envelopeHeaderLen {
		return Message{}, fmt.Errorf("%w: envelope truncated at %d bytes", ErrMalformedFrame, len(buf))
	}
	kind := Kind(buf[0])
	if !kind.Valid() {
		return Message{}, fmt.Errorf("%w: unknown kind tag %d", ErrMalformedFrame, buf[0])
	}
	bodyLen := binary.BigEndian.Uint32(buf[2:6])
	if uint64(bodyLen) > uint64(len(buf)-envelopeHeaderLen) {
		return Message{}, fmt.Errorf("%w: declared body length %d exceeds remaining %d bytes", ErrMalformedFrame, bodyLen, len(buf)-envelopeHeaderLen)
	}
	return Message{
		Kind:    kind,
		Sender:  buf[1],
		Payload: buf[envelopeHeaderLen : envelopeHeaderLen+int(bodyLen)],
	}, nil
}

// ReadFrame reads one outer frame from r: a 4-byte big-endian total length
// followed by that many envelope bytes. A clean EOF on the length prefix
// boundary surfaces as io.EOF (orderly peer close); EOF anywhere else
// surfaces as io.ErrUnexpectedEOF so that a partial frame is never handed
// to Decode. When limit is non-zero, frames declaring more than limit
// bytes fail with ErrFrameTooLarge before any body bytes are read.
func ReadFrame(r io.Reader, limit uint32) ([]byte, error) {
	var hdr [outerHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	frameLen := binary.BigEndian.Uint32(hdr[:])
	if limit > 0 && frameLen > limit {
		return nil, fmt.Errorf("%w: declared %d bytes, limit %d", ErrFrameTooLarge, frameLen, limit)
	}
	buf := make([]byte, frameLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}

// WriteFrame writes the envelope to w prefixed with its 4-byte big-endian
// length. Prefix and envelope go out in a single Write call so concurrent
// writers serialized by a mutex can not interleave partial frames.
func WriteFrame(w io.Writer, envelope []byte) error {
	buf := make([]byte, outerHeaderLen+len(envelope))
	binary.BigEndian.PutUint32(buf[:outerHeaderLen], uint32(len(envelope)))
	copy(buf[outerHeaderLen:], envelope)
	_, err := w.Write(buf)
	return err
}

// FrameSize returns the on-wire size of an envelope sent through
// WriteFrame, including the outer length prefix.
func FrameSize(envelope []byte) int {
	return outerHeaderLen + len(envelope)
}
