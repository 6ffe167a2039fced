package wire

import (
	"encoding/binary"
	"io"

	"github.com/alxayo/fcast-core/internal/bufpool"
	"github.com/alxayo/fcast-core/internal/errors"
)

// HeaderSize is the fixed byte length of a frame header: a little-endian
// u32 body-length-plus-one followed by the opcode byte.
const HeaderSize = 5

// MaxBodySize is the largest permitted JSON body, matching the receiver's
// historical 32000-byte frame cap minus the length field's +1 bias.
const MaxBodySize = 32000 - 1

// Header is the 5-byte frame prefix.
type Header struct {
	Size   uint32 // body length, NOT including the +1 wire bias
	Opcode Opcode
}

// Encode serializes the header, re-adding the +1 bias to Size.
func (h Header) Encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Size+1)
	buf[4] = byte(h.Opcode)
	return buf
}

// DecodeHeader parses a raw 5-byte prefix, subtracting the wire bias from
// the length field. A raw size of 0 is invalid (every encoded length is
// biased by +1) and is reported as a framing error.
func DecodeHeader(buf [HeaderSize]byte) (Header, error) {
	raw := binary.LittleEndian.Uint32(buf[0:4])
	if raw == 0 {
		return Header{}, errors.NewFramingError("decode.header", nil)
	}
	return Header{Size: raw - 1, Opcode: Opcode(buf[4])}, nil
}

// ReadFrame reads one full frame (header + body) from r, enforcing
// MaxBodySize. body is nil for opcodes that never carry a body and zero
// length was received. A non-nil body is drawn from the package-level
// buffer pool; callers are expected to return it with bufpool.Put once
// they're done decoding it.
func ReadFrame(r io.Reader) (Header, []byte, error) {
	var hb [HeaderSize]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		return Header{}, nil, err
	}
	h, err := DecodeHeader(hb)
	if err != nil {
		return Header{}, nil, err
	}
	if h.Size > MaxBodySize {
		return Header{}, nil, errors.NewConfigBoundsError("read.frame", nil)
	}
	if h.Size == 0 {
		return h, nil, nil
	}
	body := bufpool.Get(int(h.Size))
	if _, err := io.ReadFull(r, body); err != nil {
		bufpool.Put(body)
		return Header{}, nil, err
	}
	return h, body, nil
}

// WriteFrame writes a header+body frame to w. body may be nil/empty for
// no-body opcodes.
func WriteFrame(w io.Writer, op Opcode, body []byte) error {
	if len(body) > MaxBodySize {
		return errors.NewConfigBoundsError("write.frame", nil)
	}
	h := Header{Size: uint32(len(body)), Opcode: op}
	enc := h.Encode()
	if _, err := w.Write(enc[:]); err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	_, err := w.Write(body)
	return err
}
