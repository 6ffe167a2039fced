package wire

import (
	"bytes"
	"strings"
	"testing"
)

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		h    Header
	}{
		{"no body", Header{Size: 0, Opcode: OpPing}},
		{"small body", Header{Size: 12, Opcode: OpPlay}},
		{"max body", Header{Size: MaxBodySize, Opcode: OpPlaybackUpdate}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			enc := tc.h.Encode()
			got, err := DecodeHeader(enc)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tc.h {
				t.Fatalf("round trip mismatch: got %+v want %+v", got, tc.h)
			}
		})
	}
}

func TestDecodeHeaderRejectsZeroLengthField(t *testing.T) {
	// A raw 0 length field is impossible from Encode (it always adds the
	// +1 bias) and indicates a corrupt/adversarial frame.
	var buf [HeaderSize]byte
	buf[4] = byte(OpPing)
	if _, err := DecodeHeader(buf); err == nil {
		t.Fatalf("expected framing error for zero length field")
	}
}

func TestReadFrameRoundTrip(t *testing.T) {
	var out bytes.Buffer
	body := []byte(`{"version":3}`)
	if err := WriteFrame(&out, OpVersion, body); err != nil {
		t.Fatalf("write: %v", err)
	}
	h, gotBody, err := ReadFrame(&out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if h.Opcode != OpVersion || h.Size != uint32(len(body)) {
		t.Fatalf("unexpected header: %+v", h)
	}
	if !bytes.Equal(gotBody, body) {
		t.Fatalf("body mismatch: got %q want %q", gotBody, body)
	}
}

func TestReadFrameNoBody(t *testing.T) {
	var out bytes.Buffer
	if err := WriteFrame(&out, OpPing, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	h, body, err := ReadFrame(&out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if h.Opcode != OpPing || h.Size != 0 || body != nil {
		t.Fatalf("unexpected frame: header=%+v body=%v", h, body)
	}
}

func TestWriteFrameRejectsOversizedBody(t *testing.T) {
	var out bytes.Buffer
	body := bytes.Repeat([]byte{'x'}, MaxBodySize+1)
	err := WriteFrame(&out, OpPlay, body)
	if err == nil {
		t.Fatalf("expected error for oversized body")
	}
	if !strings.Contains(err.Error(), "config bounds") {
		t.Fatalf("expected config bounds error, got %v", err)
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var out bytes.Buffer
	h := Header{Size: MaxBodySize + 1, Opcode: OpPlay}
	enc := h.Encode()
	out.Write(enc[:])
	_, _, err := ReadFrame(&out)
	if err == nil {
		t.Fatalf("expected error for oversized declared length")
	}
}
