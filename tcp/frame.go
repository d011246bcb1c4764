package tcp

import (
	"encoding/binary"
	"errors"
)

// sizeHeaderTCP is the fixed portion of the TCP header (RFC 9293 §3.1),
// excluding options.
const sizeHeaderTCP = 20

var (
	errShortFrame  = errors.New("tcp: short frame for header")
	errBadOffset   = errors.New("tcp: data offset less than 5")
	errShortBuffer = errors.New("tcp: buffer too short for data offset")
)

// Frame is an allocation free view over a TCP header and its payload,
// backed by a caller-owned buffer. It mirrors the field layout of RFC 9293
// §3.1 exactly; no copy is made on construction.
type Frame struct {
	buf []byte
}

// NewFrame returns a Frame over buf, which must hold at least the fixed
// 20 byte header.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeaderTCP {
		return Frame{}, errShortFrame
	}
	return Frame{buf: buf}, nil
}

// RawData returns the frame's backing buffer, trimmed to HeaderLength()+payload.
func (f Frame) RawData() []byte { return f.buf }

func (f Frame) SourcePort() uint16      { return binary.BigEndian.Uint16(f.buf[0:2]) }
func (f Frame) SetSourcePort(p uint16)  { binary.BigEndian.PutUint16(f.buf[0:2], p) }
func (f Frame) DestinationPort() uint16 { return binary.BigEndian.Uint16(f.buf[2:4]) }
func (f Frame) SetDestinationPort(p uint16) {
	binary.BigEndian.PutUint16(f.buf[2:4], p)
}

func (f Frame) Seq() Value     { return Value(binary.BigEndian.Uint32(f.buf[4:8])) }
func (f Frame) SetSeq(v Value) { binary.BigEndian.PutUint32(f.buf[4:8], uint32(v)) }
func (f Frame) Ack() Value     { return Value(binary.BigEndian.Uint32(f.buf[8:12])) }
func (f Frame) SetAck(v Value) { binary.BigEndian.PutUint32(f.buf[8:12], uint32(v)) }

// OffsetAndFlags returns the raw 16-bit word holding data-offset, the 3
// reserved bits and the 9 control flags.
func (f Frame) OffsetAndFlags() uint16 { return binary.BigEndian.Uint16(f.buf[12:14]) }
func (f Frame) SetOffsetAndFlags(v uint16) {
	binary.BigEndian.PutUint16(f.buf[12:14], v)
}

// Offset returns the data-offset field in 4-byte units.
func (f Frame) Offset() uint8 { return uint8(f.OffsetAndFlags() >> 12) }

// SetOffset sets the data-offset field, preserving the flags.
func (f Frame) SetOffset(words uint8) {
	f.SetOffsetAndFlags(uint16(words)<<12 | f.OffsetAndFlags()&0x01ff)
}

// Flags returns the 9-bit control flag field.
func (f Frame) Flags() Flags { return Flags(f.OffsetAndFlags() & 0x01ff) }

// SetFlags sets the 9-bit control flag field, preserving the data offset.
func (f Frame) SetFlags(flags Flags) {
	f.SetOffsetAndFlags(f.OffsetAndFlags()&0xfe00 | uint16(flags)&0x01ff)
}

func (f Frame) WindowSize() uint16     { return binary.BigEndian.Uint16(f.buf[14:16]) }
func (f Frame) SetWindowSize(w uint16) { binary.BigEndian.PutUint16(f.buf[14:16], w) }
func (f Frame) CRC() uint16            { return binary.BigEndian.Uint16(f.buf[16:18]) }
func (f Frame) SetCRC(crc uint16)      { binary.BigEndian.PutUint16(f.buf[16:18], crc) }
func (f Frame) UrgentPtr() uint16      { return binary.BigEndian.Uint16(f.buf[18:20]) }
func (f Frame) SetUrgentPtr(u uint16)  { binary.BigEndian.PutUint16(f.buf[18:20], u) }

// HeaderLength returns the total header length in bytes, including options.
func (f Frame) HeaderLength() int { return int(f.Offset()) * 4 }

// Options returns the raw options region between the fixed header and the
// payload, per HeaderLength.
func (f Frame) Options() []byte {
	return f.buf[sizeHeaderTCP:f.HeaderLength()]
}

// Payload returns the frame's data octets, i.e. everything past the header.
func (f Frame) Payload() []byte {
	return f.buf[f.HeaderLength():]
}

// ClearHeader zeroes the fixed 20 byte header, leaving options/payload untouched.
func (f Frame) ClearHeader() {
	for i := range f.buf[:sizeHeaderTCP] {
		f.buf[i] = 0
	}
}

// ValidateSize checks the data-offset field against the buffer's actual
// length and the RFC 9293 §3.1 minimum of 5 (no options).
func (f Frame) ValidateSize() error {
	off := f.Offset()
	if off < 5 {
		return errBadOffset
	}
	if f.HeaderLength() > len(f.buf) {
		return errShortBuffer
	}
	return nil
}
