// Package ipv6 provides the minimal IPv6 header view needed by the TCP
// core to compute the pseudo-header checksum and to carry address
// information between the network-layer collaborator and the TCP codec.
// Fragmentation, extension header walking and routing are out of scope;
// those live in the link/network layer that the TCP core treats as an
// external collaborator.
package ipv6

import (
	"encoding/binary"
	"errors"

	"github.com/nrfgo/tcbstack/wire"
)

const sizeHeader = 40

var (
	errShortFrame = errors.New("ipv6: short frame")
	errShortBuf   = errors.New("ipv6: short buffer for frame")
)

// NewFrame returns a new Frame backed by buf. An error is returned if the
// buffer is smaller than the fixed 40 byte IPv6 header.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{}, errShortBuf
	}
	return Frame{buf: buf}, nil
}

// Frame is a thin, allocation free view over an IPv6 header and payload.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice the frame was created from.
func (f Frame) RawData() []byte { return f.buf }

// PayloadLength returns the size of the payload in octets, excluding the
// fixed header.
func (f Frame) PayloadLength() uint16 {
	return binary.BigEndian.Uint16(f.buf[4:6])
}

// SetPayloadLength sets the payload length field.
func (f Frame) SetPayloadLength(pl uint16) {
	binary.BigEndian.PutUint16(f.buf[4:6], pl)
}

// NextHeader returns the upper-layer protocol carried in the payload.
func (f Frame) NextHeader() wire.IPProto {
	return wire.IPProto(f.buf[6])
}

// SetNextHeader sets the upper-layer protocol field.
func (f Frame) SetNextHeader(proto wire.IPProto) {
	f.buf[6] = uint8(proto)
}

// SourceAddr returns a pointer to the 16 byte source address.
func (f Frame) SourceAddr() *[16]byte {
	return (*[16]byte)(f.buf[8:24])
}

// DestinationAddr returns a pointer to the 16 byte destination address.
func (f Frame) DestinationAddr() *[16]byte {
	return (*[16]byte)(f.buf[24:40])
}

// Payload returns the frame's payload, sized according to PayloadLength.
func (f Frame) Payload() []byte {
	pl := f.PayloadLength()
	return f.buf[sizeHeader : sizeHeader+pl]
}

// ClearHeader zeros the fixed header octets.
func (f Frame) ClearHeader() {
	for i := range f.buf[:sizeHeader] {
		f.buf[i] = 0
	}
}

// WritePseudoHeader feeds the IPv6 TCP/UDP pseudo-header (RFC 8200 §8.1) into
// crc: source address, destination address, upper-layer packet length and
// next header, zero-extended to 32 bits.
func (f Frame) WritePseudoHeader(crc *wire.CRC791, upperLayerLength uint32) {
	crc.Write(f.SourceAddr()[:])
	crc.Write(f.DestinationAddr()[:])
	crc.AddUint32(upperLayerLength)
	crc.AddUint32(uint32(f.NextHeader()))
}

// ValidateSize checks the payload length field against the actual buffer size.
func (f Frame) ValidateSize(v *wire.Validator) {
	if int(f.PayloadLength())+sizeHeader > len(f.buf) {
		v.AddError(errShortFrame)
	}
}
