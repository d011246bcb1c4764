package tcp

import (
	"net/netip"

	"github.com/nrfgo/tcbstack/ipv6"
	"github.com/nrfgo/tcbstack/wire"
)

// pseudoHeader builds a scratch IPv6 frame carrying only the fields
// WritePseudoHeader needs (source/dest address, next header) — the TCB
// only ever knows its peer as an Endpoint, never a full IP datagram, so a
// throwaway 40 byte frame stands in for the real one the link layer will
// eventually wrap the segment in.
func pseudoHeader(local, peer netip.Addr) ipv6.Frame {
	var scratch [40]byte
	f, _ := ipv6.NewFrame(scratch[:])
	*f.SourceAddr() = local.As16()
	*f.DestinationAddr() = peer.As16()
	f.SetNextHeader(wire.IPProtoTCP)
	return f
}

// Encode packs seg into buf as a full TCP segment exchanged between local
// and peer, computing and writing the Internet checksum over the
// pseudo-header, TCP header and payload. buf must be at least
// sizeHeaderTCP+len(seg.Payload) bytes, plus 4 for the MSS option when
// seg.MSS is non-zero. It returns the encoded byte count.
func Encode(local, peer netip.Addr, buf []byte, seg *Segment) (int, error) {
	hdrWords := uint8(5)
	var optbuf [4]byte
	var optsLen int
	if seg.MSS != 0 {
		optsLen = PutMSS(optbuf[:], seg.MSS)
		hdrWords = 6
	}
	headerLen := int(hdrWords) * 4
	total := headerLen + len(seg.Payload)
	if len(buf) < total {
		return 0, errShortBuffer
	}
	f, err := NewFrame(buf[:total])
	if err != nil {
		return 0, err
	}
	f.ClearHeader()
	f.SetSourcePort(seg.SrcPort)
	f.SetDestinationPort(seg.DstPort)
	f.SetSeq(seg.SEQ)
	f.SetAck(seg.ACK)
	f.SetOffset(hdrWords)
	f.SetFlags(seg.Flags)
	f.SetWindowSize(uint16(seg.WND))
	if optsLen > 0 {
		copy(f.buf[sizeHeaderTCP:], optbuf[:optsLen])
	}
	copy(f.Payload(), seg.Payload)

	var crc wire.CRC791
	net := pseudoHeader(local, peer)
	net.WritePseudoHeader(&crc, uint32(total))
	crc.Write(f.buf)
	f.SetCRC(wire.NeverZeroChecksum(crc.Sum16()))
	return total, nil
}

// Decode unpacks a TCP segment out of buf, exchanged between local and
// peer, verifying the checksum and the data-offset field. A malformed
// offset is reported as errDropSegment; a checksum mismatch is reported
// as errBadChecksum. Either way, the FSM must never see such a segment.
func Decode(local, peer netip.Addr, buf []byte) (Segment, error) {
	f, err := NewFrame(buf)
	if err != nil {
		return Segment{}, errDropSegment
	}
	if err := f.ValidateSize(); err != nil {
		return Segment{}, errDropSegment
	}

	var crc wire.CRC791
	net := pseudoHeader(local, peer)
	net.WritePseudoHeader(&crc, uint32(len(buf)))
	crc.Write(buf)
	if crc.Sum16() != 0 && crc.Sum16() != 0xffff {
		return Segment{}, errBadChecksum
	}

	seg := Segment{
		SrcPort: f.SourcePort(),
		DstPort: f.DestinationPort(),
		SEQ:     f.Seq(),
		ACK:     f.Ack(),
		Flags:   f.Flags(),
		WND:     Size(f.WindowSize()),
		Payload: f.Payload(),
	}
	seg.MSS = ParseMSS(f.Options())
	return seg, nil
}
