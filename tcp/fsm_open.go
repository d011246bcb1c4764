package tcp

import (
	"crypto/rand"
	"encoding/binary"
)

// newISS picks a random 32-bit initial sequence number with the MSB
// clear. Using
// crypto/rand rather than a seeded xorshift PRNG avoids
// a predictable ISS, which the RFC 9293 security considerations call out
// and which a predictable PRNG seeded from a visible counter would defeat.
func newISS() Value {
	var b [4]byte
	_, _ = rand.Read(b[:])
	v := binary.BigEndian.Uint32(b[:])
	v &^= 1 << 31
	return Value(v)
}

// stepOpen handles CLOSED + CALL_OPEN, both active and passive forms.
func (t *TCB) stepOpen(ev Event, in Input) Result {
	if t.state != StateClosed {
		return Result{Err: ErrAlreadyConnected}
	}

	idx, buf, ok := t.bufPool.Lease()
	if !ok {
		return Result{Err: ErrNoBuffer}
	}
	t.bufIdx, t.buf = idx, buf
	t.local = in.Local
	t.rcv.WND = t.freeBufBytes()

	if ev == EventCallOpenPassive {
		t.flags |= FlagPassive
		if in.Local.IsUnspecified() {
			t.flags |= FlagAllowAnyAddr
		}
		t.state = StateListen
		return Result{}
	}

	t.peer = in.Peer
	t.snd.ISS = newISS()
	t.snd.UNA = t.snd.ISS
	t.snd.NXT = t.snd.ISS.Add(1)
	mss := in.MSS
	if mss == 0 {
		mss = MSSDefault
	}
	t.emit(&Segment{Flags: FlagSYN, SEQ: t.snd.ISS, MSS: mss})
	t.armRetransmit(Segment{Flags: FlagSYN, SEQ: t.snd.ISS, MSS: mss})
	t.state = StateSynSent
	return Result{}
}

// rcvListen handles LISTEN + RCVD_PKT: only a SYN is
// meaningful; a segment carrying an ACK is answered with an RST (RFC
// 9293 §3.10.7.2), while an RST or any other non-SYN segment is silently
// ignored.
// SYN-with-data is handled per DESIGN.md's Open Question 1: the payload
// is dropped and processing proceeds as a plain SYN.
func (t *TCB) rcvListen(peer Endpoint, seg *Segment) Result {
	if seg.Flags.Has(FlagRST) {
		return Result{}
	}
	if seg.Flags.Has(FlagACK) {
		t.emit(&Segment{Flags: FlagRST, SEQ: seg.ACK})
		return Result{}
	}
	if !seg.Flags.Has(FlagSYN) {
		return Result{}
	}

	t.peer = Endpoint{Addr: peer.Addr, Port: seg.SrcPort}
	t.rcv.IRS = seg.SEQ
	t.rcv.NXT = seg.SEQ.Add(1)
	t.snd.ISS = newISS()
	t.snd.UNA = t.snd.ISS
	t.snd.NXT = t.snd.ISS.Add(1)
	mss := seg.MSS
	if mss == 0 {
		mss = MSSDefault
	}
	t.peerMSS = Size(mss)
	synack := Segment{Flags: FlagSYN | FlagACK, SEQ: t.snd.ISS, ACK: t.rcv.NXT, MSS: mss}
	t.emit(&synack)
	t.armRetransmit(synack)
	t.state = StateSynRcvd
	return Result{}
}

// rcvSynSent handles SYN_SENT + RCVD_PKT: the SYN|ACK case that completes
// an active open, plus the bare-SYN simultaneous-open case (DESIGN.md
// Open Question 2: RFC 793's SYN_RCVD path).
func (t *TCB) rcvSynSent(seg *Segment) Result {
	if seg.Flags.Has(FlagRST) {
		t.gotoClosed()
		t.lastErr = ErrConnRefused
		t.notifyUser()
		return Result{}
	}
	if !seg.Flags.Has(FlagSYN) {
		return Result{}
	}

	t.rcv.IRS = seg.SEQ
	t.rcv.NXT = seg.SEQ.Add(1)

	if seg.Flags.Has(FlagACK) {
		if seg.ACK != t.snd.NXT {
			// ACK doesn't acknowledge our SYN; RFC 793 calls for an RST,
			// but since this TCB owns the only context for the attempt
			// it is simplest to drop and let the retransmit timer retry.
			return Result{}
		}
		t.clearRetransmit()
		t.snd.UNA = seg.ACK
		t.snd.WND = seg.WND
		t.snd.WL1 = seg.SEQ
		t.snd.WL2 = seg.ACK
		mss := seg.MSS
		if mss == 0 {
			mss = MSSDefault
		}
		t.peerMSS = Size(mss)
		t.emit(&Segment{Flags: FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
		t.state = StateEstablished
		t.notifyUser()
		return Result{}
	}

	// Simultaneous open: bare SYN received while we also sent one.
	t.clearRetransmit()
	mss := seg.MSS
	if mss == 0 {
		mss = MSSDefault
	}
	t.peerMSS = Size(mss)
	synack := Segment{Flags: FlagSYN | FlagACK, SEQ: t.snd.ISS, ACK: t.rcv.NXT}
	t.emit(&synack)
	t.armRetransmit(synack)
	t.state = StateSynRcvd
	return Result{}
}

// rcvSynRcvd handles SYN_RCVD + RCVD_PKT: the ACK that completes a
// passive open. The peer's MSS was already latched from its SYN in
// rcvListen; a bare ACK carries no MSS option to update it with.
func (t *TCB) rcvSynRcvd(seg *Segment) Result {
	if !seg.Flags.Has(FlagACK) || seg.ACK != t.snd.NXT {
		return Result{}
	}
	t.clearRetransmit()
	t.snd.UNA = seg.ACK
	t.snd.WND = seg.WND
	t.snd.WL1 = seg.SEQ
	t.snd.WL2 = seg.ACK
	t.state = StateEstablished
	t.notifyUser()
	return Result{}
}
