package tcp

import "time"

// stepCallSend handles CALL_SEND. It accepts
// up to min(len, SND.WND, peerMSS) bytes from in.Buf, starting at SND.NXT,
// and snapshots the resulting segment for retransmission. peerMSS is the
// value the peer announced in its SYN, or MSSDefault if none was.
func (t *TCB) stepCallSend(in Input) Result {
	if !t.state.canSend() {
		return Result{Err: ErrNotConnected}
	}
	if t.snd.WND == 0 {
		return Result{N: 0}
	}
	mss := t.peerMSS
	if mss == 0 {
		mss = Size(MSSDefault)
	}
	n := Size(len(in.Buf))
	if n > t.snd.WND {
		n = t.snd.WND
	}
	if n > mss {
		n = mss
	}
	if n == 0 {
		return Result{N: 0}
	}

	seg := Segment{Flags: FlagPSH | FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT, Payload: in.Buf[:n]}
	t.emit(&seg)
	t.armRetransmit(seg)
	t.snd.NXT = t.snd.NXT.Add(n)
	return Result{N: int(n)}
}

// stepCallRecv handles CALL_RECV: copy buffered bytes into in.Buf, widen RCV.WND,
// and re-advertise it once the widening crosses MSS/2.
func (t *TCB) stepCallRecv(in Input) Result {
	if !t.state.canRecv() {
		return Result{Err: ErrNotConnected}
	}
	if t.buf == nil || t.buf.Buffered() == 0 {
		if t.state == StateCloseWait {
			return Result{N: 0} // end-of-stream, drained
		}
		return Result{Err: ErrWouldBlock}
	}

	before := t.freeBufBytes()
	n, _ := t.buf.Read(in.Buf)
	after := t.freeBufBytes()
	t.rcv.WND = after

	if after-before >= Size(MSSDefault)/2 {
		t.emit(&Segment{Flags: FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
	}
	return Result{N: n}
}

// rcvEstablished handles ESTABLISHED/CLOSE_WAIT + RCVD_PKT: in-order data,
// the FIN that starts a passive close, and the ACK that clears the
// retransmit snapshot.
func (t *TCB) rcvEstablished(seg *Segment) Result {
	if seg.Flags.Has(FlagACK) {
		t.processAck(seg)
	}

	if len(seg.Payload) > 0 && seg.SEQ == t.rcv.NXT {
		n, err := t.buf.Write(seg.Payload)
		if err == nil {
			t.rcv.NXT = t.rcv.NXT.Add(Size(n))
			t.rcv.WND = t.freeBufBytes()
		}
		t.emit(&Segment{Flags: FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
		t.notifyUser()
	} else if len(seg.Payload) > 0 {
		// Out-of-order (beyond RCV.NXT) or duplicate: ACK current state
		// and drop, no reordering queue.
		t.emit(&Segment{Flags: FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
	}

	if seg.Flags.Has(FlagFIN) {
		t.rcv.NXT = t.rcv.NXT.Add(1)
		t.emit(&Segment{Flags: FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
		t.state = StateCloseWait
		t.notifyUser()
	}
	return Result{}
}

// processAck applies an ACK covering some or all of the outstanding
// snapshot: clears the snapshot and updates RTO on a full
// ACK, updates the send window per RFC 9293 §3.4's SND.WL1/WL2 guard.
func (t *TCB) processAck(seg *Segment) {
	if t.retx.present && seg.ACK == t.snd.NXT {
		t.updateRTO(time.Since(t.retx.sentAt))
		t.clearRetransmit()
		t.notifyUser()
	}
	if t.snd.UNA.LessThan(seg.ACK) || t.snd.UNA == seg.ACK {
		t.snd.UNA = seg.ACK
	}
	if t.snd.WL1.LessThan(seg.SEQ) || seg.SEQ == t.snd.WL1 {
		if t.snd.WL1 != seg.SEQ || t.snd.WL2.LessThanEq(seg.ACK) {
			t.snd.WND = seg.WND
			t.snd.WL1 = seg.SEQ
			t.snd.WL2 = seg.ACK
			if seg.WND > 0 {
				t.notifyUser() // probing caller wakes on window reopening
			}
		}
	}
}

// stepTimeoutRetransmit handles TIMEOUT_RETRANSMIT: resend the snapshot
// with exponential backoff, or abort past RETRIES_MAX.
func (t *TCB) stepTimeoutRetransmit() Result {
	if !t.retx.present {
		return Result{}
	}
	t.retx.retries++
	if t.retx.retries > RetriesMax {
		t.gotoClosed()
		t.lastErr = ErrConnAborted
		t.notifyUser()
		return Result{}
	}
	seg := t.retx.seg
	t.emit(&seg)
	t.tim.RTO *= 2
	if t.tim.RTO > RTOMax {
		t.tim.RTO = RTOMax
	}
	t.retx.sentAt = time.Now()
	t.timers.schedule(&t.retransmitTimer, t.tim.RTO, MsgTimeoutRetransmit, t.timerTarget())
	return Result{}
}

// stepProbeTimeout handles PROBE_TIMEOUT/SEND_PROBE: emit a zero-window
// probe (RFC 1122 §4.2.2.17), an ACK with SEQ = SND.NXT-1 and no data,
// and reschedule with exponential
// backoff bounded by ProbeLowerBound/ProbeUpperBound.
func (t *TCB) stepProbeTimeout() Result {
	if t.snd.WND != 0 {
		return Result{}
	}
	probe := Segment{Flags: FlagACK, SEQ: t.snd.NXT.Sub(1), ACK: t.rcv.NXT}
	t.emit(&probe)

	if t.probeRTO == 0 {
		t.probeRTO = ProbeLowerBound
	} else {
		t.probeRTO *= 2
		if t.probeRTO > ProbeUpperBound {
			t.probeRTO = ProbeUpperBound
		}
	}
	t.timers.schedule(&t.probeTimer, t.probeRTO, MsgProbeTimeout, t.timerTarget())
	return Result{}
}
