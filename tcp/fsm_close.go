package tcp

// stepCallClose handles CALL_CLOSE: ESTABLISHED moves
// to FIN_WAIT_1, CLOSE_WAIT moves to LAST_ACK, each emitting FIN|ACK.
func (t *TCB) stepCallClose() Result {
	switch t.state {
	case StateEstablished:
		t.emit(&Segment{Flags: FlagFIN | FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
		t.armRetransmit(Segment{Flags: FlagFIN | FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
		t.snd.NXT = t.snd.NXT.Add(1)
		t.state = StateFinWait1
		return Result{}
	case StateCloseWait:
		t.emit(&Segment{Flags: FlagFIN | FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
		t.armRetransmit(Segment{Flags: FlagFIN | FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
		t.snd.NXT = t.snd.NXT.Add(1)
		t.state = StateLastAck
		return Result{}
	case StateClosed:
		return Result{Err: ErrNotConnected}
	default:
		// Already closing or pre-established: treat as a no-op success,
		// consistent with a caller that raced a close against a peer FIN.
		return Result{}
	}
}

// stepCallAbort handles CALL_ABORT: emit RST if the peer is known, then
// unconditionally go to CLOSED.
func (t *TCB) stepCallAbort() Result {
	if t.state != StateClosed && t.state != StateListen {
		t.emit(&Segment{Flags: FlagRST, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
	}
	t.gotoClosed()
	return Result{}
}

// rcvFinWait1 handles FIN_WAIT_1 + RCVD_PKT: the ACK of our FIN advances
// to FIN_WAIT_2; a simultaneous FIN from the peer (without that ACK)
// advances to CLOSING; a FIN carrying the ACK of our own FIN is handled
// as both at once.
func (t *TCB) rcvFinWait1(seg *Segment) Result {
	finAcked := seg.Flags.Has(FlagACK) && seg.ACK == t.snd.NXT
	if finAcked {
		t.clearRetransmit()
	}

	if len(seg.Payload) > 0 && seg.SEQ == t.rcv.NXT {
		t.buf.Write(seg.Payload)
		t.rcv.NXT = t.rcv.NXT.Add(Size(len(seg.Payload)))
	}

	switch {
	case seg.Flags.Has(FlagFIN) && finAcked:
		t.rcv.NXT = t.rcv.NXT.Add(1)
		t.emit(&Segment{Flags: FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
		t.armTimeWait()
		t.state = StateTimeWait
		t.notifyUser()
	case seg.Flags.Has(FlagFIN):
		t.rcv.NXT = t.rcv.NXT.Add(1)
		t.emit(&Segment{Flags: FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
		t.state = StateClosing
		t.notifyUser()
	case finAcked:
		t.state = StateFinWait2
		t.notifyUser()
	}
	return Result{}
}

// rcvFinWait2 handles FIN_WAIT_2 + RCVD_PKT: the peer's FIN moves to
// TIME_WAIT.
func (t *TCB) rcvFinWait2(seg *Segment) Result {
	if len(seg.Payload) > 0 && seg.SEQ == t.rcv.NXT {
		t.buf.Write(seg.Payload)
		t.rcv.NXT = t.rcv.NXT.Add(Size(len(seg.Payload)))
		t.emit(&Segment{Flags: FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
		t.notifyUser()
	}
	if seg.Flags.Has(FlagFIN) {
		t.rcv.NXT = t.rcv.NXT.Add(1)
		t.emit(&Segment{Flags: FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
		t.armTimeWait()
		t.state = StateTimeWait
		t.notifyUser()
	}
	return Result{}
}

// rcvClosing handles CLOSING + RCVD_PKT: waiting only for the ACK of our
// own FIN, sent while the peer's simultaneous FIN was still in flight.
func (t *TCB) rcvClosing(seg *Segment) Result {
	if seg.Flags.Has(FlagACK) && seg.ACK == t.snd.NXT {
		t.clearRetransmit()
		t.armTimeWait()
		t.state = StateTimeWait
		t.notifyUser()
	}
	return Result{}
}

// rcvLastAck handles LAST_ACK + RCVD_PKT: the ACK of our FIN completes
// the close.
func (t *TCB) rcvLastAck(seg *Segment) Result {
	if seg.Flags.Has(FlagACK) && seg.ACK == t.snd.NXT {
		t.gotoClosed()
		t.notifyUser()
	}
	return Result{}
}

// stepTimeoutTimeWait handles TIMEOUT_TIME_WAIT: 2*MSL has elapsed, go to
// CLOSED.
func (t *TCB) stepTimeoutTimeWait() Result {
	if t.state == StateTimeWait {
		t.gotoClosed()
		t.notifyUser()
	}
	return Result{}
}

// stepTimeoutConnection handles TIMEOUT_CONNECTION: the idle-connection
// timer armed while a user call was blocked has expired. It aborts the
// TCB the same way CALL_ABORT does, emitting an RST if a peer is known,
// so a timed-out connection releases its buffer lease and registration
// like any other terminal transition.
func (t *TCB) stepTimeoutConnection() Result {
	if t.state != StateClosed && t.state != StateListen {
		t.emit(&Segment{Flags: FlagRST, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
	}
	t.gotoClosed()
	t.lastErr = ErrConnAborted
	t.notifyUser()
	return Result{}
}
