package tcp

import (
	"fmt"
	"time"
)

// OpenActive performs an active open to peer from local, blocking until
// the handshake completes or fails. mss is the value this
// TCB advertises; 0 selects MSSDefault.
func (t *TCB) OpenActive(local, peer Endpoint, mss uint16, timeout time.Duration) error {
	t.callMu.Lock()
	defer t.callMu.Unlock()

	if t.State() != StateClosed {
		return newErr(ErrAlreadyConnected)
	}
	if err := checkFamilyMatch(local, peer); err != nil {
		return err
	}
	if !t.loop.Register(local, t) {
		return newErr(ErrAddrInUse)
	}

	mbox := t.bind(timeout)
	defer t.unbind()

	res := t.step(EventCallOpenActive, Input{Local: local, Peer: peer, MSS: mss})
	if res.Err != ErrKindNone {
		t.loop.Unregister(local)
		return newErr(res.Err)
	}

	err := t.awaitTerminal(mbox, func() bool { return t.State() == StateEstablished })
	if err != nil {
		t.loop.Unregister(local)
	}
	return err
}

// OpenListen performs a passive open on local, blocking until a peer
// completes the handshake or the call times out. Each TCB
// handles exactly one connection attempt at a time; there is no accept
// backlog.
func (t *TCB) OpenListen(local Endpoint, timeout time.Duration) error {
	t.callMu.Lock()
	defer t.callMu.Unlock()

	if t.State() != StateClosed {
		return newErr(ErrAlreadyConnected)
	}
	if !t.loop.Register(local, t) {
		return newErr(ErrAddrInUse)
	}

	mbox := t.bind(timeout)
	defer t.unbind()

	res := t.step(EventCallOpenPassive, Input{Local: local})
	if res.Err != ErrKindNone {
		t.loop.Unregister(local)
		return newErr(res.Err)
	}

	err := t.awaitTerminal(mbox, func() bool { return t.State() == StateEstablished })
	if err != nil {
		t.loop.Unregister(local)
	}
	return err
}

// Send blocks until all of buf is accepted and its retransmit snapshot is
// fully acknowledged, or an error occurs.
// Zero-window probing is driven from here, not from the FSM itself.
func (t *TCB) Send(buf []byte, timeout time.Duration) (int, error) {
	t.callMu.Lock()
	defer t.callMu.Unlock()

	if !t.State().canSend() {
		if kind, ok := t.lastErrIfAny(); ok {
			return 0, newErr(kind)
		}
		return 0, newErr(ErrNotConnected)
	}

	mbox := t.bind(timeout)
	defer t.unbind()

	total := 0
	for total < len(buf) {
		res := t.step(EventCallSend, Input{Buf: buf[total:]})
		if res.Err != ErrKindNone {
			return total, newErr(res.Err)
		}
		if res.N == 0 {
			// SND.WND == 0: enter probe mode until NOTIFY_USER reports a
			// reopened window.
			if err := t.probeUntilWindowOpen(mbox); err != nil {
				return total, err
			}
			continue
		}
		total += res.N
		if err := t.awaitSendDrain(mbox); err != nil {
			return total, err
		}
	}
	return total, nil
}

// probeUntilWindowOpen loops SEND_PROBE/PROBE_TIMEOUT until SND.WND opens
// back up, reported via NOTIFY_USER.
func (t *TCB) probeUntilWindowOpen(mbox *Mailbox) error {
	t.step(EventSendProbe, Input{})
	for {
		msg := mbox.Get()
		switch msg.Type {
		case MsgNotifyUser:
			if t.sndWindowOpen() {
				return nil
			}
		case MsgTimeoutRetransmit:
			t.step(EventTimeoutRetransmit, Input{})
			if t.State() == StateClosed {
				return newErr(t.lastErrSnapshot())
			}
		case MsgProbeTimeout:
			t.step(EventProbeTimeout, Input{})
		case MsgTimeoutConnection:
			t.step(EventTimeoutConnection, Input{})
			return newErr(ErrConnAborted)
		case MsgUserSpecTimeout:
			t.step(EventClearRetransmit, Input{})
			return newErr(ErrTimedOut)
		}
	}
}

// awaitSendDrain blocks until the most recent send's retransmit snapshot
// clears (full ACK) or an error occurs.
func (t *TCB) awaitSendDrain(mbox *Mailbox) error {
	for {
		if !t.hasRetransmitSnapshot() {
			return nil
		}
		msg := mbox.Get()
		switch msg.Type {
		case MsgNotifyUser:
			if !t.hasRetransmitSnapshot() {
				return nil
			}
			if t.State() == StateClosed {
				return newErr(t.lastErrSnapshot())
			}
		case MsgTimeoutRetransmit:
			t.step(EventTimeoutRetransmit, Input{})
			if t.State() == StateClosed {
				return newErr(t.lastErrSnapshot())
			}
		case MsgTimeoutConnection:
			t.step(EventTimeoutConnection, Input{})
			return newErr(ErrConnAborted)
		case MsgUserSpecTimeout:
			t.step(EventClearRetransmit, Input{})
			return newErr(ErrTimedOut)
		}
	}
}

// Recv blocks until data is available, the peer's FIN drains to
// end-of-stream, or an error/timeout occurs.
// A zero timeout makes the call non-blocking.
func (t *TCB) Recv(buf []byte, timeout time.Duration) (int, error) {
	t.callMu.Lock()
	defer t.callMu.Unlock()

	if !t.State().canRecv() {
		if kind, ok := t.lastErrIfAny(); ok {
			return 0, newErr(kind)
		}
		return 0, newErr(ErrNotConnected)
	}

	if timeout == 0 {
		res := t.step(EventCallRecv, Input{Buf: buf})
		if res.Err != ErrKindNone {
			return 0, newErr(res.Err)
		}
		return res.N, nil
	}

	mbox := t.bind(timeout)
	defer t.unbind()

	for {
		res := t.step(EventCallRecv, Input{Buf: buf})
		if res.Err == ErrKindNone {
			return res.N, nil
		}
		if res.Err != ErrWouldBlock {
			return 0, newErr(res.Err)
		}
		msg := mbox.Get()
		switch msg.Type {
		case MsgTimeoutRetransmit:
			t.step(EventTimeoutRetransmit, Input{})
		case MsgTimeoutConnection:
			t.step(EventTimeoutConnection, Input{})
			return 0, newErr(ErrConnAborted)
		case MsgUserSpecTimeout:
			return 0, newErr(ErrTimedOut)
		}
		if t.State() == StateClosed {
			return 0, newErr(t.lastErrSnapshot())
		}
	}
}

// Close performs a graceful close, blocking until the FIN exchange
// completes or the call times out.
func (t *TCB) Close(timeout time.Duration) error {
	t.callMu.Lock()
	defer t.callMu.Unlock()

	if t.State() == StateClosed {
		return newErr(ErrNotConnected)
	}

	mbox := t.bind(timeout)
	defer func() {
		t.loop.Unregister(t.local)
		t.unbind()
	}()

	res := t.step(EventCallClose, Input{})
	if res.Err != ErrKindNone {
		return newErr(res.Err)
	}
	return t.awaitTerminal(mbox, func() bool { return t.State() == StateClosed })
}

// Abort immediately tears down the connection, emitting an RST if the
// peer is known.
func (t *TCB) Abort() error {
	t.callMu.Lock()
	defer t.callMu.Unlock()
	local := t.local
	t.step(EventCallAbort, Input{})
	t.loop.Unregister(local)
	return nil
}

// bind attaches a fresh per-call mailbox to the TCB and arms the
// connection-idle timeout plus, if timeout > 0, a user-specified timeout.
func (t *TCB) bind(timeout time.Duration) *Mailbox {
	mbox := NewMailbox(MsgQueueSize)
	t.fsmMu.Lock()
	t.mbox = mbox
	t.armConnectionTimeout()
	if timeout > 0 {
		t.timers.schedule(&t.userTimer, timeout, MsgUserSpecTimeout, mbox)
	}
	t.fsmMu.Unlock()
	return mbox
}

// unbind detaches the per-call mailbox and cancels whatever timers were
// armed for the call.
func (t *TCB) unbind() {
	t.fsmMu.Lock()
	t.cancelMiscTimer()
	t.timers.cancel(&t.userTimer)
	if t.mbox != nil {
		t.mbox.Drain()
	}
	t.mbox = nil
	t.fsmMu.Unlock()
}

// awaitTerminal blocks on mbox until done reports true or an error/abort
// terminates the call, re-entering the FSM for every timer message seen
// along the way, the sole suspension point in the blocking user API.
func (t *TCB) awaitTerminal(mbox *Mailbox, done func() bool) error {
	if done() {
		return nil
	}
	for {
		msg := mbox.Get()
		switch msg.Type {
		case MsgNotifyUser:
			if done() {
				return nil
			}
			if t.State() == StateClosed {
				return newErr(t.lastErrSnapshot())
			}
		case MsgTimeoutRetransmit:
			t.step(EventTimeoutRetransmit, Input{})
			if done() {
				return nil
			}
			if t.State() == StateClosed {
				return newErr(t.lastErrSnapshot())
			}
		case MsgTimeoutTimeWait:
			t.step(EventTimeoutTimeWait, Input{})
			if done() {
				return nil
			}
		case MsgTimeoutConnection:
			synchronized := t.State().IsSynchronized()
			t.step(EventTimeoutConnection, Input{})
			if synchronized {
				return newErr(ErrConnAborted)
			}
			// The connection-idle timeout fired before the handshake ever
			// reached ESTABLISHED: this is a connect attempt giving up, not
			// an established connection aborting.
			return newErr(ErrTimedOut)
		case MsgUserSpecTimeout:
			return newErr(ErrTimedOut)
		}
	}
}

func (t *TCB) sndWindowOpen() bool {
	t.fsmMu.Lock()
	defer t.fsmMu.Unlock()
	return t.snd.WND > 0
}

func (t *TCB) hasRetransmitSnapshot() bool {
	t.fsmMu.Lock()
	defer t.fsmMu.Unlock()
	return t.retx.present
}

func (t *TCB) lastErrSnapshot() ErrorKind {
	t.fsmMu.Lock()
	defer t.fsmMu.Unlock()
	if t.lastErr != ErrKindNone {
		return t.lastErr
	}
	return ErrConnReset
}

// lastErrIfAny reports the error latched by the FSM the last time it drove
// this TCB to CLOSED on its own (RST, abort), distinct from a plain local
// Close. Send/Recv consult it so a peer-sent RST that arrived while no
// call was in flight is reported as that error on the next call instead
// of the generic ErrNotConnected.
func (t *TCB) lastErrIfAny() (ErrorKind, bool) {
	t.fsmMu.Lock()
	defer t.fsmMu.Unlock()
	if t.state == StateClosed && t.lastErr != ErrKindNone {
		return t.lastErr, true
	}
	return ErrKindNone, false
}

// checkFamilyMatch rejects an active open whose local and peer addresses
// are not the same address-family shape: this stack carries one
// network-layer address shape per TCB, so local and peer must agree
// before a TCB is committed.
func checkFamilyMatch(local, peer Endpoint) error {
	if !local.Addr.IsValid() || !peer.Addr.IsValid() {
		return nil // unspecified local address binds to whatever the Face provides
	}
	if local.Addr.Is4() != peer.Addr.Is4() {
		cause := fmt.Errorf("local %s and peer %s are different address families", local.Addr, peer.Addr)
		return wrapErr(ErrFamilyUnsupported, cause)
	}
	return nil
}
