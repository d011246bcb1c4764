package tcp

import (
	"log/slog"
	"time"

	"github.com/nrfgo/tcbstack/internal"
)

// Event is one of the inputs step dispatches on.
type Event uint8

const (
	EventCallOpenActive Event = iota
	EventCallOpenPassive
	EventCallSend
	EventCallRecv
	EventCallClose
	EventCallAbort
	EventRcvdPkt
	EventTimeoutRetransmit
	EventTimeoutTimeWait
	EventTimeoutConnection
	EventProbeTimeout
	EventUserSpecTimeout
	EventSendProbe
	EventClearRetransmit
)

// Result is step's return value: a byte count (for CALL_SEND/CALL_RECV)
// and/or an error kind. A zero Result with Err == ErrKindNone means "no
// count to report" (e.g. most timer/packet events).
type Result struct {
	N   int
	Err ErrorKind
}

// Input bundles the optional arguments a step call may carry, mirroring
// a "(tcb, event, segment?, buf?, len?)" pure-function signature.
type Input struct {
	Local Endpoint
	Peer  Endpoint
	Seg   *Segment // set for EventRcvdPkt
	Buf   []byte   // set for EventCallSend (data to send) / EventCallRecv (destination)
	MSS   uint16   // requested MSS for active/passive open
}

// step is the FSM's single entry point: it acquires the FSM lock,
// dispatches on (t.state, event), and releases. User calls and inbound
// segments funnel through the same per-state handlers folded into one
// function because step must also own timer scheduling and mailbox
// notification alongside the state transition itself.
func (t *TCB) step(ev Event, in Input) Result {
	t.fsmMu.Lock()
	defer t.fsmMu.Unlock()
	t.lg.trace("step", slog.String("state", t.state.String()), slog.Int("event", int(ev)))

	switch ev {
	case EventCallOpenActive, EventCallOpenPassive:
		return t.stepOpen(ev, in)
	case EventCallSend:
		return t.stepCallSend(in)
	case EventCallRecv:
		return t.stepCallRecv(in)
	case EventCallClose:
		return t.stepCallClose()
	case EventCallAbort:
		return t.stepCallAbort()
	case EventRcvdPkt:
		return t.stepRcvdPkt(in)
	case EventTimeoutRetransmit:
		return t.stepTimeoutRetransmit()
	case EventTimeoutTimeWait:
		return t.stepTimeoutTimeWait()
	case EventTimeoutConnection:
		return t.stepTimeoutConnection()
	case EventProbeTimeout:
		return t.stepProbeTimeout()
	case EventSendProbe:
		return t.stepProbeTimeout()
	case EventClearRetransmit:
		t.clearRetransmit()
		return Result{}
	default:
		return Result{Err: ErrInvalidArg}
	}
}

// notifyUser posts a NOTIFY_USER message to the bound mailbox, if any.
// The binding is checked under the FSM lock, which the caller already
// holds.
func (t *TCB) notifyUser() {
	if t.mbox != nil {
		if !t.mbox.Put(Msg{Type: MsgNotifyUser}) {
			t.lg.trace("notify_user dropped, mailbox full")
		}
	}
}

// emit encodes and sends seg to peer through the network face. Errors are
// logged, not surfaced: the network send is best-effort.
func (t *TCB) emit(seg *Segment) {
	seg.SrcPort = t.local.Port
	seg.DstPort = t.peer.Port
	seg.WND = t.freeBufBytes()
	t.rcv.WND = seg.WND
	t.lg.traceSeg("tx", seg)

	need := sizeHeaderTCP + 4 + len(seg.Payload)
	internal.SliceReuse(&t.txScratch, need)
	t.txScratch = t.txScratch[:need]
	n, err := Encode(t.local.Addr, t.peer.Addr, t.txScratch, seg)
	if err != nil {
		t.lg.logerr("encode", err)
		return
	}
	if err := t.net.Send(t.peer, t.txScratch[:n]); err != nil {
		t.lg.logerr("emit", err)
	}
}

// armRetransmit snapshots seg for retransmission and (re)arms the
// retransmit timer at the current RTO.
func (t *TCB) armRetransmit(seg Segment) {
	t.retx = retransmitSnapshot{present: true, seg: seg, sentAt: time.Now()}
	if t.tim.RTO == 0 {
		t.tim.RTO = RTOInitial
	}
	t.timers.schedule(&t.retransmitTimer, t.tim.RTO, MsgTimeoutRetransmit, t.timerTarget())
}

// clearRetransmit drops the outstanding snapshot and cancels its timer.
func (t *TCB) clearRetransmit() {
	if t.retx.present {
		t.timers.cancel(&t.retransmitTimer)
	}
	t.retx = retransmitSnapshot{}
}

// updateRTO applies the RFC 6298 smoothing update using the snapshot's
// age as the new RTT sample.
func (t *TCB) updateRTO(sample time.Duration) {
	if !t.tim.srttSet {
		t.tim.SRTT = sample
		t.tim.RTTVAR = sample / 2
		t.tim.srttSet = true
	} else {
		diff := t.tim.SRTT - sample
		if diff < 0 {
			diff = -diff
		}
		t.tim.RTTVAR = (3*t.tim.RTTVAR + diff) / 4
		t.tim.SRTT = (7*t.tim.SRTT + sample) / 8
	}
	rto := t.tim.SRTT + 4*t.tim.RTTVAR
	if rto < RTOMin {
		rto = RTOMin
	} else if rto > RTOMax {
		rto = RTOMax
	}
	t.tim.RTO = rto
}

// acceptable implements the RFC 793 §3.3 four-case segment acceptability
// test.
func acceptable(seg *Segment, rcvNxt Value, rcvWnd Size) bool {
	segLen := seg.DATALEN()
	if segLen == 0 {
		if rcvWnd == 0 {
			return seg.SEQ == rcvNxt
		}
		return seg.SEQ.InWindow(rcvNxt, rcvWnd)
	}
	if rcvWnd == 0 {
		return false
	}
	return seg.SEQ.InWindow(rcvNxt, rcvWnd) || seg.Last().InWindow(rcvNxt, rcvWnd)
}

// armConnectionTimeout arms the reusable misc timer slot for the idle
// connection-timeout; it is reused for TIME_WAIT
// too, since the two are never simultaneously needed on one TCB.
func (t *TCB) armConnectionTimeout() {
	t.timers.schedule(&t.miscTimer, ConnectionTimeout, MsgTimeoutConnection, t.timerTarget())
}

func (t *TCB) armTimeWait() {
	t.timers.schedule(&t.miscTimer, 2*MSL, MsgTimeoutTimeWait, t.timerTarget())
}

func (t *TCB) cancelMiscTimer() {
	t.timers.cancel(&t.miscTimer)
}

func (t *TCB) gotoClosed() {
	t.clearRetransmit()
	t.cancelMiscTimer()
	t.releaseBuffer()
	t.state = StateClosed
}

// stepRcvdPkt is the shared entry point for EventRcvdPkt: it handles RST
// acceptance and the RFC 793 §3.3 segment acceptability test common to
// every state before dispatching to a per-state handler (rcvListen,
// rcvSynSent, rcvSynRcvd, rcvEstablished, rcvFinWait1, rcvFinWait2,
// rcvClosing, rcvLastAck; TIME_WAIT is handled inline) covering every
// state this TCB can occupy.
func (t *TCB) stepRcvdPkt(in Input) Result {
	seg := in.Seg
	if t.state == StateClosed {
		return Result{}
	}
	if t.state == StateListen {
		return t.rcvListen(in.Peer, seg)
	}
	if t.state == StateSynSent {
		return t.rcvSynSent(seg)
	}

	if seg.Flags.Has(FlagRST) {
		if seg.SEQ.InWindow(t.rcv.NXT, max1(t.rcv.WND)) {
			var kind ErrorKind
			if t.state.IsSynchronized() {
				kind = ErrConnReset
			}
			t.gotoClosed()
			t.lastErr = kind
			t.notifyUser()
		}
		return Result{}
	}

	if !acceptable(seg, t.rcv.NXT, t.rcv.WND) {
		t.lg.logerr("drop", errUnacceptable)
		if !seg.Flags.Has(FlagRST) {
			t.emit(&Segment{Flags: FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
		}
		return Result{}
	}

	switch t.state {
	case StateSynRcvd:
		return t.rcvSynRcvd(seg)
	case StateEstablished, StateCloseWait:
		return t.rcvEstablished(seg)
	case StateFinWait1:
		return t.rcvFinWait1(seg)
	case StateFinWait2:
		return t.rcvFinWait2(seg)
	case StateClosing:
		return t.rcvClosing(seg)
	case StateLastAck:
		return t.rcvLastAck(seg)
	case StateTimeWait:
		// Any retransmitted FIN in TIME_WAIT restarts the 2*MSL timer
		// (RFC 9293 §3.5); no other processing applies.
		if seg.Flags.Has(FlagFIN) {
			t.emit(&Segment{Flags: FlagACK, SEQ: t.snd.NXT, ACK: t.rcv.NXT})
			t.armTimeWait()
		}
		return Result{}
	default:
		return Result{}
	}
}

// max1 returns size if non-zero, else 1, giving RST's "in-window" test a
// one-byte window to compare against when RCV.WND is currently 0.
func max1(size Size) Size {
	if size == 0 {
		return 1
	}
	return size
}
