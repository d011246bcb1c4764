package tcp

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nrfgo/tcbstack/internal"
)

// sendSpace is SND.* from RFC 9293 §3.3.1.
type sendSpace struct {
	UNA Value
	NXT Value
	WND Size
	ISS Value
	WL1 Value
	WL2 Value
}

// recvSpace is RCV.* from RFC 9293 §3.3.1.
type recvSpace struct {
	NXT Value
	WND Size
	IRS Value
}

// timing holds the RFC 6298 RTO/SRTT/RTTVAR smoothing state. srttSet is
// false until the first RTT measurement; RTO stays at RTOInitial until then.
type timing struct {
	srttSet bool
	SRTT    time.Duration
	RTTVAR  time.Duration
	RTO     time.Duration
}

// retransmitSnapshot is the single outstanding unacked segment this stack
// tracks: one in-TCB snapshot, not a retransmission list.
type retransmitSnapshot struct {
	present bool
	seg     Segment
	sentAt  time.Time
	retries int
}

// StatusFlags records how a TCB was opened.
type StatusFlags uint8

const (
	FlagPassive       StatusFlags = 1 << 0 // opened via listen
	FlagAllowAnyAddr  StatusFlags = 1 << 1 // bound to unspecified local address
)

// TCB is the transmission control block: the sole stateful entity of one
// connection. Concurrency is governed by two locks: fsmMu serializes FSM
// transitions, callMu serializes user calls, an "FSM lock" / "function
// lock" pair, split in two because
// the FSM lock must be released while a user call blocks on its mailbox,
// which a single mutex could not do safely).
type TCB struct {
	fsmMu  sync.Mutex
	callMu sync.Mutex

	state State
	flags StatusFlags

	local  Endpoint
	peer   Endpoint
	family uint8

	snd sendSpace
	rcv recvSpace
	tim timing

	// peerMSS is the MSS the peer advertised in its SYN, latched when that
	// SYN is processed; 0 until then, meaning MSSDefault applies.
	peerMSS Size

	retx retransmitSnapshot

	bufIdx  int
	buf     *internal.Ring
	bufPool *BufferPool

	mbox   *Mailbox // bound only while a user call is active
	hkMbox *Mailbox // always bound; drains timer events when mbox is nil

	// retransmitTimer and probeTimer are independent of the single
	// reusable miscTimer slot below: the three are armed under different,
	// not mutually exclusive, conditions (unacked segment / zero window
	// probing / blocked call).
	retransmitTimer TimerEvent
	probeTimer      TimerEvent
	miscTimer       TimerEvent
	userTimer       TimerEvent // per-call user-specified timeout
	probeRTO        time.Duration

	// sendBuf is not assigned anywhere: CALL_SEND takes its data from
	// Input.Buf for the duration of the step instead.
	sendBuf []byte

	// txScratch is emit's reusable wire-encode buffer, grown via
	// internal.SliceReuse so a steady-state connection stops allocating
	// once its largest segment has been encoded once.
	txScratch []byte

	lastErr ErrorKind

	timers *timerService
	net    Face
	loop   *EventLoop

	lg logger
}

// NewTCB constructs a CLOSED TCB bound to the given buffer pool, timer
// service, network face and event loop. The caller owns its lifetime and
// storage; TCBs are never allocated or freed internally.
//
// A housekeeping goroutine is started to drain timer expirations while no
// user call is bound to the TCB, so retransmit/TIME_WAIT/probe timers
// keep the FSM moving even between blocking calls.
func NewTCB(pool *BufferPool, timers *timerService, net Face, loop *EventLoop) *TCB {
	t := &TCB{bufPool: pool, timers: timers, net: net, loop: loop, hkMbox: NewMailbox(MsgQueueSize)}
	go t.runHousekeeping()
	return t
}

// timerTarget returns the mailbox a newly scheduled timer should post to:
// the active user call's mailbox if one is bound, else the TCB's own
// housekeeping mailbox.
func (t *TCB) timerTarget() *Mailbox {
	if t.mbox != nil {
		return t.mbox
	}
	return t.hkMbox
}

// runHousekeeping drains hkMbox for the lifetime of the TCB, re-entering
// the FSM for every timer message it sees. When a user call is active,
// timers target its own mailbox instead and this loop sees nothing.
func (t *TCB) runHousekeeping() {
	for {
		msg := t.hkMbox.Get()
		switch msg.Type {
		case MsgTimeoutRetransmit:
			t.step(EventTimeoutRetransmit, Input{})
		case MsgTimeoutTimeWait:
			t.step(EventTimeoutTimeWait, Input{})
		case MsgTimeoutConnection:
			t.step(EventTimeoutConnection, Input{})
		case MsgProbeTimeout:
			t.step(EventProbeTimeout, Input{})
		}
	}
}

// State returns the TCB's current state. Safe to call concurrently with
// FSM steps; it takes the FSM lock.
func (t *TCB) State() State {
	t.fsmMu.Lock()
	defer t.fsmMu.Unlock()
	return t.state
}

// LocalEndpoint and PeerEndpoint return the TCB's bound addresses.
func (t *TCB) LocalEndpoint() Endpoint {
	t.fsmMu.Lock()
	defer t.fsmMu.Unlock()
	return t.local
}

func (t *TCB) PeerEndpoint() Endpoint {
	t.fsmMu.Lock()
	defer t.fsmMu.Unlock()
	return t.peer
}

// freeBufBytes returns the free space in the leased receive buffer, or 0
// if none is leased. This is RCV.WND's source of truth.
func (t *TCB) freeBufBytes() Size {
	if t.buf == nil {
		return 0
	}
	return Size(t.buf.Free())
}

// releaseBuffer returns the TCB's receive-buffer lease to the pool, if held.
func (t *TCB) releaseBuffer() {
	if t.buf != nil {
		t.bufPool.Release(t.bufIdx)
		t.buf = nil
	}
}

// SetLogger installs l as this TCB's logger target.
func (t *TCB) SetLogger(l *slog.Logger) { t.lg.SetLogger(l) }
