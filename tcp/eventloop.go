package tcp

import (
	"log/slog"
	"net/netip"
	"sync"
)

// EventLoop is the single long-lived task that owns one Face,
// decodes inbound datagrams, locates the TCB addressed by (local, peer)
// and invokes step(RCVD_PKT). It carries no accept backlog — each TCB it
// knows about already exists, registered by OpenActive/OpenListen when an
// open begins; TCBs here are caller-owned.
type EventLoop struct {
	face Face

	mu   sync.RWMutex
	tcbs map[Endpoint]*TCB // keyed by local endpoint

	stop chan struct{}
	done chan struct{}
}

// NewEventLoop constructs an EventLoop reading from face. Call Register to
// add TCBs before Run, and concurrently with Run as new passive/active
// opens occur.
func NewEventLoop(face Face) *EventLoop {
	return &EventLoop{
		face: face,
		tcbs: make(map[Endpoint]*TCB),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Register associates local with tcb so inbound segments addressed to
// local are routed to it. A passive-open TCB registers on its listening
// endpoint; an active-open TCB registers on its ephemeral local endpoint.
// It fails (returns false, leaving tcbs unchanged) if local.Port is
// already bound to a different TCB: this EventLoop owns a single Face
// address, so a port collision is a true address-in-use condition
// regardless of which local address each Endpoint key carries.
func (el *EventLoop) Register(local Endpoint, tcb *TCB) bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	for ep, existing := range el.tcbs {
		if ep.Port == local.Port && existing != tcb {
			return false
		}
	}
	el.tcbs[local] = tcb
	return true
}

// Unregister removes the mapping for local, called once a TCB reaches
// CLOSED.
func (el *EventLoop) Unregister(local Endpoint) {
	el.mu.Lock()
	delete(el.tcbs, local)
	el.mu.Unlock()
}

// lookup locates the TCB addressed by an inbound segment's destination
// port and (peerAddr, peerPort). The destination address itself is not
// part of the comparison: this EventLoop reads from a single Face bound
// to one local address, so every registered TCB already shares it, and
// local port alone already uniquely identifies a registration (Register
// rejects a colliding port). The peer check still matters once a TCB has
// synchronized with one: it rejects a stray segment from a different
// peer addressed to this local port, the remaining two legs of the
// four-tuple lookup.
func (el *EventLoop) lookup(port uint16, peerAddr netip.Addr, peerPort uint16) (*TCB, bool) {
	el.mu.RLock()
	defer el.mu.RUnlock()
	for ep, tcb := range el.tcbs {
		if ep.Port != port {
			continue
		}
		if tp := tcb.PeerEndpoint(); tp.Port != 0 && (tp.Port != peerPort || tp.Addr != peerAddr) {
			continue
		}
		return tcb, true
	}
	return nil, false
}

// Run is the event-loop body: read one datagram, decode,
// locate the TCB, step it. It returns once Stop has been called and the
// pending Face.Recv has returned. Run must be called from its own goroutine.
func (el *EventLoop) Run() {
	defer close(el.done)
	for {
		select {
		case <-el.stop:
			return
		default:
		}

		src, payload := el.face.Recv()

		tcb, ok := el.lookup(localPortOf(payload), src.Addr, remotePortOf(payload))
		if !ok {
			continue // unknown connection; a real link would RST here
		}

		seg, err := Decode(tcb.local.Addr, src.Addr, payload)
		if err != nil {
			tcb.lg.trace("drop", slog.String("err", err.Error()))
			continue // bad checksum / malformed offset: silently dropped
		}

		in := Input{Local: tcb.local, Peer: Endpoint{Addr: src.Addr, Port: seg.SrcPort}, Seg: &seg}
		tcb.step(EventRcvdPkt, in)
	}
}

// Stop requests the loop to exit and returns without waiting for it. Run
// only sees the request after its current Face.Recv returns; with a
// LoopbackFace that takes a subsequent Send, so tests generally let Run
// exit via process teardown instead.
func (el *EventLoop) Stop() {
	close(el.stop)
}

// localPortOf reads the destination port straight out of the TCP header
// without a full Decode, so the loop can find the right TCB (and hence
// the right pseudo-header addresses) before verifying the checksum.
func localPortOf(buf []byte) uint16 {
	if len(buf) < 4 {
		return 0
	}
	return uint16(buf[2])<<8 | uint16(buf[3])
}

// remotePortOf reads the source port straight out of the TCP header,
// alongside localPortOf, so lookup can match the peer leg of the
// four-tuple before a full Decode.
func remotePortOf(buf []byte) uint16 {
	if len(buf) < 2 {
		return 0
	}
	return uint16(buf[0])<<8 | uint16(buf[1])
}
