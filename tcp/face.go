package tcp

import "errors"

// FaceState mirrors the up/down lifecycle of the netface abstraction
// (DESIGN.md's "polymorphic face interface" note), trimmed to what this
// stack actually queries.
type FaceState uint8

const (
	FaceDown FaceState = iota
	FaceUp
)

// Face is the network-layer collaborator's capability set: the TCP core
// only ever needs to send a wire-ready datagram, block for the next
// inbound one, and ask whether the face currently has an address to send
// from. Up/down/destroy lifecycle management belongs to whatever owns the
// Face, not to the TCP core.
type Face interface {
	Send(dst Endpoint, payload []byte) error
	Recv() (src Endpoint, payload []byte)
	HasAddr() bool
	State() FaceState
}

var errFaceDown = errors.New("tcp: face is down")

// LoopbackFace is an in-memory Face used to drive the end-to-end scenarios
// without a real link layer: two LoopbackFaces are paired, and
// each Send on one becomes a Recv on the other.
type LoopbackFace struct {
	local Endpoint
	peer  *LoopbackFace
	inbox chan datagram
	state FaceState
}

type datagram struct {
	src     Endpoint
	payload []byte
}

// NewLoopbackPair returns two linked LoopbackFaces, one per side of a
// connection, each bound to the given local endpoint.
func NewLoopbackPair(a, b Endpoint) (*LoopbackFace, *LoopbackFace) {
	fa := &LoopbackFace{local: a, inbox: make(chan datagram, 64), state: FaceUp}
	fb := &LoopbackFace{local: b, inbox: make(chan datagram, 64), state: FaceUp}
	fa.peer = fb
	fb.peer = fa
	return fa, fb
}

// Send delivers payload to the paired face's Recv queue, copying it since
// the caller's buffer (emit's scratch encode buffer) is reused.
func (f *LoopbackFace) Send(dst Endpoint, payload []byte) error {
	if f.state != FaceUp {
		return errFaceDown
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.peer.inbox <- datagram{src: f.local, payload: cp}
	return nil
}

// Recv blocks until a datagram arrives, returning its source endpoint and
// bytes. Only the event-loop task calls this.
func (f *LoopbackFace) Recv() (Endpoint, []byte) {
	d := <-f.inbox
	return d.src, d.payload
}

// HasAddr reports whether the local endpoint fixed at construction carries
// a valid address.
func (f *LoopbackFace) HasAddr() bool { return f.local.Addr.IsValid() }

// State returns the face's up/down status.
func (f *LoopbackFace) State() FaceState { return f.state }

// SetDown takes the face down; later Sends fail with errFaceDown. Recv is
// unaffected and still returns datagrams the paired face sends.
func (f *LoopbackFace) SetDown() { f.state = FaceDown }
