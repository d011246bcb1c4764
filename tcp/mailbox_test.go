package tcp

import (
	"testing"
	"time"
)

func TestMailboxPutGetFIFO(t *testing.T) {
	m := NewMailbox(4)
	for i := MsgType(0); i < 3; i++ {
		if !m.Put(Msg{Type: i}) {
			t.Fatalf("Put(%d) should have been accepted", i)
		}
	}
	for i := MsgType(0); i < 3; i++ {
		if got := m.Get(); got.Type != i {
			t.Errorf("Get() = %v, want Type %d", got, i)
		}
	}
}

func TestMailboxPutFullReturnsFalse(t *testing.T) {
	m := NewMailbox(2)
	if !m.Put(Msg{Type: MsgNotifyUser}) {
		t.Fatal("first Put should succeed")
	}
	if !m.Put(Msg{Type: MsgNotifyUser}) {
		t.Fatal("second Put should succeed")
	}
	if m.Put(Msg{Type: MsgNotifyUser}) {
		t.Error("Put on a full mailbox should return false")
	}
}

func TestMailboxGetBlocksUntilPut(t *testing.T) {
	m := NewMailbox(1)
	done := make(chan Msg, 1)
	go func() { done <- m.Get() }()

	select {
	case <-done:
		t.Fatal("Get returned before any message was posted")
	case <-time.After(20 * time.Millisecond):
	}

	m.Put(Msg{Type: MsgTimeoutRetransmit})
	select {
	case msg := <-done:
		if msg.Type != MsgTimeoutRetransmit {
			t.Errorf("Get() = %v, want MsgTimeoutRetransmit", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("Get never woke up after Put")
	}
}

func TestMailboxDrain(t *testing.T) {
	m := NewMailbox(4)
	m.Put(Msg{Type: MsgNotifyUser})
	m.Put(Msg{Type: MsgProbeTimeout})
	m.Drain()

	if !m.Put(Msg{Type: MsgTimeoutConnection}) {
		t.Fatal("Put after Drain should succeed")
	}
	if got := m.Get(); got.Type != MsgTimeoutConnection {
		t.Errorf("Get() after Drain = %v, want the message posted after draining", got)
	}
}

func TestNewMailboxRejectsNonPowerOfTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewMailbox(3) should panic")
		}
	}()
	NewMailbox(3)
}

func TestNewMailboxRejectsZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewMailbox(0) should panic")
		}
	}()
	NewMailbox(0)
}
