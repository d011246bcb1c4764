package tcp

import (
	"testing"
	"time"
)

func TestTimerServiceFiresInOrder(t *testing.T) {
	ts := NewTimerService()
	defer ts.Close()

	mbox := NewMailbox(8)
	var a, b, c TimerEvent
	ts.schedule(&c, 30*time.Millisecond, MsgTimeoutConnection, mbox)
	ts.schedule(&a, 10*time.Millisecond, MsgTimeoutRetransmit, mbox)
	ts.schedule(&b, 20*time.Millisecond, MsgProbeTimeout, mbox)

	want := []MsgType{MsgTimeoutRetransmit, MsgProbeTimeout, MsgTimeoutConnection}
	for _, w := range want {
		got := mbox.Get()
		if got.Type != w {
			t.Fatalf("fired %v, want %v", got.Type, w)
		}
	}
}

func TestTimerServiceCancel(t *testing.T) {
	ts := NewTimerService()
	defer ts.Close()

	mbox := NewMailbox(8)
	var e TimerEvent
	ts.schedule(&e, 10*time.Millisecond, MsgTimeoutRetransmit, mbox)
	ts.cancel(&e)

	select {
	case msg := <-waitForMailbox(mbox):
		t.Fatalf("cancelled timer still fired: %v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTimerServiceReschedule(t *testing.T) {
	ts := NewTimerService()
	defer ts.Close()

	mbox := NewMailbox(8)
	var e TimerEvent
	ts.schedule(&e, time.Hour, MsgTimeoutRetransmit, mbox)
	ts.schedule(&e, 10*time.Millisecond, MsgProbeTimeout, mbox)

	select {
	case msg := <-waitForMailbox(mbox):
		if msg.Type != MsgProbeTimeout {
			t.Errorf("got %v, want MsgProbeTimeout", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("rescheduled timer never fired")
	}
}

// waitForMailbox wraps a blocking Get in a channel so it can be raced
// against a timeout. The goroutine exits once Get returns; when no message
// ever arrives (TestTimerServiceCancel) it stays blocked on that test's
// local mailbox until the test binary exits.
func waitForMailbox(m *Mailbox) <-chan Msg {
	ch := make(chan Msg, 1)
	go func() { ch <- m.Get() }()
	return ch
}
