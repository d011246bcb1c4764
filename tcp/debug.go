package tcp

import "fmt"

// FormatExchange renders one segment crossing the wire as a single
// human-readable line, the same fields traceSeg logs structured, laid
// out for a terminal trace rather than a log sink.
func FormatExchange(dir string, local, peer Endpoint, seg *Segment) string {
	return fmt.Sprintf("%-3s %v -> %v  flags=%-11s seq=%d ack=%d wnd=%d len=%d",
		dir, local, peer, seg.Flags.String(), seg.SEQ, seg.ACK, seg.WND, len(seg.Payload))
}
