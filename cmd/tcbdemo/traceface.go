package main

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/nrfgo/tcbstack/tcp"
)

// traceFace wraps a tcp.Face, printing a colored RFC 9293-style exchange
// line for every segment crossing it in either direction. Decode failures
// are printed as-is and passed through unaltered; tracing never changes
// what the wrapped Face actually does.
type traceFace struct {
	name  string
	local tcp.Endpoint
	tcp.Face
}

func newTraceFace(name string, local tcp.Endpoint, f tcp.Face) *traceFace {
	return &traceFace{name: name, local: local, Face: f}
}

func (f *traceFace) Send(dst tcp.Endpoint, payload []byte) error {
	f.print("tx", dst, payload)
	return f.Face.Send(dst, payload)
}

func (f *traceFace) Recv() (tcp.Endpoint, []byte) {
	src, payload := f.Face.Recv()
	f.print("rx", src, payload)
	return src, payload
}

func (f *traceFace) print(dir string, other tcp.Endpoint, payload []byte) {
	seg, err := tcp.Decode(f.local.Addr, other.Addr, payload)
	if err != nil {
		fmt.Printf("[%s] %s: undecodable segment (%v)\n", f.name, dir, err)
		return
	}
	line := tcp.FormatExchange(dir, f.local, other, &seg)
	fmt.Println(colorFor(seg.Flags)(fmt.Sprintf("[%-6s] %s", f.name, line)))
}

// colorFor picks a terminal color for a segment's flag combination,
// mirroring how SYN/FIN/RST normally stand out in a tcpdump trace.
func colorFor(flags tcp.Flags) func(...any) string {
	switch {
	case flags.Has(tcp.FlagRST):
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case flags.Has(tcp.FlagSYN):
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	case flags.Has(tcp.FlagFIN):
		return color.New(color.FgMagenta, color.Bold).SprintFunc()
	default:
		return color.New(color.FgWhite).SprintFunc()
	}
}
