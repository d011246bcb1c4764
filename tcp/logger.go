package tcp

import (
	"log/slog"

	"github.com/nrfgo/tcbstack/internal"
)

// logger is a small embeddable wrapper around *slog.Logger: a nil-safe,
// allocation-conscious set of helpers
// gated by internal.LogEnabled so call sites don't pay for attribute
// construction when the level is disabled.
type logger struct {
	log *slog.Logger
}

// SetLogger installs l as the logger's target. A nil l silences logging.
func (g *logger) SetLogger(l *slog.Logger) { g.log = l }

func (g *logger) enabled(level slog.Level) bool {
	return internal.LogEnabled(g.log, level)
}

func (g *logger) trace(msg string, attrs ...slog.Attr) {
	if g.enabled(internal.LevelTrace) {
		internal.LogAttrs(g.log, internal.LevelTrace, msg, attrs...)
	}
}

func (g *logger) debug(msg string, attrs ...slog.Attr) {
	if g.enabled(slog.LevelDebug) {
		internal.LogAttrs(g.log, slog.LevelDebug, msg, attrs...)
	}
}

func (g *logger) info(msg string, attrs ...slog.Attr) {
	if g.enabled(slog.LevelInfo) {
		internal.LogAttrs(g.log, slog.LevelInfo, msg, attrs...)
	}
}

func (g *logger) logerr(msg string, err error) {
	if g.enabled(slog.LevelError) {
		internal.LogAttrs(g.log, slog.LevelError, msg, slog.String("err", err.Error()))
	}
}

// traceSeg logs a segment crossing the wire boundary.
func (g *logger) traceSeg(dir string, seg *Segment) {
	if !g.enabled(internal.LevelTrace) {
		return
	}
	internal.LogAttrs(g.log, internal.LevelTrace, "segment",
		slog.String("dir", dir),
		slog.String("flags", seg.Flags.String()),
		slog.Uint64("seq", uint64(seg.SEQ)),
		slog.Uint64("ack", uint64(seg.ACK)),
		slog.Uint64("wnd", uint64(seg.WND)),
		slog.Int("datalen", len(seg.Payload)),
	)
}
