package capture

import "sync/atomic"

// MuteGate decides which buffer is exposed to the transport each interval.
// While muted it substitutes a static all-zero buffer of the packet length;
// the caller keeps filling regardless so interval timing does not depend on
// the mute state.
type MuteGate struct {
	muted  atomic.Bool
	silent []byte
}

// NewMuteGate creates an unmuted gate with a silent buffer of size bytes.
func NewMuteGate(size int) *MuteGate {
	return &MuteGate{silent: make([]byte, size)}
}

// SetMuted sets the mute state. Called from the control context.
func (g *MuteGate) SetMuted(muted bool) {
	g.muted.Store(muted)
}

// Muted reports the mute state.
func (g *MuteGate) Muted() bool {
	return g.muted.Load()
}

// Expose returns filled, or the silent buffer while muted. muted is the
// state the choice was made from.
func (g *MuteGate) Expose(filled []byte) (packet []byte, muted bool) {
	if g.muted.Load() {
		return g.silent, true
	}
	return filled, false
}
