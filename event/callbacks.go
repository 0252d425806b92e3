package event

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-soundgraph/value"
)

// FlagTrigger returns a callback that sets f, ignoring the payload.
func FlagTrigger(f *Flag) Callback {
	return func(value.Value) { f.SetDirty() }
}

// Forwarder returns a callback that re-raises out with the same payload.
func Forwarder(out *OutputEvent) Callback {
	return func(p value.Value) { out.Invoke(p) }
}

// AtomicF64 is a float64 cell with atomic load/store, used as the landing
// slot for numeric event payloads consumed by the audio thread.
type AtomicF64 struct {
	bits atomic.Uint64
}

// Store writes v atomically.
func (a *AtomicF64) Store(v float64) { a.bits.Store(math.Float64bits(v)) }

// Load reads the current value atomically.
func (a *AtomicF64) Load() float64 { return math.Float64frombits(a.bits.Load()) }

// NumericSetter returns a callback that coerces the payload to float64,
// stores it in dst, and sets f when non-nil. Non-numeric payloads store 0,
// so a bare trigger still lands a defined value.
func NumericSetter(dst *AtomicF64, f *Flag) Callback {
	return func(p value.Value) {
		v, _ := p.Numeric()
		dst.Store(v)

		if f != nil {
			f.SetDirty()
		}
	}
}
