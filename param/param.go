// Package param implements the per-node parameter registry with
// sample-accurate linear interpolation of numeric parameters.
//
// A plain parameter takes effect on the next read. An interpolated
// parameter ramps linearly from its current value to the written target
// over a configured number of samples, then snaps to the target
// bit-exactly, so control changes never click.
package param

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/value"
)

var (
	// ErrDuplicateID is returned when the same identifier is registered
	// twice with a different type or interpolation role.
	ErrDuplicateID = errors.New("param: duplicate identifier")
	// ErrTypeMismatch is returned when a parameter is accessed as the
	// wrong kind.
	ErrTypeMismatch = errors.New("param: type mismatch")
	// ErrUnknownID is returned by setters for unregistered identifiers.
	ErrUnknownID = errors.New("param: unknown identifier")
)

// DefaultRampSamples is the interpolation window when none is configured:
// 480 samples, roughly 10 ms at 48 kHz.
const DefaultRampSamples = 480

// InterpolationConfig controls the ramp applied to interpolated writes.
type InterpolationConfig struct {
	SampleRate  float64
	RampSamples int
	Enabled     bool
}

// DefaultInterpolation returns the standard 480-sample ramp.
func DefaultInterpolation(sampleRate float64) InterpolationConfig {
	return InterpolationConfig{
		SampleRate:  sampleRate,
		RampSamples: DefaultRampSamples,
		Enabled:     true,
	}
}

// immediate reports whether writes should bypass ramping entirely.
func (c InterpolationConfig) immediate() bool {
	return !c.Enabled || c.RampSamples <= 0
}

// Kind describes a parameter's storage class.
type Kind uint8

const (
	// KindFloat is numeric storage (float64 domain, interpolatable).
	KindFloat Kind = iota
	// KindInt is integral storage (modes, counters).
	KindInt
	// KindBool is boolean storage (never interpolated).
	KindBool
	// KindValue is arbitrary tagged storage (arrays, payload echo).
	KindValue
)

// Parameter is one keyed entry in a Registry.
type Parameter struct {
	id   ident.ID
	name string
	kind Kind

	// Numeric storage and ramp state. current is the audible value.
	current   float64
	target    float64
	increment float64
	remaining int

	interpolated bool
	lo, hi       float64
	hasRange     bool

	intVal  int64
	boolVal bool
	val     value.Value
}

// ID returns the parameter identifier.
func (p *Parameter) ID() ident.ID { return p.id }

// Name returns the registered display name.
func (p *Parameter) Name() string { return p.name }

// Kind returns the storage class.
func (p *Parameter) Kind() Kind { return p.kind }

// Interpolated reports whether writes to this parameter ramp.
func (p *Parameter) Interpolated() bool { return p.interpolated }

// Registry is a per-node keyed store of typed parameters.
//
// Registration happens at node construction, before the graph starts
// processing. Float reads, numeric writes, and Advance are the only
// operations the audio thread performs; none of them allocate.
type Registry struct {
	params map[ident.ID]*Parameter
	interp []*Parameter
	cfg    InterpolationConfig
}

// NewRegistry returns an empty registry with the default interpolation
// configuration at the given sample rate.
func NewRegistry(sampleRate float64) *Registry {
	return &Registry{
		params: make(map[ident.ID]*Parameter),
		cfg:    DefaultInterpolation(sampleRate),
	}
}

// SetInterpolationConfig replaces the ramp configuration for all
// interpolated parameters. In-flight ramps complete immediately when the
// new configuration disables ramping.
func (r *Registry) SetInterpolationConfig(cfg InterpolationConfig) {
	r.cfg = cfg

	if cfg.immediate() {
		for _, p := range r.interp {
			p.current = p.target
			p.remaining = 0
		}
	}
}

// InterpolationConfig returns the active ramp configuration.
func (r *Registry) InterpolationConfig() InterpolationConfig { return r.cfg }

// AddFloat registers a plain numeric parameter. Registering the same
// identifier again with identical kind is idempotent; a conflicting
// registration fails with ErrDuplicateID.
func (r *Registry) AddFloat(id ident.ID, name string, initial float64) error {
	return r.addFloat(id, name, initial, false, 0, 0, false)
}

// AddFloatRange registers a plain numeric parameter with a clamp range.
func (r *Registry) AddFloatRange(id ident.ID, name string, initial, lo, hi float64) error {
	return r.addFloat(id, name, initial, false, lo, hi, true)
}

// AddInterpolatedFloat registers a numeric parameter whose writes ramp.
func (r *Registry) AddInterpolatedFloat(id ident.ID, name string, initial float64) error {
	return r.addFloat(id, name, initial, true, 0, 0, false)
}

// AddInterpolatedFloatRange registers a ramping numeric parameter with a
// clamp range.
func (r *Registry) AddInterpolatedFloatRange(id ident.ID, name string, initial, lo, hi float64) error {
	return r.addFloat(id, name, initial, true, lo, hi, true)
}

func (r *Registry) addFloat(id ident.ID, name string, initial float64, interpolated bool, lo, hi float64, hasRange bool) error {
	if existing, ok := r.params[id]; ok {
		if existing.kind == KindFloat && existing.interpolated == interpolated {
			return nil
		}

		return fmt.Errorf("%w: %q (0x%x)", ErrDuplicateID, name, uint32(id))
	}

	if hasRange && lo > hi {
		lo, hi = hi, lo
	}

	if hasRange {
		initial = clamp(initial, lo, hi)
	}

	p := &Parameter{
		id:           id,
		name:         name,
		kind:         KindFloat,
		current:      initial,
		target:       initial,
		interpolated: interpolated,
		lo:           lo,
		hi:           hi,
		hasRange:     hasRange,
	}

	r.params[id] = p
	if interpolated {
		r.interp = append(r.interp, p)
	}

	return nil
}

// AddInt registers an integral parameter (modes, counters).
func (r *Registry) AddInt(id ident.ID, name string, initial int64) error {
	return r.addSimple(id, name, KindInt, func(p *Parameter) { p.intVal = initial })
}

// AddBool registers a boolean parameter. Booleans never interpolate.
func (r *Registry) AddBool(id ident.ID, name string, initial bool) error {
	return r.addSimple(id, name, KindBool, func(p *Parameter) { p.boolVal = initial })
}

// AddValue registers an arbitrary tagged parameter.
func (r *Registry) AddValue(id ident.ID, name string, initial value.Value) error {
	return r.addSimple(id, name, KindValue, func(p *Parameter) { p.val = initial.Clone() })
}

func (r *Registry) addSimple(id ident.ID, name string, kind Kind, store func(*Parameter)) error {
	if existing, ok := r.params[id]; ok {
		if existing.kind == kind {
			return nil
		}

		return fmt.Errorf("%w: %q (0x%x)", ErrDuplicateID, name, uint32(id))
	}

	p := &Parameter{id: id, name: name, kind: kind}
	store(p)
	r.params[id] = p

	return nil
}

// SetRange installs or replaces the clamp range of a float parameter.
// Nodes call this from Initialize when the range depends on sample rate.
func (r *Registry) SetRange(id ident.ID, lo, hi float64) error {
	p, ok := r.params[id]
	if !ok {
		return fmt.Errorf("%w: 0x%x", ErrUnknownID, uint32(id))
	}

	if p.kind != KindFloat {
		return ErrTypeMismatch
	}

	if lo > hi {
		lo, hi = hi, lo
	}

	p.lo, p.hi, p.hasRange = lo, hi, true
	p.current = clamp(p.current, lo, hi)
	p.target = clamp(p.target, lo, hi)

	return nil
}

// Range returns the clamp range of a float parameter, with ok == false
// when no range is installed.
func (r *Registry) Range(id ident.ID) (lo, hi float64, ok bool) {
	p, found := r.params[id]
	if !found || !p.hasRange {
		return 0, 0, false
	}

	return p.lo, p.hi, true
}

// GetFloat returns the current (interpolated) value of a float parameter,
// or def when the identifier is absent or non-numeric.
func (r *Registry) GetFloat(id ident.ID, def float64) float64 {
	p, ok := r.params[id]
	if !ok {
		return def
	}

	switch p.kind {
	case KindFloat:
		return p.current
	case KindInt:
		return float64(p.intVal)
	case KindBool:
		if p.boolVal {
			return 1
		}

		return 0
	default:
		return def
	}
}

// Target returns the ramp target of a float parameter (equal to the
// current value when no ramp is in flight), or def when absent.
func (r *Registry) Target(id ident.ID, def float64) float64 {
	p, ok := r.params[id]
	if !ok || p.kind != KindFloat {
		return def
	}

	return p.target
}

// GetInt returns an integral parameter or def when absent.
func (r *Registry) GetInt(id ident.ID, def int64) int64 {
	p, ok := r.params[id]
	if !ok {
		return def
	}

	switch p.kind {
	case KindInt:
		return p.intVal
	case KindFloat:
		return int64(math.Round(p.current))
	default:
		return def
	}
}

// GetBool returns a boolean parameter or def when absent.
func (r *Registry) GetBool(id ident.ID, def bool) bool {
	p, ok := r.params[id]
	if !ok {
		return def
	}

	switch p.kind {
	case KindBool:
		return p.boolVal
	case KindFloat:
		return p.current >= 0.5
	case KindInt:
		return p.intVal != 0
	default:
		return def
	}
}

// GetValue returns a tagged parameter or a void value when absent.
func (r *Registry) GetValue(id ident.ID) value.Value {
	p, ok := r.params[id]
	if !ok || p.kind != KindValue {
		return value.Value{}
	}

	return p.val
}

// SetFloat writes a float parameter. With interpolate == true on an
// interpolated parameter (and ramping enabled), the write arms a linear
// ramp toward the clamped target; otherwise it takes effect immediately.
func (r *Registry) SetFloat(id ident.ID, v float64, interpolate bool) error {
	p, ok := r.params[id]
	if !ok {
		return fmt.Errorf("%w: 0x%x", ErrUnknownID, uint32(id))
	}

	if p.kind != KindFloat {
		return ErrTypeMismatch
	}

	if p.hasRange {
		v = clamp(v, p.lo, p.hi)
	}

	if !p.interpolated || !interpolate || r.cfg.immediate() {
		p.current = v
		p.target = v
		p.remaining = 0

		return nil
	}

	p.target = v
	p.remaining = r.cfg.RampSamples
	p.increment = (p.target - p.current) / float64(p.remaining)

	return nil
}

// SetInt writes an integral parameter immediately.
func (r *Registry) SetInt(id ident.ID, v int64) error {
	p, ok := r.params[id]
	if !ok {
		return fmt.Errorf("%w: 0x%x", ErrUnknownID, uint32(id))
	}

	if p.kind != KindInt {
		return ErrTypeMismatch
	}

	p.intVal = v

	return nil
}

// SetBool writes a boolean parameter immediately.
func (r *Registry) SetBool(id ident.ID, v bool) error {
	p, ok := r.params[id]
	if !ok {
		return fmt.Errorf("%w: 0x%x", ErrUnknownID, uint32(id))
	}

	if p.kind != KindBool {
		return ErrTypeMismatch
	}

	p.boolVal = v

	return nil
}

// SetValue replaces a tagged parameter's stored value.
func (r *Registry) SetValue(id ident.ID, v value.Value) error {
	p, ok := r.params[id]
	if !ok {
		return fmt.Errorf("%w: 0x%x", ErrUnknownID, uint32(id))
	}

	if p.kind != KindValue {
		return ErrTypeMismatch
	}

	p.val = v.Clone()

	return nil
}

// SetNumeric writes v into a parameter of any scalar kind: floats take the
// interpolate hint, ints round, bools threshold at 0.5. Used by hosts that
// address parameters uniformly.
func (r *Registry) SetNumeric(id ident.ID, v float64, interpolate bool) error {
	p, ok := r.params[id]
	if !ok {
		return fmt.Errorf("%w: 0x%x", ErrUnknownID, uint32(id))
	}

	switch p.kind {
	case KindFloat:
		return r.SetFloat(id, v, interpolate)
	case KindInt:
		p.intVal = int64(math.Round(v))
		return nil
	case KindBool:
		p.boolVal = v >= 0.5
		return nil
	default:
		return ErrTypeMismatch
	}
}

// Advance steps every in-flight ramp by exactly one sample. The final
// step snaps to the target bit-exactly regardless of rounding drift.
func (r *Registry) Advance() {
	for _, p := range r.interp {
		if p.remaining == 0 {
			continue
		}

		p.current += p.increment

		p.remaining--
		if p.remaining == 0 {
			p.current = p.target
		}
	}
}

// AdvanceBlock steps every in-flight ramp by n samples in one call, for
// nodes that do not observe intra-block ramping.
func (r *Registry) AdvanceBlock(n int) {
	if n <= 0 {
		return
	}

	for _, p := range r.interp {
		if p.remaining == 0 {
			continue
		}

		if p.remaining > n {
			p.current += p.increment * float64(n)
			p.remaining -= n

			continue
		}

		p.current = p.target
		p.remaining = 0
	}
}

// Ramping reports whether any interpolated parameter has an active ramp.
func (r *Registry) Ramping() bool {
	for _, p := range r.interp {
		if p.remaining > 0 {
			return true
		}
	}

	return false
}

// Lookup returns the parameter registered under id.
func (r *Registry) Lookup(id ident.ID) (*Parameter, bool) {
	p, ok := r.params[id]
	return p, ok
}

// Len returns the number of registered parameters.
func (r *Registry) Len() int { return len(r.params) }

// Each calls fn for every registered parameter. Iteration order is
// unspecified; intended for host inspection, not the audio thread.
func (r *Registry) Each(fn func(*Parameter)) {
	for _, p := range r.params {
		fn(p)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
