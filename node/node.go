// Package node defines the uniform per-node contract of the sound graph:
// typed parameters, input/output events, sample streams, and a
// block-based Process call.
//
// Concrete nodes embed [Base], which owns the parameter registry and the
// event tables, and implement [Processor]. A node is constructed with its
// default parameter and event tables, receives exactly one Initialize
// before the first Process, and must not allocate or block inside
// Process.
package node

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-soundgraph/event"
	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/param"
)

var (
	// ErrNotInitialized is returned when Initialize is missing or invalid
	// (zero block size, non-positive sample rate).
	ErrNotInitialized = errors.New("node: not initialized")
	// ErrDuplicateID is returned when an event identifier is registered
	// twice within one node.
	ErrDuplicateID = errors.New("node: duplicate event identifier")
)

// Processor is the per-node processing contract.
//
// Process writes n frames into each connected output stream. Streams are
// arrays of channel buffers; unconnected entries are nil and must degrade
// to silence or pass-through as documented per node. Control-only nodes
// receive empty stream slices and still advance internal state by n
// virtual samples.
type Processor interface {
	// Initialize is called exactly once before any Process. It allocates
	// per-stream state sized to maxBlock and precomputes sample-rate
	// dependent coefficients.
	Initialize(sampleRate float64, maxBlock int) error

	// Process renders one block of n <= maxBlock frames.
	Process(in, out [][]float32, n int)

	// Reset reverts internal state (filter memories, envelope stages,
	// phase accumulators) without touching parameters or connections.
	Reset()

	// TypeID is the stable node type identity used by the graph.
	TypeID() ident.ID

	// DisplayName is the human-readable node type name.
	DisplayName() string

	// Params exposes the node's parameter registry.
	Params() *param.Registry

	// InEvent resolves an input event by identifier; nil when absent.
	InEvent(id ident.ID) *event.InputEvent

	// OutEvent resolves an output event by identifier; nil when absent.
	OutEvent(id ident.ID) *event.OutputEvent

	// StreamInputs and StreamOutputs name the node's stream ports in
	// positional order.
	StreamInputs() []string
	StreamOutputs() []string
}

// Base carries the state shared by every node: the parameter registry,
// the event tables, and the configured sample rate and block size.
// The zero value is not usable; construct with NewBase.
type Base struct {
	params *param.Registry

	inputs  map[ident.ID]*event.InputEvent
	outputs map[ident.ID]*event.OutputEvent

	sampleRate float64
	maxBlock   int
	ready      bool
}

// NewBase returns a Base with an empty registry configured for a nominal
// 48 kHz rate; Configure replaces the rate at Initialize time.
func NewBase() Base {
	return Base{
		params:  param.NewRegistry(48000),
		inputs:  make(map[ident.ID]*event.InputEvent),
		outputs: make(map[ident.ID]*event.OutputEvent),
	}
}

// Configure validates and records the processing format. Concrete nodes
// call this first in their Initialize.
func (b *Base) Configure(sampleRate float64, maxBlock int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be > 0: %f", ErrNotInitialized, sampleRate)
	}

	if maxBlock <= 0 {
		return fmt.Errorf("%w: max block size must be > 0: %d", ErrNotInitialized, maxBlock)
	}

	b.sampleRate = sampleRate
	b.maxBlock = maxBlock
	b.ready = true

	cfg := b.params.InterpolationConfig()
	cfg.SampleRate = sampleRate
	b.params.SetInterpolationConfig(cfg)

	return nil
}

// Params returns the node's parameter registry.
func (b *Base) Params() *param.Registry { return b.params }

// SampleRate returns the configured sample rate (0 before Initialize).
func (b *Base) SampleRate() float64 { return b.sampleRate }

// MaxBlock returns the configured maximum block size.
func (b *Base) MaxBlock() int { return b.maxBlock }

// Ready reports whether Configure has run.
func (b *Base) Ready() bool { return b.ready }

// AddInEvent registers an input event under id. Identifiers must be
// unique within the node.
func (b *Base) AddInEvent(id ident.ID, e *event.InputEvent) error {
	if _, ok := b.inputs[id]; ok {
		return fmt.Errorf("%w: input 0x%x", ErrDuplicateID, uint32(id))
	}

	b.inputs[id] = e

	return nil
}

// AddOutEvent registers and returns a new output event under id.
func (b *Base) AddOutEvent(id ident.ID) (*event.OutputEvent, error) {
	if _, ok := b.outputs[id]; ok {
		return nil, fmt.Errorf("%w: output 0x%x", ErrDuplicateID, uint32(id))
	}

	e := event.NewOutput()
	b.outputs[id] = e

	return e, nil
}

// InEvent resolves an input event; nil when absent.
func (b *Base) InEvent(id ident.ID) *event.InputEvent { return b.inputs[id] }

// OutEvent resolves an output event; nil when absent.
func (b *Base) OutEvent(id ident.ID) *event.OutputEvent { return b.outputs[id] }
