// Package graph owns the node set, the stream and event wiring, and the
// per-block evaluation order of a sound graph.
//
// A graph is built off the audio thread: add nodes, connect streams and
// events, then Initialize once with the processing format. Initialize
// computes a topological order over the stream edges (event edges never
// affect ordering) and allocates every per-node stream buffer, so that
// ProcessBlock runs without allocation. The last node added is the sink
// unless SetSink names another; the sink's output streams are interleaved
// into the host buffer.
package graph

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-soundgraph/ident"
	"github.com/cwbudde/algo-soundgraph/node"
	"github.com/cwbudde/algo-soundgraph/value"
)

var (
	// ErrGraphCycle is returned by Initialize when the stream edges do
	// not form a DAG. The error names one edge of the cycle.
	ErrGraphCycle = errors.New("graph: contains cycle")
	// ErrUnknownNode is returned for a node identifier outside the graph.
	ErrUnknownNode = errors.New("graph: unknown node")
	// ErrUnknownPort is returned when a stream port name does not exist
	// on the addressed node.
	ErrUnknownPort = errors.New("graph: unknown stream port")
	// ErrUnknownEvent is returned when an event name does not exist on
	// the addressed node.
	ErrUnknownEvent = errors.New("graph: unknown event")
	// ErrAlreadyInitialized is returned when the topology is mutated
	// after Initialize.
	ErrAlreadyInitialized = errors.New("graph: already initialized")
	// ErrInvalidBlock is returned by ProcessBlock for a frame count that
	// is negative, zero, or beyond the configured maximum.
	ErrInvalidBlock = errors.New("graph: invalid block size")
)

// NodeID addresses a node within one graph. IDs are assigned by AddNode
// in insertion order and stay valid for the graph's lifetime.
type NodeID int

// Logger receives warnings about clamped parameter writes. A nil logger
// drops them.
type Logger interface {
	Printf(format string, args ...any)
}

// Option configures a Graph at construction.
type Option func(*Graph)

// WithLogger routes clamp warnings to l.
func WithLogger(l Logger) Option {
	return func(g *Graph) { g.logger = l }
}

type streamEdge struct {
	from, to         NodeID
	fromPort, toPort int
	fromName, toName string
}

// Graph is the node container and block evaluator. Not safe for
// concurrent mutation; the owner serializes builds and parameter writes
// against ProcessBlock.
type Graph struct {
	nodes []node.Processor
	edges []streamEdge

	sink    NodeID
	hasSink bool
	logger  Logger

	order []int
	outs  [][][]float32
	ins   [][][]float32

	sampleRate  float64
	maxBlock    int
	initialized bool
}

// New returns an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// AddNode inserts p and returns its identifier. The most recently added
// node becomes the sink unless SetSink overrides it.
func (g *Graph) AddNode(p node.Processor) (NodeID, error) {
	if g.initialized {
		return 0, ErrAlreadyInitialized
	}

	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, p)

	if !g.hasSink {
		g.sink = id
	}

	return id, nil
}

// Node resolves a node by identifier; nil when absent.
func (g *Graph) Node(id NodeID) node.Processor {
	if int(id) < 0 || int(id) >= len(g.nodes) {
		return nil
	}

	return g.nodes[id]
}

// NumNodes reports the node count.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// SetSink designates the node whose output becomes the graph output.
func (g *Graph) SetSink(id NodeID) error {
	if g.Node(id) == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}

	g.sink = id
	g.hasSink = true

	return nil
}

// ConnectStream declares that src's output port feeds dst's input port.
// Ports are addressed by the names the nodes publish through
// StreamOutputs and StreamInputs.
func (g *Graph) ConnectStream(src NodeID, srcPort string, dst NodeID, dstPort string) error {
	if g.initialized {
		return ErrAlreadyInitialized
	}

	from := g.Node(src)
	to := g.Node(dst)

	if from == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNode, src)
	}

	if to == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNode, dst)
	}

	fromPort := portIndex(from.StreamOutputs(), srcPort)
	if fromPort < 0 {
		return fmt.Errorf("%w: %s has no output %q", ErrUnknownPort, from.DisplayName(), srcPort)
	}

	toPort := portIndex(to.StreamInputs(), dstPort)
	if toPort < 0 {
		return fmt.Errorf("%w: %s has no input %q", ErrUnknownPort, to.DisplayName(), dstPort)
	}

	g.edges = append(g.edges, streamEdge{
		from:     src,
		to:       dst,
		fromPort: fromPort,
		toPort:   toPort,
		fromName: srcPort,
		toName:   dstPort,
	})

	return nil
}

// ConnectEvent wires src's output event to dst's input event. Event
// edges deliver synchronously inside the sender's Process and do not
// constrain evaluation order.
func (g *Graph) ConnectEvent(src NodeID, srcEvent string, dst NodeID, dstEvent string) error {
	from := g.Node(src)
	to := g.Node(dst)

	if from == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNode, src)
	}

	if to == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNode, dst)
	}

	out := from.OutEvent(ident.New(srcEvent))
	if out == nil {
		return fmt.Errorf("%w: %s has no output event %q", ErrUnknownEvent, from.DisplayName(), srcEvent)
	}

	in := to.InEvent(ident.New(dstEvent))
	if in == nil {
		return fmt.Errorf("%w: %s has no input event %q", ErrUnknownEvent, to.DisplayName(), dstEvent)
	}

	out.Connect(in)

	return nil
}

// Initialize resolves the evaluation order, initializes every node with
// the processing format, and allocates all stream buffers. After a
// successful return the topology is frozen and ProcessBlock is
// allocation free.
func (g *Graph) Initialize(sampleRate float64, maxBlock int) error {
	if maxBlock <= 0 || sampleRate <= 0 {
		return fmt.Errorf("%w: rate %f, block %d", node.ErrNotInitialized, sampleRate, maxBlock)
	}

	order, err := g.sortNodes()
	if err != nil {
		return err
	}

	for _, idx := range order {
		if err := g.nodes[idx].Initialize(sampleRate, maxBlock); err != nil {
			return fmt.Errorf("initialize %s: %w", g.nodes[idx].DisplayName(), err)
		}
	}

	g.outs = make([][][]float32, len(g.nodes))
	g.ins = make([][][]float32, len(g.nodes))

	for i, p := range g.nodes {
		outPorts := p.StreamOutputs()
		g.outs[i] = make([][]float32, len(outPorts))

		for ch := range g.outs[i] {
			g.outs[i][ch] = make([]float32, maxBlock)
		}

		g.ins[i] = make([][]float32, len(p.StreamInputs()))
	}

	// Stream edges alias the producer's buffer as the consumer's input.
	for _, e := range g.edges {
		g.ins[e.to][e.toPort] = g.outs[e.from][e.fromPort]
	}

	g.order = order
	g.sampleRate = sampleRate
	g.maxBlock = maxBlock
	g.initialized = true

	return nil
}

// sortNodes runs Kahn's algorithm over the stream edges. On a cycle the
// returned error names one edge that participates in it.
func (g *Graph) sortNodes() ([]int, error) {
	n := len(g.nodes)
	indegree := make([]int, n)
	outgoing := make([][]int, n)

	for i, e := range g.edges {
		outgoing[e.from] = append(outgoing[e.from], i)
		indegree[e.to]++
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, n)
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]

		order = append(order, idx)
		for _, ei := range outgoing[idx] {
			e := g.edges[ei]

			indegree[e.to]--
			if indegree[e.to] == 0 {
				queue = append(queue, int(e.to))
			}
		}
	}

	if len(order) == n {
		return order, nil
	}

	// Nodes left unsorted sit on or behind a cycle. The first edge
	// joining two stuck nodes identifies the cycle for the caller.
	stuck := make([]bool, n)
	for i := range stuck {
		stuck[i] = true
	}

	for _, idx := range order {
		stuck[idx] = false
	}

	for _, e := range g.edges {
		if stuck[e.from] && stuck[e.to] {
			return nil, fmt.Errorf("%w: edge %s.%s -> %s.%s",
				ErrGraphCycle,
				g.nodes[e.from].DisplayName(), e.fromName,
				g.nodes[e.to].DisplayName(), e.toName)
		}
	}

	return nil, ErrGraphCycle
}

// SampleRate returns the configured rate (0 before Initialize).
func (g *Graph) SampleRate() float64 { return g.sampleRate }

// MaxBlock returns the configured maximum block size.
func (g *Graph) MaxBlock() int { return g.maxBlock }

// SetParameter writes v into the named parameter of the addressed node.
// Scalar kinds accept a float64 uniformly: floats honor the interpolate
// hint, ints round, bools threshold at 0.5. A write outside the
// parameter's range is clamped and reported through the logger.
func (g *Graph) SetParameter(id NodeID, name string, v float64, interpolate bool) error {
	p := g.Node(id)
	if p == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}

	paramID := ident.New(name)

	if lo, hi, ok := p.Params().Range(paramID); ok && (v < lo || v > hi) {
		if g.logger != nil {
			g.logger.Printf("parameter %q on %s: %g clamped to [%g, %g]",
				name, p.DisplayName(), v, lo, hi)
		}
	}

	if err := p.Params().SetNumeric(paramID, v, interpolate); err != nil {
		return fmt.Errorf("parameter %q on %s: %w", name, p.DisplayName(), err)
	}

	return nil
}

// SendEvent invokes the named input event on the addressed node with
// payload. Delivery is synchronous; nodes that defer to the next block
// do so through their own flags.
func (g *Graph) SendEvent(id NodeID, name string, payload value.Value) error {
	p := g.Node(id)
	if p == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}

	in := p.InEvent(ident.New(name))
	if in == nil {
		return fmt.Errorf("%w: %s has no input event %q", ErrUnknownEvent, p.DisplayName(), name)
	}

	in.Invoke(payload)

	return nil
}

// ProcessBlock evaluates one block of frames and interleaves the sink's
// streams into out. The channel count is len(out)/frames: a mono sink
// is duplicated across channels, a multichannel sink contributes one
// stream per channel. Runs on the audio thread; never allocates.
func (g *Graph) ProcessBlock(out []float32, frames int) error {
	if !g.initialized {
		return node.ErrNotInitialized
	}

	if frames <= 0 || frames > g.maxBlock || len(out) < frames {
		return ErrInvalidBlock
	}

	for _, idx := range g.order {
		g.nodes[idx].Process(g.ins[idx], g.outs[idx], frames)
	}

	channels := len(out) / frames
	sinkOuts := g.outs[g.sink]

	for c := 0; c < channels; c++ {
		src := sinkChannel(sinkOuts, c)

		for i := 0; i < frames; i++ {
			v := float32(0)
			if src != nil {
				v = src[i]
			}

			out[i*channels+c] = v
		}
	}

	return nil
}

// Reset reverts every node's runtime state without touching parameters
// or wiring.
func (g *Graph) Reset() {
	for _, idx := range g.order {
		g.nodes[idx].Reset()
	}
}

func sinkChannel(outs [][]float32, c int) []float32 {
	if len(outs) == 0 {
		return nil
	}

	if c >= len(outs) {
		c = len(outs) - 1
	}

	return outs[c]
}

func portIndex(names []string, want string) int {
	for i, n := range names {
		if n == want {
			return i
		}
	}

	return -1
}
