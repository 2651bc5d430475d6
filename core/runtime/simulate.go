package runtime

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"

	"github.com/artpar/construct/core/artifact"
)

// DefaultSimulatedBlocks is the number of blocks Simulate produces when
// SimulateOptions.Blocks is zero.
const DefaultSimulatedBlocks = 3

// SimulateOptions configures Simulate.
type SimulateOptions struct {
	// Blocks to produce and execute. Zero uses DefaultSimulatedBlocks.
	Blocks int

	Config Config
}

// SimulationReport describes a dry run of an assembled runtime.
type SimulationReport struct {
	Runtime     string           `json:"runtime" yaml:"runtime"`
	HookOrder   []string         `json:"hook_order" yaml:"hook_order"`
	GenesisKeys []string         `json:"genesis_keys" yaml:"genesis_keys"`
	Blocks      []BlockReport    `json:"blocks" yaml:"blocks"`
	Unsigned    []UnsignedReport `json:"unsigned" yaml:"unsigned"`
}

// Failed reports whether any simulated block failed to execute.
func (r *SimulationReport) Failed() bool {
	for _, b := range r.Blocks {
		if b.Error != "" {
			return true
		}
	}
	return false
}

// BlockReport is the outcome of one simulated block.
type BlockReport struct {
	Number uint64 `json:"number" yaml:"number"`

	// Extrinsics are the hex-encoded inherent calls of the block.
	Extrinsics []string `json:"extrinsics" yaml:"extrinsics"`

	// Hooks lists the lifecycle hooks run, in order.
	Hooks []string `json:"hooks" yaml:"hooks"`

	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// UnsignedReport is the unsigned validation verdict for one call variant.
type UnsignedReport struct {
	Call    string `json:"call" yaml:"call"`
	Outcome string `json:"outcome" yaml:"outcome"`
	Module  string `json:"module,omitempty" yaml:"module,omitempty"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Simulate binds a stand-in implementation to every module of the bundle,
// builds genesis, executes a run of blocks carrying the inherents of all
// providers and asks the unsigned validators about every call variant.
//
// Stand-ins derive everything from their binding name: inherent data is keyed
// by call source and holds the block number, genesis writes "<Name>:genesis"
// and a module validates exactly the unsigned calls of its own variant.
func Simulate(ctx context.Context, bundle *artifact.Bundle, opts SimulateOptions) (*SimulationReport, error) {
	blocks := opts.Blocks
	if blocks <= 0 {
		blocks = DefaultSimulatedBlocks
	}

	trace := &hookTrace{}
	sources := make(map[string]string, len(bundle.Inherent.Entries))
	for _, e := range bundle.Inherent.Entries {
		sources[e.Name] = e.CallSource
	}
	modules := make(map[string]any, len(bundle.Modules.Bindings))
	for _, b := range bundle.Modules.Bindings {
		modules[b.Name] = &standIn{name: b.Name, source: sources[b.Name], trace: trace}
	}

	rt, err := New(bundle, modules, opts.Config)
	if err != nil {
		return nil, err
	}

	state, err := rt.Genesis()
	if err != nil {
		return nil, err
	}

	report := &SimulationReport{
		Runtime:     bundle.Runtime.Name,
		HookOrder:   rt.HookOrder(),
		GenesisKeys: state.Keys(),
		Blocks:      make([]BlockReport, 0, blocks),
		Unsigned:    make([]UnsignedReport, 0, rt.Codec().Len()),
	}

	for n := uint64(1); n <= uint64(blocks); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data := InherentData{}
		for _, source := range sources {
			data.Put(source, []byte(strconv.FormatUint(n, 10)))
		}
		block := Block{Number: n, Extrinsics: rt.CreateInherents(data)}

		br := BlockReport{Number: n, Extrinsics: []string{}}
		for _, xt := range block.Extrinsics {
			enc, err := rt.Codec().Encode(xt.Call)
			if err != nil {
				br.Extrinsics = append(br.Extrinsics, xt.Call.Module+": "+err.Error())
				continue
			}
			br.Extrinsics = append(br.Extrinsics, hex.EncodeToString(enc))
		}

		trace.reset()
		if err := rt.ExecuteBlock(ctx, block, data); err != nil {
			br.Error = err.Error()
		}
		br.Hooks = trace.calls()
		report.Blocks = append(report.Blocks, br)
	}

	for _, v := range bundle.Call.Variants {
		verdict := rt.ValidateUnsigned(Call{Module: v.Name})
		report.Unsigned = append(report.Unsigned, UnsignedReport{
			Call:    v.Name,
			Outcome: verdict.Outcome.String(),
			Module:  verdict.Module,
			Reason:  verdict.Reason,
		})
	}
	return report, nil
}

type hookTrace struct {
	mu  sync.Mutex
	log []string
}

func (t *hookTrace) add(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log = append(t.log, s)
}

func (t *hookTrace) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log = nil
}

func (t *hookTrace) calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.log...)
}

// standIn implements every optional module interface.
type standIn struct {
	name   string
	source string
	trace  *hookTrace
}

func (m *standIn) OnInitialize(_ context.Context, n uint64) error {
	m.trace.add(fmt.Sprintf("initialize %s #%d", m.name, n))
	return nil
}

func (m *standIn) OnFinalize(_ context.Context, n uint64) error {
	m.trace.add(fmt.Sprintf("finalize %s #%d", m.name, n))
	return nil
}

func (m *standIn) CreateInherent(data InherentData) ([]byte, bool) {
	return data.Get(m.source)
}

func (m *standIn) CheckInherent(payload []byte, data InherentData) error {
	want, ok := data.Get(m.source)
	if !ok {
		return fmt.Errorf("no inherent data for %s", m.source)
	}
	if string(payload) != string(want) {
		return fmt.Errorf("payload %q, want %q", payload, want)
	}
	return nil
}

func (m *standIn) ValidateUnsigned(call Call) TransactionValidity {
	if call.Module != m.name {
		return TransactionValidity{Outcome: Unknown}
	}
	return TransactionValidity{Outcome: Valid, Priority: 1}
}

func (m *standIn) BuildGenesis(s *Storage) error {
	s.Put(m.name+":genesis", []byte(m.name))
	return nil
}
