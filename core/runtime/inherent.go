package runtime

import (
	"errors"
	"fmt"

	"github.com/artpar/construct/core/artifact"
)

// InherentData carries the off-chain data inherents are created and checked
// against, keyed by identifier.
type InherentData map[string][]byte

// Put stores data under an identifier.
func (d InherentData) Put(id string, data []byte) {
	d[id] = data
}

// Get returns the data stored under an identifier.
func (d InherentData) Get(id string) ([]byte, bool) {
	v, ok := d[id]
	return v, ok
}

// InherentProvider is implemented by modules declaring Inherent.
type InherentProvider interface {
	// CreateInherent returns the payload of the inherent call to include,
	// or false when the module has nothing to include.
	CreateInherent(data InherentData) ([]byte, bool)

	// CheckInherent verifies an included inherent call against data.
	CheckInherent(payload []byte, data InherentData) error
}

// InherentError records a failed inherent check of one module.
type InherentError struct {
	Module string
	Index  int
	Err    error
}

func (e *InherentError) Error() string {
	return fmt.Sprintf("inherent %s (extrinsic %d): %v", e.Module, e.Index, e.Err)
}

func (e *InherentError) Unwrap() error {
	return e.Err
}

// CheckResult collects the outcome of checking a block's inherents.
type CheckResult struct {
	Checked int
	Errors  []*InherentError
}

// OK reports whether every check passed.
func (r CheckResult) OK() bool {
	return len(r.Errors) == 0
}

// Err returns the joined check errors, or nil.
func (r CheckResult) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// InherentDispatcher creates and checks inherents for all providing modules.
type InherentDispatcher struct {
	entries   []artifact.InherentEntry
	providers map[string]InherentProvider
}

// NewInherentDispatcher binds providers to the inherent entries. Every entry
// needs a provider registered under its binding name.
func NewInherentDispatcher(set artifact.InherentSet, providers map[string]InherentProvider) (*InherentDispatcher, error) {
	d := &InherentDispatcher{
		entries:   append([]artifact.InherentEntry(nil), set.Entries...),
		providers: make(map[string]InherentProvider, len(set.Entries)),
	}
	var missing []string
	for _, e := range set.Entries {
		p, ok := providers[e.Name]
		if !ok || p == nil {
			missing = append(missing, e.Name)
			continue
		}
		d.providers[e.Name] = p
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("no inherent provider for %v", missing)
	}
	return d, nil
}

// CreateExtrinsics returns the unsigned inherent extrinsics of all modules,
// in declaration order. Each payload is wrapped in the module's call source.
func (d *InherentDispatcher) CreateExtrinsics(data InherentData) []Extrinsic {
	var xts []Extrinsic
	for _, e := range d.entries {
		payload, ok := d.providers[e.Name].CreateInherent(data)
		if !ok {
			continue
		}
		xts = append(xts, Extrinsic{Call: Call{Module: e.CallSource, Payload: payload}})
	}
	return xts
}

// CheckInherents verifies the inherents of a block. Inherents precede signed
// extrinsics, so checking stops at the first signed extrinsic. A failing
// check is recorded and does not prevent the remaining checks.
func (d *InherentDispatcher) CheckInherents(block Block, data InherentData) CheckResult {
	var result CheckResult
	for i, xt := range block.Extrinsics {
		if xt.Signed {
			break
		}
		for _, e := range d.entries {
			if xt.Call.Module != e.CallSource {
				continue
			}
			result.Checked++
			if err := d.providers[e.Name].CheckInherent(xt.Call.Payload, data); err != nil {
				result.Errors = append(result.Errors, &InherentError{Module: e.Name, Index: i, Err: err})
			}
		}
	}
	return result
}
