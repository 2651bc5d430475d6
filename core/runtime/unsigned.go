package runtime

import (
	"fmt"

	"github.com/artpar/construct/core/artifact"
)

// Outcome is the verdict of unsigned transaction validation.
type Outcome int

const (
	// Unknown means the validator does not recognize the call.
	Unknown Outcome = iota
	Valid
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Unknown:
		return "unknown"
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ReasonNoValidator is the rejection reason when no module recognizes a call.
const ReasonNoValidator = "no unsigned validator"

// TransactionValidity is the result of validating an unsigned call.
type TransactionValidity struct {
	Outcome  Outcome
	Priority uint64
	Reason   string

	// Module is the binding that decided the outcome. Empty on default deny.
	Module string
}

// UnsignedValidator is implemented by modules declaring ValidateUnsigned.
type UnsignedValidator interface {
	ValidateUnsigned(call Call) TransactionValidity
}

// UnsignedDispatcher routes unsigned calls to the validating modules.
type UnsignedDispatcher struct {
	modules    []string
	validators map[string]UnsignedValidator
}

// NewUnsignedDispatcher binds validators to the modules of the set. Every
// listed module needs a validator.
func NewUnsignedDispatcher(set artifact.UnsignedSet, validators map[string]UnsignedValidator) (*UnsignedDispatcher, error) {
	d := &UnsignedDispatcher{
		modules:    append([]string(nil), set.Modules...),
		validators: make(map[string]UnsignedValidator, len(set.Modules)),
	}
	for _, name := range set.Modules {
		v, ok := validators[name]
		if !ok || v == nil {
			return nil, fmt.Errorf("no unsigned validator for %s", name)
		}
		d.validators[name] = v
	}
	return d, nil
}

// Validate asks each module in declaration order. The first module that
// recognizes the call decides. A call no module recognizes is invalid.
func (d *UnsignedDispatcher) Validate(call Call) TransactionValidity {
	for _, name := range d.modules {
		v := d.validators[name].ValidateUnsigned(call)
		if v.Outcome == Unknown {
			continue
		}
		v.Module = name
		return v
	}
	return TransactionValidity{Outcome: Invalid, Reason: ReasonNoValidator}
}
