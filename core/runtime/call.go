package runtime

import (
	"errors"
	"fmt"

	"github.com/artpar/construct/core/artifact"
)

var (
	// ErrUnknownCall is returned for a call whose module has no Call variant.
	ErrUnknownCall = errors.New("unknown call variant")

	// ErrEmptyCall is returned when decoding an empty buffer.
	ErrEmptyCall = errors.New("empty call")
)

// maxVariants is the number of variants addressable by the one-byte index.
const maxVariants = 256

// Call is a dispatchable call addressed to a module's call variant.
type Call struct {
	// Module is the binding name of the call variant.
	Module string

	// Payload is the module-specific encoded call.
	Payload []byte
}

// Extrinsic is a call included in a block.
type Extrinsic struct {
	Call   Call
	Signed bool
}

// Block is an ordered list of extrinsics.
type Block struct {
	Number     uint64
	Extrinsics []Extrinsic
}

// CallCodec encodes calls as a variant index byte followed by the payload.
// Indices come from the outer call, so the encoding of a call is stable only
// while the declaration order of Call modules is.
type CallCodec struct {
	variants []artifact.CallVariant
	index    map[string]int
}

// NewCallCodec creates a codec for an outer call.
func NewCallCodec(call artifact.OuterCall) (*CallCodec, error) {
	if len(call.Variants) > maxVariants {
		return nil, fmt.Errorf("outer call has %d variants, at most %d are addressable", len(call.Variants), maxVariants)
	}

	c := &CallCodec{
		variants: make([]artifact.CallVariant, len(call.Variants)),
		index:    make(map[string]int, len(call.Variants)),
	}
	for i, v := range call.Variants {
		if v.Index != i {
			return nil, fmt.Errorf("call variant %s has index %d at position %d", v.Name, v.Index, i)
		}
		if _, dup := c.index[v.Name]; dup {
			return nil, fmt.Errorf("call variant %s declared twice", v.Name)
		}
		c.variants[i] = v
		c.index[v.Name] = i
	}
	return c, nil
}

// Encode returns the wire form of a call.
func (c *CallCodec) Encode(call Call) ([]byte, error) {
	i, ok := c.index[call.Module]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCall, call.Module)
	}
	out := make([]byte, 0, 1+len(call.Payload))
	out = append(out, byte(i))
	return append(out, call.Payload...), nil
}

// Decode parses the wire form of a call.
func (c *CallCodec) Decode(b []byte) (Call, error) {
	if len(b) == 0 {
		return Call{}, ErrEmptyCall
	}
	i := int(b[0])
	if i >= len(c.variants) {
		return Call{}, fmt.Errorf("%w: index %d", ErrUnknownCall, i)
	}
	return Call{
		Module:  c.variants[i].Name,
		Payload: append([]byte(nil), b[1:]...),
	}, nil
}

// Variant returns the call variant of a module.
func (c *CallCodec) Variant(module string) (artifact.CallVariant, bool) {
	i, ok := c.index[module]
	if !ok {
		return artifact.CallVariant{}, false
	}
	return c.variants[i], true
}

// Len returns the number of call variants.
func (c *CallCodec) Len() int {
	return len(c.variants)
}
