package locdata

import (
	"errors"
	"fmt"

	"modernc.org/cc/v4"

	"github.com/damischa1/uqm-resource-tools/internal/cexpr"
)

var (
	// ErrShape is returned when a descriptor initializer does not have the
	// layout of the descriptor struct.
	ErrShape = errors.New("unexpected initializer shape")
	// ErrMissingField is returned when the descriptor struct lacks a member
	// the extractor reads. Callers skip the descriptor.
	ErrMissingField = errors.New("descriptor struct has no such member")
)

// Default member names read from a descriptor.
const (
	DefaultCountField = "NumAnimations"
	DefaultArrayField = "AlienAmbientArray"
)

// Fields names the descriptor members holding the animation count and the
// animation array.
type Fields struct {
	Count string
	Array string
}

// Ambient is the animation data of one descriptor.
type Ambient struct {
	Name       string
	Count      int64
	Animations [][]int64 // one flattened row per animation; nil when Count < 1
}

// Extract evaluates the animation count of d and, when it is at least one,
// the animation array. Members are matched positionally through offs;
// designated members (.name = value) are honoured.
func Extract(d Desc, offs Offsets, f Fields) (Ambient, error) {
	countIdx, ok := offs.Index(f.Count)
	if !ok {
		return Ambient{}, fmt.Errorf("%s: %w: %s", d.Name, ErrMissingField, f.Count)
	}
	arrayIdx, ok := offs.Index(f.Array)
	if !ok {
		return Ambient{}, fmt.Errorf("%s: %w: %s", d.Name, ErrMissingField, f.Array)
	}

	slots, err := members(d, offs)
	if err != nil {
		return Ambient{}, err
	}

	out := Ambient{Name: d.Name}
	if in := slots[countIdx]; in != nil {
		e, err := cexpr.FromInitializer(in)
		if err != nil {
			return Ambient{}, fmt.Errorf("%s.%s: %w", d.Name, f.Count, err)
		}
		vals, err := cexpr.Flatten(e)
		if err != nil {
			return Ambient{}, fmt.Errorf("%s.%s: %w", d.Name, f.Count, err)
		}
		if len(vals) != 1 {
			return Ambient{}, fmt.Errorf("%v: %s.%s: %w: %d values for a scalar", in.Position(), d.Name, f.Count, ErrShape, len(vals))
		}
		out.Count = vals[0]
	}
	if out.Count < 1 {
		return out, nil
	}

	in := slots[arrayIdx]
	if in == nil {
		return Ambient{}, fmt.Errorf("%v: %s: %w: %s not initialized", d.Pos, d.Name, ErrShape, f.Array)
	}
	if in.Case != cc.InitializerInitList {
		return Ambient{}, fmt.Errorf("%v: %s.%s: %w: not a brace-enclosed list", in.Position(), d.Name, f.Array, ErrShape)
	}
	e, err := cexpr.FromInitializer(in)
	if err != nil {
		return Ambient{}, fmt.Errorf("%s.%s: %w", d.Name, f.Array, err)
	}
	if out.Animations, err = cexpr.EvalRows(e); err != nil {
		return Ambient{}, fmt.Errorf("%s.%s: %w", d.Name, f.Array, err)
	}
	return out, nil
}

// members assigns the top-level initializers of d to member positions.
func members(d Desc, offs Offsets) ([]*cc.Initializer, error) {
	if d.Init == nil || d.Init.Case != cc.InitializerInitList {
		return nil, fmt.Errorf("%v: %s: %w: not a brace-enclosed list", d.Pos, d.Name, ErrShape)
	}
	out := make([]*cc.Initializer, offs.Len())
	pos := 0
	for l := d.Init.InitializerList; l != nil; l = l.InitializerList {
		if l.Designation != nil {
			name, err := fieldDesignator(l.Designation)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", d.Name, err)
			}
			i, ok := offs.Index(name)
			if !ok {
				return nil, fmt.Errorf("%v: %s: %w: no member %s", l.Designation.Position(), d.Name, ErrShape, name)
			}
			pos = i
		}
		if pos >= len(out) {
			return nil, fmt.Errorf("%v: %s: %w: more initializers than members", l.Initializer.Position(), d.Name, ErrShape)
		}
		out[pos] = l.Initializer
		pos++
	}
	return out, nil
}

func fieldDesignator(dn *cc.Designation) (string, error) {
	dl := dn.DesignatorList
	if dl == nil || dl.Designator == nil {
		return "", fmt.Errorf("%v: %w: empty designation", dn.Position(), ErrShape)
	}
	if dl.DesignatorList != nil {
		return "", fmt.Errorf("%v: %w: nested designator %s", dn.Position(), ErrShape, cc.NodeSource(dn))
	}
	switch d := dl.Designator; d.Case {
	case cc.DesignatorField:
		return d.Token2.SrcStr(), nil
	case cc.DesignatorField2:
		return d.Token.SrcStr(), nil
	}
	return "", fmt.Errorf("%v: %w: index designator %s in a struct", dn.Position(), ErrShape, cc.NodeSource(dn))
}
