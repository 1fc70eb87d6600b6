package locdata

import (
	"errors"

	"github.com/rs/zerolog"
	"modernc.org/cc/v4"
)

// Scanner extracts the ambient animations of every descriptor in a file.
type Scanner struct {
	Marker string // descriptor typedef, default LOCDATA
	Fields Fields
	Log    zerolog.Logger
}

// Scan locates the descriptors declared in file and extracts the ones that
// have at least one animation. Descriptors whose struct lacks the count or
// array member are skipped with a warning.
func (s Scanner) Scan(ast *cc.AST, file string) ([]Ambient, error) {
	marker := s.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	fields := s.Fields
	if fields.Count == "" {
		fields.Count = DefaultCountField
	}
	if fields.Array == "" {
		fields.Array = DefaultArrayField
	}

	descs, rejected := Locate(ast, marker, file)
	for _, c := range rejected {
		if c.Reason == RejectForeignFile || c.Reason == RejectNoInitializer || c.Reason == RejectIndirect {
			s.Log.Debug().Str("name", c.Name).Str("pos", c.Pos.String()).Stringer("reason", c.Reason).Msg("skip declaration")
		}
	}
	if len(descs) == 0 {
		s.Log.Debug().Str("file", file).Str("marker", marker).Msg("no descriptors")
		return nil, nil
	}

	offs, err := FieldOffsets(ast, marker)
	if err != nil {
		return nil, err
	}

	var out []Ambient
	for _, d := range descs {
		amb, err := Extract(d, offs, fields)
		if errors.Is(err, ErrMissingField) {
			s.Log.Debug().Err(err).Str("name", d.Name).Msg("skip descriptor")
			continue
		}
		if err != nil {
			return nil, err
		}
		if amb.Count < 1 {
			s.Log.Debug().Str("name", d.Name).Int64("count", amb.Count).Msg("no animations, skipped")
			continue
		}
		out = append(out, amb)
	}
	return out, nil
}
