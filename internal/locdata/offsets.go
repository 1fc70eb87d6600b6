package locdata

import (
	"errors"
	"fmt"

	"modernc.org/cc/v4"
)

// ErrNoMarkerType is returned when the translation unit has no usable
// typedef for the descriptor struct.
var ErrNoMarkerType = errors.New("descriptor typedef not found")

// Offsets maps member names of the descriptor struct to their positions.
type Offsets struct {
	Names []string // in declaration order; "" for an anonymous member
	index map[string]int
}

// NewOffsets builds an Offsets from member names in declaration order.
func NewOffsets(names ...string) Offsets {
	o := Offsets{Names: names, index: make(map[string]int, len(names))}
	for i, n := range names {
		if n == "" {
			continue
		}
		if _, dup := o.index[n]; !dup {
			o.index[n] = i
		}
	}
	return o
}

// Index returns the position of member name.
func (o Offsets) Index(name string) (int, bool) {
	i, ok := o.index[name]
	return i, ok
}

// Len returns the number of positional members.
func (o Offsets) Len() int { return len(o.Names) }

// FindTypedef returns the first typedef declaration that declares name,
// along with its specifiers. Only top-level declarations are searched.
func FindTypedef(ast *cc.AST, name string) (*cc.Declaration, bool) {
	for tu := ast.TranslationUnit; tu != nil; tu = tu.TranslationUnit {
		ex := tu.ExternalDeclaration
		if ex == nil || ex.Case != cc.ExternalDeclarationDecl || ex.Declaration == nil {
			continue
		}
		decl := ex.Declaration
		if decl.Case != cc.DeclarationDecl || !isTypedef(decl.DeclarationSpecifiers) {
			continue
		}
		for l := decl.InitDeclaratorList; l != nil; l = l.InitDeclaratorList {
			if d := l.InitDeclarator; d != nil && isDirect(d.Declarator) && d.Declarator.Name() == name {
				return decl, true
			}
		}
	}
	return nil, false
}

// findStruct returns the first top-level definition of struct or union tag.
func findStruct(ast *cc.AST, tag string) *cc.StructOrUnionSpecifier {
	for tu := ast.TranslationUnit; tu != nil; tu = tu.TranslationUnit {
		ex := tu.ExternalDeclaration
		if ex == nil || ex.Case != cc.ExternalDeclarationDecl || ex.Declaration == nil {
			continue
		}
		ts := typeSpecifier(ex.Declaration.DeclarationSpecifiers, func(ts *cc.TypeSpecifier) bool {
			s := ts.StructOrUnionSpecifier
			return ts.Case == cc.TypeSpecifierStructOrUnion && s != nil &&
				s.Case == cc.StructOrUnionSpecifierDef && s.Token.SrcStr() == tag
		})
		if ts != nil {
			return ts.StructOrUnionSpecifier
		}
	}
	return nil
}

// maxTypedefChain bounds typedef-of-typedef resolution.
const maxTypedefChain = 8

// FieldOffsets resolves typedef marker to its struct definition and numbers
// the struct's direct members from zero. A typedef naming a struct tag or
// another typedef is followed. Nested members are not descended.
func FieldOffsets(ast *cc.AST, marker string) (Offsets, error) {
	name := marker
	for j := 0; j < maxTypedefChain; j++ {
		decl, ok := FindTypedef(ast, name)
		if !ok {
			return Offsets{}, fmt.Errorf("%w: %s", ErrNoMarkerType, name)
		}
		ds := decl.DeclarationSpecifiers
		if ts := typeSpecifier(ds, func(ts *cc.TypeSpecifier) bool {
			return ts.Case == cc.TypeSpecifierStructOrUnion && ts.StructOrUnionSpecifier != nil
		}); ts != nil {
			s := ts.StructOrUnionSpecifier
			if s.Case != cc.StructOrUnionSpecifierDef {
				tag := s.Token.SrcStr()
				if s = findStruct(ast, tag); s == nil {
					return Offsets{}, fmt.Errorf("%w: %s names undefined struct %s", ErrNoMarkerType, name, tag)
				}
			}
			return structOffsets(s), nil
		}
		ts := typeSpecifier(ds, func(ts *cc.TypeSpecifier) bool { return ts.Case == cc.TypeSpecifierTypeName })
		if ts == nil {
			return Offsets{}, fmt.Errorf("%w: %s is not a struct type", ErrNoMarkerType, name)
		}
		name = ts.Token.SrcStr()
	}
	return Offsets{}, fmt.Errorf("%w: typedef chain from %s too long", ErrNoMarkerType, marker)
}

func structOffsets(s *cc.StructOrUnionSpecifier) Offsets {
	var names []string
	for l := s.StructDeclarationList; l != nil; l = l.StructDeclarationList {
		sd := l.StructDeclaration
		if sd == nil || sd.Case != cc.StructDeclarationDecl {
			continue
		}
		if sd.StructDeclaratorList == nil {
			// anonymous struct or union member
			names = append(names, "")
			continue
		}
		for dl := sd.StructDeclaratorList; dl != nil; dl = dl.StructDeclaratorList {
			if d := dl.StructDeclarator; d != nil && d.Declarator != nil {
				names = append(names, d.Declarator.Name())
			}
		}
	}
	return NewOffsets(names...)
}
