// Package locdata finds the alien location descriptors (LOCDATA struct
// literals) in a parsed comm source file and extracts their ambient
// animation tables.
package locdata

import (
	"fmt"

	"modernc.org/cc/v4"
	"modernc.org/token"
)

// DefaultMarker is the typedef name of the descriptor struct.
const DefaultMarker = "LOCDATA"

// SourceSet provides parser inputs for a file, normally a *cpp.Session.
type SourceSet interface {
	Config() *cc.Config
	Sources(file string) ([]cc.Source, error)
}

// Parse parses one translation unit.
func Parse(cfg *cc.Config, sources []cc.Source) (*cc.AST, error) {
	ast, err := cc.Parse(cfg, sources)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return ast, nil
}

// ParseFile preprocesses and parses file.
func ParseFile(set SourceSet, file string) (*cc.AST, error) {
	srcs, err := set.Sources(file)
	if err != nil {
		return nil, err
	}
	ast, err := cc.Parse(set.Config(), srcs)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return ast, nil
}

// ── Locating descriptors ────────────────────────────────────────────────────

// Rejection says why a top-level declarator is not a descriptor.
type Rejection int

const (
	Accepted             Rejection = iota
	RejectNotDeclaration           // function definition, asm or empty declaration
	RejectTypedef                  // typedef of the marker type
	RejectNotMarker                // some other type
	RejectIndirect                 // pointer, array or function of the marker type
	RejectForeignFile              // declared in an included file
	RejectNoInitializer            // extern or tentative declaration
)

var rejectionNames = [...]string{
	Accepted:             "accepted",
	RejectNotDeclaration: "not a declaration",
	RejectTypedef:        "typedef",
	RejectNotMarker:      "not the marker type",
	RejectIndirect:       "indirect declarator",
	RejectForeignFile:    "declared in another file",
	RejectNoInitializer:  "no initializer",
}

func (r Rejection) String() string {
	if r >= 0 && int(r) < len(rejectionNames) {
		return rejectionNames[r]
	}
	return fmt.Sprintf("Rejection(%d)", int(r))
}

// Candidate is one classified top-level declarator.
type Candidate struct {
	Name   string
	Pos    token.Position
	Reason Rejection
	Init   *cc.Initializer
}

// Desc is an accepted descriptor declaration.
type Desc struct {
	Name string
	Pos  token.Position
	Init *cc.Initializer
}

// Classify reports every declarator of ex with the reason it is or is not a
// descriptor of type marker defined in file.
func Classify(ex *cc.ExternalDeclaration, marker, file string) []Candidate {
	if ex == nil {
		return nil
	}
	if ex.Case != cc.ExternalDeclarationDecl || ex.Declaration == nil || ex.Declaration.Case != cc.DeclarationDecl {
		c := Candidate{Pos: ex.Position(), Reason: RejectNotDeclaration}
		if ex.FunctionDefinition != nil {
			c.Name = ex.FunctionDefinition.Declarator.Name()
		}
		return []Candidate{c}
	}

	decl := ex.Declaration
	typedef := isTypedef(decl.DeclarationSpecifiers)
	named := namesType(decl.DeclarationSpecifiers, marker)
	foreign := ex.Position().Filename != file

	var out []Candidate
	for l := decl.InitDeclaratorList; l != nil; l = l.InitDeclaratorList {
		d := l.InitDeclarator
		if d == nil || d.Declarator == nil {
			continue
		}
		c := Candidate{
			Name: d.Declarator.Name(),
			Pos:  d.Declarator.NameTok().Position(),
			Init: d.Initializer,
		}
		switch {
		case typedef:
			c.Reason = RejectTypedef
		case !named:
			c.Reason = RejectNotMarker
		case !isDirect(d.Declarator):
			c.Reason = RejectIndirect
		case foreign:
			c.Reason = RejectForeignFile
		case d.Case != cc.InitDeclaratorInit || d.Initializer == nil:
			c.Reason = RejectNoInitializer
		}
		out = append(out, c)
	}
	return out
}

// Locate returns the descriptors declared in file, in source order, and
// every rejected candidate.
func Locate(ast *cc.AST, marker, file string) (descs []Desc, rejected []Candidate) {
	for tu := ast.TranslationUnit; tu != nil; tu = tu.TranslationUnit {
		for _, c := range Classify(tu.ExternalDeclaration, marker, file) {
			if c.Reason != Accepted {
				rejected = append(rejected, c)
				continue
			}
			descs = append(descs, Desc{Name: c.Name, Pos: c.Pos, Init: c.Init})
		}
	}
	return descs, rejected
}

func isTypedef(ds *cc.DeclarationSpecifiers) bool {
	for ; ds != nil; ds = ds.DeclarationSpecifiers {
		if ds.Case == cc.DeclarationSpecifiersStorage && ds.StorageClassSpecifier != nil &&
			ds.StorageClassSpecifier.Case == cc.StorageClassSpecifierTypedef {
			return true
		}
	}
	return false
}

// namesType reports whether the specifiers name the typedef name.
func namesType(ds *cc.DeclarationSpecifiers, name string) bool {
	return typeSpecifier(ds, func(ts *cc.TypeSpecifier) bool {
		return ts.Case == cc.TypeSpecifierTypeName && ts.Token.SrcStr() == name
	}) != nil
}

func typeSpecifier(ds *cc.DeclarationSpecifiers, match func(*cc.TypeSpecifier) bool) *cc.TypeSpecifier {
	for ; ds != nil; ds = ds.DeclarationSpecifiers {
		if ds.Case == cc.DeclarationSpecifiersTypeSpec && ds.TypeSpecifier != nil && match(ds.TypeSpecifier) {
			return ds.TypeSpecifier
		}
	}
	return nil
}

func isDirect(d *cc.Declarator) bool {
	return d.Pointer == nil && d.DirectDeclarator != nil && d.DirectDeclarator.Case == cc.DirectDeclaratorIdent
}
