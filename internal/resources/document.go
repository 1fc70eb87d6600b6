package resources

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
)

// LookupOrder is the order of the animation names in the lookup array.
type LookupOrder string

const (
	// Ascending lists R_anim0 first.
	Ascending LookupOrder = "ascending"
	// Descending lists the last animation first, the order in which the
	// game starts ambient animations.
	Descending LookupOrder = "descending"
)

// ParseLookupOrder validates a lookup order name. The empty string is
// Ascending.
func ParseLookupOrder(s string) (LookupOrder, error) {
	switch o := LookupOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return Ascending, nil
	case Ascending, Descending:
		return o, nil
	}
	return "", fmt.Errorf("unknown lookup order %q (want %q or %q)", s, Ascending, Descending)
}

// Document is the content of one resource file.
type Document struct {
	Race       string
	Source     string // input file named in the header comment
	Content    []string
	Animations [][]int64
	Order      LookupOrder
}

// Lookup returns the names listed by the lookup array: the content array
// followed by the animation arrays in d.Order.
func (d Document) Lookup() []string {
	names := []string{ContentName(d.Race)}
	n := len(d.Animations)
	for i := 0; i < n; i++ {
		if d.Order == Descending {
			names = append(names, AnimationName(d.Race, n-1-i))
			continue
		}
		names = append(names, AnimationName(d.Race, i))
	}
	return names
}

// Build renders d as an XML document.
func Build(d Document) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	doc.CreateComment(" auto-generated from " + commentText(d.Source) + " ")

	root := doc.CreateElement("resources")
	stringArray(root, ContentName(d.Race), d.Content)
	for i, anim := range d.Animations {
		ia := root.CreateElement("integer-array")
		ia.CreateAttr("name", AnimationName(d.Race, i))
		for _, v := range anim {
			ia.CreateElement("item").SetText(strconv.FormatInt(v, 10))
		}
	}
	stringArray(root, LookupName(d.Race), d.Lookup())

	doc.Indent(2)
	return doc
}

// commentText makes s safe inside an XML comment, which must not contain "--".
func commentText(s string) string {
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "- -")
	}
	return s
}

func stringArray(parent *etree.Element, name string, items []string) {
	sa := parent.CreateElement("string-array")
	sa.CreateAttr("name", name)
	for _, it := range items {
		sa.CreateElement("item").SetText(it)
	}
}

// Write writes doc to path, replacing any existing file.
func Write(doc *etree.Document, path string) error {
	b, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ── Formatter ───────────────────────────────────────────────────────────────

// Default formatter invocation; "--output F F" is appended.
var (
	DefaultFormatter     = "xmllint"
	DefaultFormatterArgs = []string{"--format", "--encode", "utf-8"}
)

// Formatter pretty-prints a written file in place with an external program.
type Formatter struct {
	Program string
	Args    []string
	Log     zerolog.Logger
}

// Format runs the formatter on path.
func (f Formatter) Format(path string) error {
	prog := f.Program
	if prog == "" {
		prog = DefaultFormatter
	}
	args := f.Args
	if args == nil {
		args = DefaultFormatterArgs
	}
	args = append(append([]string(nil), args...), "--output", path, path)

	f.Log.Debug().Str("program", prog).Strs("args", args).Msg("format")
	cmd := exec.Command(prog, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return fmt.Errorf("format %s: %w\n%s", path, err, msg)
		}
		return fmt.Errorf("format %s: %w", path, err)
	}
	return nil
}
