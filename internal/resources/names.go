// Package resources builds, writes and reads the Android XML resource files
// that carry the alien ambient animation tables.
//
// A file for race R holds a string-array R_content with the content pack
// directory names of the race, one integer-array R_anim<i> per animation,
// and a string-array R listing the other arrays. The wallpaper resolves
// everything through the R array.
package resources

import (
	"maps"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Aliases maps a race id to the other names its content pack directory has
// been published under.
type Aliases map[string][]string

// DefaultAliases returns the built-in alias table.
func DefaultAliases() Aliases {
	return Aliases{
		"blackur": {"kohrah"},
		"comandr": {"commander"},
		"starbas": {"comandr", "commander"},
		"melnorm": {"melnorme"},
		"shofixt": {"shofixti"},
		"slyland": {"slylandro"},
		"talkpet": {"talkingpet"},
		"thradd":  {"thraddash"},
		"zoqfot":  {"zoqfotpik"},
	}
}

// Lookup returns id followed by its alternates.
func (a Aliases) Lookup(id string) []string {
	return append([]string{id}, a[id]...)
}

// Merge returns a copy of a with the entries of extra added or replaced.
func (a Aliases) Merge(extra map[string][]string) Aliases {
	out := maps.Clone(a)
	if out == nil {
		out = Aliases{}
	}
	for id, alt := range extra {
		out[id] = slices.Clone(alt)
	}
	return out
}

// Race returns the race id of a comm source file: the name of the directory
// that contains it.
func Race(input string) string {
	dir := filepath.Dir(input)
	if dir == "." {
		if abs, err := filepath.Abs(input); err == nil {
			dir = filepath.Dir(abs)
		}
	}
	return filepath.Base(dir)
}

// VariantSuffix returns what follows "desc" in a descriptor name, such as
// "_hi" for thradd_desc_hi. The 1x descriptors and plain names have no
// suffix.
func VariantSuffix(name string) string {
	for i := 0; ; {
		j := strings.Index(name[i:], "desc")
		if j < 0 {
			return ""
		}
		rest := name[i+j+len("desc"):]
		if rest != "" && !strings.HasPrefix(rest, "_1x") {
			return rest
		}
		i += j + 1
	}
}

// FileName returns the output file name for descriptor name of race.
func FileName(race, name string) string {
	return race + VariantSuffix(name) + ".xml"
}

// ContentName, AnimationName and LookupName return the array names used for
// race.
func ContentName(race string) string { return race + "_content" }

func AnimationName(race string, i int) string {
	return race + "_anim" + strconv.Itoa(i)
}

func LookupName(race string) string { return race }
