package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/damischa1/uqm-resource-tools/internal/cpp"
	"github.com/damischa1/uqm-resource-tools/internal/resources"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate: %v", err)
	}
	opts := cfg.Session()
	if opts.Mode != cpp.External || opts.Program != "gcc" || opts.OneSecond != 1000 {
		t.Fatalf("Session = %+v", opts)
	}
	if got := strings.Join(opts.Args, " "); got != "-E -U__BLOCKS__" {
		t.Fatalf("Args = %q", got)
	}
	if cfg.Order() != resources.Ascending {
		t.Fatalf("Order = %q, want %q", cfg.Order(), resources.Ascending)
	}
	if f := cfg.Fields(); f.Count != "NumAnimations" || f.Array != "AlienAmbientArray" {
		t.Fatalf("Fields = %+v", f)
	}

	// Defaults must not share slices with the package tables.
	cfg.Preprocessor.IncludeDirs[0] = "changed"
	if cpp.DefaultIncludeDirs[0] == "changed" {
		t.Fatal("Default shares IncludeDirs with cpp.DefaultIncludeDirs")
	}
}

func TestDecode(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
one_second: 840
lookup_order: descending
preprocessor:
  mode: internal
  include_dirs: [sc2/src, sc2/src/libs]
formatter:
  enabled: false
aliases:
  mycelium: [mycon]
`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.OneSecond != 840 || cfg.Order() != resources.Descending {
		t.Fatalf("Decode = %+v", cfg)
	}
	if cfg.Preprocessor.Mode != "internal" || cfg.Preprocessor.Program != "gcc" {
		t.Fatalf("Preprocessor = %+v", cfg.Preprocessor)
	}
	if want := []string{"sc2/src", "sc2/src/libs"}; !reflect.DeepEqual(cfg.Preprocessor.IncludeDirs, want) {
		t.Fatalf("IncludeDirs = %v, want %v", cfg.Preprocessor.IncludeDirs, want)
	}
	if cfg.Formatter.Enabled || cfg.Formatter.Program != "xmllint" {
		t.Fatalf("Formatter = %+v", cfg.Formatter)
	}
	if cfg.Marker != "LOCDATA" {
		t.Fatalf("Marker = %q, want default", cfg.Marker)
	}
	aliases := cfg.AliasTable()
	if got := aliases.Lookup("mycelium"); !reflect.DeepEqual(got, []string{"mycelium", "mycon"}) {
		t.Fatalf("Lookup(mycelium) = %v", got)
	}
	if got := aliases.Lookup("comandr"); !reflect.DeepEqual(got, []string{"comandr", "commander"}) {
		t.Fatalf("Lookup(comandr) = %v", got)
	}
}

func TestDecodeEmpty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode(empty): %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("Decode(empty) = %+v, want defaults", cfg)
	}
}

func TestDecodeErrors(t *testing.T) {
	for name, src := range map[string]string{
		"unknown key":   "markr: LOCDATA\n",
		"bad mode":      "preprocessor:\n  mode: clang\n",
		"bad order":     "lookup_order: sideways\n",
		"zero second":   "one_second: 0\n",
		"empty marker":  "marker: \"\"\n",
		"wrong type":    "one_second: fast\n",
		"empty field":   "array_field: \"\"\n",
		"nested key":    "formatter:\n  enable: true\n",
		"not a mapping": "- a\n- b\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(src)); err == nil {
				t.Fatalf("Decode(%q) succeeded, want error", src)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mkresources.yaml")
	if err := os.WriteFile(path, []byte("output_dir: res/values\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "res/values" {
		t.Fatalf("OutputDir = %q", cfg.OutputDir)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load of a missing file succeeded, want error")
	}
}
