package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"modernc.org/cc/v4"

	"github.com/damischa1/uqm-resource-tools/internal/cpp"
	"github.com/damischa1/uqm-resource-tools/internal/resources"
)

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "usage: mkresources") {
		t.Fatalf("stderr = %q, want usage", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout = %q, want empty", stdout.String())
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--help"}, &stdout, &stderr); code != 0 {
		t.Fatalf("run(--help) = %d, want 0", code)
	}
	for _, flag := range []string{"--[no-]internal-cpp", "--[no-]format", "--lookup-order"} {
		if !strings.Contains(stderr.String(), flag) {
			t.Fatalf("help does not list %s:\n%s", flag, stderr.String())
		}
	}
	if strings.Contains(stderr.String(), "no-format") {
		t.Fatalf("help lists a negative flag name:\n%s", stderr.String())
	}
}

func TestRunBadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"--no-such-flag", "a.c"},
		{"--lookup-order", "sideways", "a.c"},
	} {
		var stdout, stderr bytes.Buffer
		if code := run(args, &stdout, &stderr); code != 1 {
			t.Fatalf("run(%q) = %d, want 1", args, code)
		}
		if !strings.Contains(stderr.String(), "mkresources: error:") {
			t.Fatalf("run(%q) stderr = %q", args, stderr.String())
		}
	}
}

func TestRunBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mkresources.yaml")
	if err := os.WriteFile(path, []byte("one_second: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-c", path, "a.c"}, &stdout, &stderr); code != 1 {
		t.Fatalf("run = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "one_second") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

const compilerH = `typedef unsigned short COUNT;
typedef unsigned char BYTE;
typedef unsigned int DWORD;
`

const commglueH = `#include "libs/compiler.h"
typedef struct {
	COUNT StartIndex;
	BYTE NumFrames;
	BYTE AnimFlags;
	COUNT BaseFrameRate;
	COUNT RandomFrameRate;
	COUNT BaseRestartRate;
	COUNT RandomRestartRate;
	DWORD BlockMask;
} ANIMATION_DESC;
typedef struct {
	const char *AlienFrameRes;
	COUNT NumAnimations;
	ANIMATION_DESC AlienAmbientArray[20];
} LOCDATA;
#define CIRCULAR_ANIM (1 << 1)
`

const thraddC = `#include "commglue.h"
static LOCDATA thradd_desc = {
	"thradd.ani",
	3,
	{
		{ 1, 3, CIRCULAR_ANIM, ONE_SECOND / 15, 0, ONE_SECOND / 30, ONE_SECOND * 3, (1 << 1) },
		{ 4, 5, 1 << 2, ONE_SECOND / 20, 0, ONE_SECOND / 30, ONE_SECOND * 3, 0 },
		{ 9, 2, 1, -1 + 1, 0, 0, 0, 0 },
	},
};
static LOCDATA thradd_desc_1x = { "thradd.ani", 0 };
static LOCDATA thradd_desc_hi = {
	.AlienAmbientArray = { { 1, 2, 3, 4, 5, 6, 7, 8 } },
	.NumAnimations = 1,
};
`

func writeSources(t *testing.T) (root, file string) {
	t.Helper()
	root = t.TempDir()
	file = filepath.Join(root, "comm", "thradd", "thradd.c")
	for path, data := range map[string]string{
		filepath.Join(root, "libs", "compiler.h"): compilerH,
		filepath.Join(root, "commglue.h"):         commglueH,
		file:                                      thraddC,
	} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root, file
}

func TestRunInternal(t *testing.T) {
	hasHostC(t)
	root, file := writeSources(t)
	out := filepath.Join(t.TempDir(), "values")
	args := []string{"--internal-cpp", "--no-format", "-I", root, "-o", out, file}

	var written [][]byte
	for j := 0; j < 2; j++ {
		var stdout, stderr bytes.Buffer
		if code := run(args, &stdout, &stderr); code != 0 {
			t.Fatalf("run = %d\n%s", code, stderr.String())
		}
		want := "wrote " + filepath.Join(out, "thradd.xml") + "\n" +
			"wrote " + filepath.Join(out, "thradd_hi.xml") + "\n"
		if stdout.String() != want {
			t.Fatalf("stdout = %q, want %q", stdout.String(), want)
		}
		if stderr.Len() != 0 {
			t.Fatalf("stderr = %q, want nothing", stderr.String())
		}
		b, err := os.ReadFile(filepath.Join(out, "thradd.xml"))
		if err != nil {
			t.Fatal(err)
		}
		written = append(written, b)
	}
	if !bytes.Equal(written[0], written[1]) {
		t.Fatal("second run wrote a different file")
	}
	if !strings.Contains(string(written[0]), "<!-- auto-generated from "+file+" -->") {
		t.Fatalf("missing header comment:\n%s", written[0])
	}

	res, err := resources.LoadFile(filepath.Join(out, "thradd.xml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if want := []string{"thradd", "thraddash"}; !reflect.DeepEqual(res.Content, want) {
		t.Fatalf("Content = %v, want %v", res.Content, want)
	}
	wantRows := [][]int64{
		{1, 3, 2, 66, 0, 33, 3000, 2},
		{4, 5, 4, 50, 0, 33, 3000, 0},
		{9, 2, 1, 0, 0, 0, 0, 0},
	}
	if len(res.Animations) != len(wantRows) {
		t.Fatalf("%d animations, want %d", len(res.Animations), len(wantRows))
	}
	for i, anim := range res.Animations {
		if !reflect.DeepEqual(anim.Values, wantRows[i]) {
			t.Fatalf("%s = %v, want %v", anim.Name, anim.Values, wantRows[i])
		}
	}

	hi, err := resources.LoadFile(filepath.Join(out, "thradd_hi.xml"))
	if err != nil {
		t.Fatalf("LoadFile(hi): %v", err)
	}
	if len(hi.Animations) != 1 || !reflect.DeepEqual(hi.Animations[0].Values, []int64{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("hi animations = %+v", hi.Animations)
	}
}

func TestRunDescending(t *testing.T) {
	hasHostC(t)
	root, file := writeSources(t)
	out := t.TempDir()
	var stdout, stderr bytes.Buffer
	args := []string{"--internal-cpp", "--no-format", "--lookup-order", "descending", "-I", root, "-o", out, file}
	if code := run(args, &stdout, &stderr); code != 0 {
		t.Fatalf("run = %d\n%s", code, stderr.String())
	}
	res, err := resources.LoadFile(filepath.Join(out, "thradd.xml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := []string{"thradd_content", "thradd_anim2", "thradd_anim1", "thradd_anim0"}
	if !reflect.DeepEqual(res.Lookup, want) {
		t.Fatalf("Lookup = %v, want %v", res.Lookup, want)
	}
}

func hasHostC(t *testing.T) {
	t.Helper()
	if _, err := cc.NewConfig(runtime.GOOS, runtime.GOARCH); err != nil {
		t.Skipf("no host C compiler: %v", err)
	}
}

func TestRunFormatterFailure(t *testing.T) {
	hasHostC(t)
	root, file := writeSources(t)
	out := t.TempDir()
	broken := filepath.Join(t.TempDir(), "no-such-formatter")
	var stdout, stderr bytes.Buffer
	args := []string{"--internal-cpp", "--formatter", broken, "-I", root, "-o", out, file}
	if code := run(args, &stdout, &stderr); code != 1 {
		t.Fatalf("run = %d, want 1", code)
	}
	// The file is reported once written, before the formatter runs.
	if want := "wrote " + filepath.Join(out, "thradd.xml") + "\n"; stdout.String() != want {
		t.Fatalf("stdout = %q, want %q", stdout.String(), want)
	}
	if _, err := os.Stat(filepath.Join(out, "thradd.xml")); err != nil {
		t.Fatalf("thradd.xml not written: %v", err)
	}
}

func TestRunFormatSetting(t *testing.T) {
	hasHostC(t)
	root, file := writeSources(t)
	broken := filepath.Join(t.TempDir(), "no-such-formatter")
	conf := filepath.Join(t.TempDir(), "mkresources.yaml")
	yaml := "preprocessor:\n  mode: internal\nformatter:\n  enabled: false\n  program: " + broken + "\n"
	if err := os.WriteFile(conf, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		args []string
		want int
	}{
		{[]string{"-c", conf}, 0},
		{[]string{"-c", conf, "--format"}, 1},
		{[]string{"-c", conf, "--no-format"}, 0},
	}
	for _, tt := range tests {
		var stdout, stderr bytes.Buffer
		args := append(tt.args, "-I", root, "-o", t.TempDir(), file)
		if code := run(args, &stdout, &stderr); code != tt.want {
			t.Fatalf("run(%q) = %d, want %d\n%s", tt.args, code, tt.want, stderr.String())
		}
	}
}

func TestRunMissingInput(t *testing.T) {
	hasHostC(t)
	var stdout, stderr bytes.Buffer
	missing := filepath.Join(t.TempDir(), "comm", "none", "none.c")
	if code := run([]string{"--internal-cpp", "--no-format", "-o", t.TempDir(), missing}, &stdout, &stderr); code != 1 {
		t.Fatalf("run = %d, want 1", code)
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout = %q, want empty", stdout.String())
	}
}

func TestSettings(t *testing.T) {
	cfg, err := settings(flags{include: []string{"sc2/src", "sc2/src/libs"}})
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	want := append([]string{"sc2/src", "sc2/src/libs"}, cpp.DefaultIncludeDirs...)
	if !reflect.DeepEqual(cfg.Preprocessor.IncludeDirs, want) {
		t.Fatalf("IncludeDirs = %v, want %v", cfg.Preprocessor.IncludeDirs, want)
	}
	if !cfg.Formatter.Enabled {
		t.Fatal("formatter disabled without --no-format")
	}
	cfg, err = settings(flags{format: false, formatSet: true})
	if err != nil || cfg.Formatter.Enabled {
		t.Fatalf("settings(--no-format) = %+v, %v", cfg.Formatter, err)
	}
}
