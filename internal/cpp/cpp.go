// Package cpp runs the C preprocessor over game sources.
//
// A Session owns the compatibility header that is force-included before
// every input. The header pins ONE_SECOND and the time typedefs so the game's
// own time library headers are never pulled in. The session is created once
// per run and must be closed to remove the header.
//
// Two modes are supported. External mode runs a host preprocessor (gcc -E)
// and rewrites its GNU line markers so the parser records the original file
// of every declaration. Internal mode hands the input and the header directly
// to the modernc.org/cc/v4 preprocessor.
package cpp

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"text/template"

	"github.com/rs/zerolog"
	"modernc.org/cc/v4"
)

// Mode selects the preprocessor implementation.
type Mode string

const (
	External Mode = "external"
	Internal Mode = "internal"
)

// ParseMode validates a mode name from configuration.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case External, Internal:
		return m, nil
	case "":
		return External, nil
	}
	return "", fmt.Errorf("unknown preprocessor mode %q (want %q or %q)", s, External, Internal)
}

// Default preprocessor invocation.
var (
	DefaultProgram     = "gcc"
	DefaultArgs        = []string{"-E", "-U__BLOCKS__"}
	DefaultIncludeDirs = []string{
		"build/macosx",
		".",
		"src",
		"src/sc2code",
		"src/sc2code/libs",
		"src/uqm",
		"src/libs",
	}
)

// DefaultOneSecond is the tick rate the header defines when none is set.
const DefaultOneSecond = 1000

// Options configures a Session.
type Options struct {
	Mode        Mode
	Program     string   // external preprocessor, default gcc
	Args        []string // arguments placed before -I and -include
	IncludeDirs []string
	OneSecond   int
	TempDir     string // where the header is created, default os.TempDir()
	Log         zerolog.Logger
}

// Session holds the compatibility header and the parser configuration for
// one run.
type Session struct {
	opts   Options
	cfg    *cc.Config
	header string
}

// NewSession writes the compatibility header and prepares the parser
// configuration. The caller must call Close.
func NewSession(opts Options) (*Session, error) {
	if opts.Mode == "" {
		opts.Mode = External
	}
	if opts.Program == "" {
		opts.Program = DefaultProgram
	}
	if opts.Args == nil {
		opts.Args = DefaultArgs
	}
	if opts.IncludeDirs == nil {
		opts.IncludeDirs = DefaultIncludeDirs
	}
	if opts.OneSecond == 0 {
		opts.OneSecond = DefaultOneSecond
	}
	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}

	cfg, err := cc.NewConfig(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return nil, fmt.Errorf("configure C parser: %w", err)
	}
	if opts.Mode == Internal {
		cfg.IncludePaths = append(append([]string{""}, opts.IncludeDirs...), cfg.IncludePaths...)
		cfg.SysIncludePaths = append(append([]string(nil), opts.IncludeDirs...), cfg.SysIncludePaths...)
	}

	f, err := os.CreateTemp(opts.TempDir, "mkresources-*.h")
	if err != nil {
		return nil, fmt.Errorf("create compatibility header: %w", err)
	}
	if err := headerTemplate.Execute(f, opts); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write compatibility header: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("write compatibility header: %w", err)
	}
	opts.Log.Debug().Str("header", f.Name()).Str("mode", string(opts.Mode)).Msg("preprocessor session")
	return &Session{opts: opts, cfg: cfg, header: f.Name()}, nil
}

// Close removes the compatibility header. It is safe to call more than once.
func (s *Session) Close() error {
	if s.header == "" {
		return nil
	}
	name := s.header
	s.header = ""
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Config returns the parser configuration shared by every input.
func (s *Session) Config() *cc.Config { return s.cfg }

// HeaderPath returns the path of the compatibility header.
func (s *Session) HeaderPath() string { return s.header }

// Command returns the external preprocessor command line for file.
func (s *Session) Command(file string) []string {
	args := append([]string{s.opts.Program}, s.opts.Args...)
	for _, dir := range s.opts.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	return append(args, "-include", s.header, file)
}

// Preprocess returns the fully preprocessed text of file. In external mode
// the GNU line markers are already rewritten to #line directives. In
// internal mode the text carries no position information.
func (s *Session) Preprocess(file string) ([]byte, error) {
	if s.header == "" {
		return nil, fmt.Errorf("preprocess %s: session closed", file)
	}
	if s.opts.Mode == Internal {
		var buf bytes.Buffer
		if err := cc.Preprocess(s.cfg, s.internalSources(file), &buf); err != nil {
			return nil, fmt.Errorf("preprocess %s: %w", file, err)
		}
		return buf.Bytes(), nil
	}

	argv := s.Command(file)
	s.opts.Log.Debug().Strs("argv", argv).Msg("run preprocessor")
	cmd := exec.Command(argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("preprocess %s: %w\n%s", file, err, msg)
		}
		return nil, fmt.Errorf("preprocess %s: %w", file, err)
	}
	return RewriteLineMarkers(out), nil
}

// Sources returns the parser inputs for file: the predefined macros, the
// builtin declarations and the preprocessed unit.
func (s *Session) Sources(file string) ([]cc.Source, error) {
	if s.opts.Mode == Internal {
		if s.header == "" {
			return nil, fmt.Errorf("preprocess %s: session closed", file)
		}
		return s.internalSources(file), nil
	}
	text, err := s.Preprocess(file)
	if err != nil {
		return nil, err
	}
	return []cc.Source{
		{Name: "<predefined>", Value: s.cfg.Predefined},
		{Name: "<builtin>", Value: cc.Builtin},
		{Name: file, Value: text},
	}, nil
}

func (s *Session) internalSources(file string) []cc.Source {
	return []cc.Source{
		{Name: "<predefined>", Value: s.cfg.Predefined},
		{Name: "<builtin>", Value: cc.Builtin},
		{Name: "<compat>", Value: "#undef __BLOCKS__\n"},
		{Name: s.header},
		{Name: file},
	}
}

// ── Compatibility header ────────────────────────────────────────────────────

var headerTemplate = template.Must(template.New("compat").Parse(`#ifndef _TIMLIB_H
#define _TIMLIB_H
#define TIMELIB SDL
#include "libs/compiler.h"
#if TIMELIB == SDL
#	define ONE_SECOND {{.OneSecond}}
#endif
typedef DWORD TimeCount;
typedef DWORD TimePeriod;
extern void InitTimeSystem (void);
extern void UnInitTimeSystem (void);
extern TimeCount GetTimeCounter (void);
#endif
`))

// ── Line markers ────────────────────────────────────────────────────────────

var lineMarkerRe = regexp.MustCompile(`(?m)^#[ \t]*([0-9]+)[ \t]+("(?:[^"\\\n]|\\.)*")(?:[ \t]+[0-9]+)*[ \t]*\r?$`)

// RewriteLineMarkers converts GNU line markers such as
//
//	# 12 "src/uqm/comm/thradd/strings.h" 2
//
// into standard #line directives, dropping the trailing flags.
func RewriteLineMarkers(src []byte) []byte {
	return lineMarkerRe.ReplaceAll(src, []byte(`#line $1 $2`))
}
