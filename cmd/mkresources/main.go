// mkresources - alien ambient animation exporter
// Extracts the ambient animation tables of UQM communication screens into
// Android XML resource files.
//
// Every input is a C file declaring one or more LOCDATA descriptors. The file
// is run through the C preprocessor with a small compatibility header, parsed,
// and for every descriptor with at least one animation a resource file named
// after the race directory is written:
//
//	<race>_content   string-array  race id followed by its content aliases
//	<race>_anim<i>   integer-array one ANIMATION_DESC per array
//	<race>           string-array  names of the arrays above
//
// Usage:
//
//	mkresources [flags] <file.c>...
//
// Flags:
//
//	-c, --config         YAML configuration file
//	-o, --output-dir     directory for the written files (default ".")
//	-I, --include        extra include directory (repeatable)
//	    --cpp            external preprocessor program (default "gcc")
//	    --internal-cpp   use the built-in preprocessor instead of --cpp
//	    --[no-]format    run the formatter on written files (default on)
//	    --formatter      formatter program (default "xmllint")
//	    --lookup-order   ascending or descending
//	-v, --verbose        debug logging
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"github.com/rs/zerolog"

	"github.com/damischa1/uqm-resource-tools/internal/config"
	"github.com/damischa1/uqm-resource-tools/internal/cpp"
	"github.com/damischa1/uqm-resource-tools/internal/locdata"
	"github.com/damischa1/uqm-resource-tools/internal/resources"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// ── Command line ────────────────────────────────────────────────────────────

type flags struct {
	config      string
	outputDir   string
	include     []string
	cpp         string
	internalCPP bool
	format      bool
	formatSet   bool
	formatter   string
	lookupOrder string
	verbose     bool
	inputs      []string
}

func newApp(f *flags, stderr io.Writer, exited *int) *kingpin.Application {
	app := kingpin.New("mkresources", "Convert UQM alien ambient animations to Android XML resources.")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.Terminate(func(code int) {
		if *exited < 0 {
			*exited = code
		}
	})

	app.Flag("config", "YAML configuration file.").Short('c').PlaceHolder("FILE").StringVar(&f.config)
	app.Flag("output-dir", "Directory for the written files.").Short('o').PlaceHolder("DIR").StringVar(&f.outputDir)
	app.Flag("include", "Extra include directory (repeatable).").Short('I').PlaceHolder("DIR").StringsVar(&f.include)
	app.Flag("cpp", "External preprocessor program.").PlaceHolder("PROG").StringVar(&f.cpp)
	app.Flag("internal-cpp", "Use the built-in preprocessor.").BoolVar(&f.internalCPP)
	app.Flag("format", "Run the formatter on written files.").Default("true").IsSetByUser(&f.formatSet).BoolVar(&f.format)
	app.Flag("formatter", "Formatter program.").PlaceHolder("PROG").StringVar(&f.formatter)
	app.Flag("lookup-order", "Order of the animation names in the lookup array.").
		EnumVar(&f.lookupOrder, string(resources.Ascending), string(resources.Descending))
	app.Flag("verbose", "Debug logging.").Short('v').BoolVar(&f.verbose)
	app.Arg("files", "C files declaring LOCDATA descriptors.").StringsVar(&f.inputs)
	return app
}

// settings layers the command line over the configuration file over the
// defaults.
func settings(f flags) (config.Config, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return config.Config{}, err
		}
	}
	if f.outputDir != "" {
		cfg.OutputDir = f.outputDir
	}
	if len(f.include) > 0 {
		cfg.Preprocessor.IncludeDirs = append(append([]string(nil), f.include...), cfg.Preprocessor.IncludeDirs...)
	}
	if f.cpp != "" {
		cfg.Preprocessor.Program = f.cpp
	}
	if f.internalCPP {
		cfg.Preprocessor.Mode = string(cpp.Internal)
	}
	if f.formatSet {
		cfg.Formatter.Enabled = f.format
	}
	if f.formatter != "" {
		cfg.Formatter.Program = f.formatter
	}
	if f.lookupOrder != "" {
		cfg.LookupOrder = f.lookupOrder
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}
	return zerolog.New(out).Level(level)
}

func run(args []string, stdout, stderr io.Writer) int {
	var f flags
	exited := -1
	app := newApp(&f, stderr, &exited)
	if _, err := app.Parse(args); err != nil {
		fmt.Fprintf(stderr, "mkresources: error: %v\n\n", err)
		app.Usage(nil)
		return 1
	}
	if exited >= 0 {
		return exited
	}
	if len(f.inputs) == 0 {
		app.Usage(nil)
		return 1
	}

	log := newLogger(stderr, f.verbose)
	cfg, err := settings(f)
	if err != nil {
		log.Error().Err(err).Msg("configuration")
		return 1
	}
	if err := convert(cfg, f.inputs, stdout, log); err != nil {
		log.Error().Err(err).Msg("mkresources failed")
		return 1
	}
	return 0
}

// ── Conversion ──────────────────────────────────────────────────────────────

func convert(cfg config.Config, inputs []string, stdout io.Writer, log zerolog.Logger) error {
	opts := cfg.Session()
	opts.Log = log
	session, err := cpp.NewSession(opts)
	if err != nil {
		return err
	}
	defer session.Close()

	scanner := locdata.Scanner{Marker: cfg.Marker, Fields: cfg.Fields(), Log: log}
	var formatter *resources.Formatter
	if cfg.Formatter.Enabled {
		formatter = &resources.Formatter{Program: cfg.Formatter.Program, Args: cfg.Formatter.Args, Log: log}
	}
	aliases := cfg.AliasTable()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return err
	}
	for _, file := range inputs {
		ast, err := locdata.ParseFile(session, file)
		if err != nil {
			return err
		}
		ambients, err := scanner.Scan(ast, file)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		race := resources.Race(file)
		for _, amb := range ambients {
			doc := resources.Build(resources.Document{
				Race:       race,
				Source:     file,
				Content:    aliases.Lookup(race),
				Animations: amb.Animations,
				Order:      cfg.Order(),
			})
			path := filepath.Join(cfg.OutputDir, resources.FileName(race, amb.Name))
			if err := resources.Write(doc, path); err != nil {
				return err
			}
			log.Debug().Str("desc", amb.Name).Int("animations", len(amb.Animations)).Str("path", path).Msg("resource file")
			fmt.Fprintln(stdout, "wrote", path)
			if formatter != nil {
				if err := formatter.Format(path); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
