// resdump - resource file inspector
// Prints the animations of resource files written by mkresources, one
// ANIMATION_DESC per line in the order of the lookup array.
//
// Usage:
//
//	resdump [--flags] <file.xml>...
//
// Flags:
//
//	-f, --flags  also print the animation flag names
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/damischa1/uqm-resource-tools/internal/resources"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		showFlags bool
		inputs    []string
	)
	exited := -1
	app := kingpin.New("resdump", "Print the animations of mkresources output files.")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.Terminate(func(code int) {
		if exited < 0 {
			exited = code
		}
	})
	app.Flag("flags", "Also print the animation flag names.").Short('f').BoolVar(&showFlags)
	app.Arg("files", "Resource files.").StringsVar(&inputs)

	if _, err := app.Parse(args); err != nil {
		fmt.Fprintf(stderr, "resdump: error: %v\n\n", err)
		app.Usage(nil)
		return 1
	}
	if exited >= 0 {
		return exited
	}
	if len(inputs) == 0 {
		app.Usage(nil)
		return 1
	}

	status := 0
	for _, path := range inputs {
		if err := dump(stdout, path, showFlags); err != nil {
			fmt.Fprintln(stderr, "resdump:", err)
			status = 1
		}
	}
	return status
}

func dump(w io.Writer, path string, showFlags bool) error {
	res, err := resources.LoadFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %s %v\n", path, res.Race, res.Content)
	for _, anim := range res.Animations {
		desc, err := resources.DecodeAnimation(anim.Values)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", path, anim.Name, err)
		}
		if showFlags {
			fmt.Fprintf(w, "  %-14s %s %s\n", anim.Name, desc, desc.AnimFlags)
			continue
		}
		fmt.Fprintf(w, "  %-14s %s\n", anim.Name, desc)
	}
	return nil
}
