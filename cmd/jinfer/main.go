package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/funvibe/jinfer/internal/config"
	"github.com/funvibe/jinfer/internal/infer"
	"github.com/funvibe/jinfer/internal/scenario"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-trace] [-dump] [-options file.yml] <scenario.yml> [more.yml...]\n", os.Args[0])
	os.Exit(1)
}

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r) // Re-panic to get stack trace
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	opts := config.DefaultOptions()
	var files []string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-trace" || arg == "--trace":
			opts.Trace = true
		case arg == "-dump" || arg == "--dump":
			opts.Trace = true
			opts.Dump = true
		case arg == "-options" || arg == "--options":
			if i+1 >= len(args) {
				usage()
			}
			i++
			loaded, err := config.LoadOptions(args[i])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			loaded.Trace = loaded.Trace || opts.Trace
			loaded.Dump = loaded.Dump || opts.Dump
			opts = loaded
		case arg == "-help" || arg == "--help":
			usage()
		case strings.HasPrefix(arg, "-"):
			fmt.Fprintf(os.Stderr, "Unknown flag: %s\n", arg)
			usage()
		default:
			files = append(files, arg)
		}
	}
	if len(files) == 0 {
		usage()
	}

	exitCode := 0
	for _, path := range files {
		if len(files) > 1 {
			fmt.Printf("\n=== %s ===\n", path)
		}
		if !runScenario(path, opts) {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

// runScenario resolves every call site of one scenario file and prints
// the outcomes. It returns false when any site failed to resolve.
func runScenario(path string, opts config.Options) bool {
	sc, err := scenario.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return false
	}

	// File-level options yield to explicit flags.
	if opts.MaxRecursionDepth == config.DefaultMaxRecursionDepth && sc.Options.MaxRecursionDepth > 0 {
		opts.MaxRecursionDepth = sc.Options.MaxRecursionDepth
	}
	sc.Options.Trace = sc.Options.Trace || opts.Trace
	sc.Options.Dump = sc.Options.Dump || opts.Dump

	var obs infer.Observer = infer.Noop{}
	if sc.Options.Trace {
		obs = infer.NewTraceObserver(os.Stderr, sc.Options.Dump)
	}

	eng := infer.NewEngine(sc.Table, obs, opts)
	ok := true
	for i, site := range sc.Sites {
		res := eng.Resolve(site)
		label := site.Name
		if site.Location != "" {
			label = site.Location + ": " + label
		}
		fmt.Printf("%2d. %s -> %s  [%s]\n", i+1, label, res.Signature, res.Phase)
		for _, f := range res.Failures {
			fmt.Printf("      failure: %s\n", f.Reason)
		}
		if len(res.Ambiguous) > 1 {
			fmt.Printf("      ambiguous between:\n")
			for _, sig := range res.Ambiguous {
				fmt.Printf("        %s\n", sig)
			}
		}
		if res.Signature.Unresolved {
			ok = false
		}
	}
	return ok
}
