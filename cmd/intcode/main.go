// Intcode CLI - runs Intcode programs from files or runfiles, and can serve
// machines over HTTP.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/intcode/runfile"
	"github.com/chazu/intcode/server"
	"github.com/chazu/intcode/store"
	"github.com/chazu/intcode/vm"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbosity := flag.Int("v", 0, "Log verbosity (0 = quiet)")
	mode := flag.String("mode", runfile.ModeHalt, "Run mode: halt, output or input")
	inputs := flag.String("input", "", "Comma-separated input values")
	asciiIn := flag.String("ascii", "", "ASCII input text")
	asciiOut := flag.Bool("ascii-out", false, "Render outputs as ASCII text")
	trace := flag.Bool("trace", false, "Log every executed instruction")
	runfilePath := flag.String("runfile", "", "Run from an intcode.toml runfile")
	cachePath := flag.String("cache", "", "SQLite run cache path")
	serveMode := flag.Bool("serve", false, "Start the machine server")
	servePort := flag.Int("port", 4567, "Machine server port (used with --serve)")

	var patches patchFlags
	flag.Var(&patches, "patch", "Patch a memory cell before running, as addr=value (repeatable)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: intcode [options] [program.txt]\n\n")
		fmt.Fprintf(os.Stderr, "Runs an Intcode program and prints its outputs.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  intcode program.txt                  # Run to halt, print outputs\n")
		fmt.Fprintf(os.Stderr, "  intcode -input 1 program.txt         # Seed the input queue\n")
		fmt.Fprintf(os.Stderr, "  intcode -patch 1=12 -patch 2=2 program.txt\n")
		fmt.Fprintf(os.Stderr, "  intcode -runfile day09/              # Run from day09/intcode.toml\n")
		fmt.Fprintf(os.Stderr, "  intcode -trace -v 1 program.txt      # Per-instruction trace\n")
		fmt.Fprintf(os.Stderr, "  intcode --serve --port 8080          # Serve machines over HTTP\n")
	}
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	if *serveMode {
		srv := server.New()
		addr := fmt.Sprintf(":%d", *servePort)
		if err := srv.ListenAndServe(addr); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	r, err := prepareRun(*runfilePath, flag.Args(), *mode, *inputs, *asciiIn, *asciiOut, *trace, patches)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := execute(r, *cachePath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run gathers everything needed for one machine run.
type run struct {
	machine  *vm.Machine
	program  []vm.Value
	inputs   []vm.Value
	mode     string
	asciiOut bool
	trace    bool
}

func prepareRun(runfilePath string, args []string, mode, inputText, asciiIn string, asciiOut, trace bool, patches patchFlags) (*run, error) {
	if runfilePath != "" {
		return prepareFromRunfile(runfilePath)
	}

	if len(args) != 1 {
		return nil, fmt.Errorf("expected exactly one program file (or -runfile)")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("cannot read program: %w", err)
	}
	program, err := vm.ParseProgram(string(data))
	if err != nil {
		return nil, err
	}

	var seed []vm.Value
	if inputText != "" {
		if seed, err = vm.ParseProgram(inputText); err != nil {
			return nil, fmt.Errorf("bad -input: %w", err)
		}
	}

	switch mode {
	case runfile.ModeHalt, runfile.ModeOutput, runfile.ModeInput:
	default:
		return nil, fmt.Errorf("unknown run mode %q", mode)
	}

	m := vm.NewMachine(program)
	for _, p := range patches {
		m.Write(p.address, p.value)
	}
	m.PushInput(seed...)
	if asciiIn != "" {
		m.PushASCII(asciiIn)
	}
	m.SetTrace(trace)

	return &run{
		machine:  m,
		program:  program,
		inputs:   seed,
		mode:     mode,
		asciiOut: asciiOut,
		trace:    trace,
	}, nil
}

func prepareFromRunfile(path string) (*run, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	var rf *runfile.Runfile
	if info.IsDir() {
		rf, err = runfile.Load(path)
	} else {
		rf, err = runfile.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	program, err := rf.LoadProgram()
	if err != nil {
		return nil, err
	}
	return &run{
		machine:  rf.Prepare(program),
		program:  program,
		inputs:   rf.Run.Inputs,
		mode:     rf.Mode(),
		asciiOut: rf.Run.ASCIIOutput,
		trace:    rf.Run.Trace,
	}, nil
}

func execute(r *run, cachePath string) error {
	// Only complete, untraced runs to halt are cacheable.
	cacheable := cachePath != "" && r.mode == runfile.ModeHalt && !r.trace
	var cache *store.Store
	if cacheable {
		var err error
		if cache, err = store.Open(cachePath); err != nil {
			return err
		}
		defer cache.Close()

		if outputs, ok, err := cache.Get(r.program, r.inputs); err != nil {
			return err
		} else if ok {
			printOutputs(outputs, r.asciiOut)
			return nil
		}
	}

	switch r.mode {
	case runfile.ModeHalt:
		if err := r.machine.RunUntilStopped(); err != nil {
			if errors.Is(err, vm.ErrEmptyInput) {
				printOutputs(r.machine.DrainOutputs(), r.asciiOut)
				return fmt.Errorf("machine is waiting for input; feed more with -input")
			}
			return err
		}
	case runfile.ModeOutput:
		v, produced, err := r.machine.RunUntilOutput()
		if err != nil {
			return err
		}
		if produced {
			printOutputs([]vm.Value{v}, r.asciiOut)
		}
		return nil
	case runfile.ModeInput:
		if err := r.machine.RunUntilInput(); err != nil && !errors.Is(err, vm.ErrStopped) {
			return err
		}
	}

	outputs := r.machine.DrainOutputs()
	printOutputs(outputs, r.asciiOut)

	if cacheable {
		if err := cache.Put(r.program, r.inputs, outputs); err != nil {
			return err
		}
	}
	return nil
}

func printOutputs(outputs []vm.Value, ascii bool) {
	if ascii {
		for _, v := range outputs {
			if v >= 0 && v < 128 {
				fmt.Printf("%c", byte(v))
			} else {
				fmt.Printf("%d\n", v)
			}
		}
		return
	}
	for _, v := range outputs {
		fmt.Println(v)
	}
}
