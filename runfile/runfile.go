// Package runfile handles intcode.toml run configuration.
package runfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/intcode/vm"
)

// Runfile describes one machine run: which program to load, how to seed its
// input queue, which memory cells to patch before starting, and how far to
// run.
type Runfile struct {
	Program Program `toml:"program"`
	Run     Run     `toml:"run"`
	Patches []Patch `toml:"patch"`

	// Dir is the directory containing the intcode.toml file (set at load time).
	Dir string `toml:"-"`
}

// Program locates the program text: either a file path (relative to the
// runfile's directory) or inline source.
type Program struct {
	Path   string `toml:"path"`
	Source string `toml:"source"`
}

// Run configures execution.
type Run struct {
	Mode        string     `toml:"mode"` // halt, output or input
	Trace       bool       `toml:"trace"`
	Inputs      []vm.Value `toml:"inputs"`
	ASCIIInput  string     `toml:"ascii-input"`
	ASCIIOutput bool       `toml:"ascii-output"`
}

// Patch overwrites one memory cell before the run starts.
type Patch struct {
	Address vm.Value `toml:"address"`
	Value   vm.Value `toml:"value"`
}

// Run modes.
const (
	ModeHalt   = "halt"
	ModeOutput = "output"
	ModeInput  = "input"
)

// Load parses an intcode.toml file from the given directory.
func Load(dir string) (*Runfile, error) {
	return LoadFile(filepath.Join(dir, "intcode.toml"))
}

// LoadFile parses a runfile from an explicit path.
func LoadFile(path string) (*Runfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var r Runfile
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	r.Dir = filepath.Dir(path)

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid runfile %s: %w", path, err)
	}
	return &r, nil
}

func (r *Runfile) validate() error {
	if r.Program.Path == "" && r.Program.Source == "" {
		return fmt.Errorf("program.path or program.source is required")
	}
	if r.Program.Path != "" && r.Program.Source != "" {
		return fmt.Errorf("program.path and program.source are mutually exclusive")
	}
	switch r.Run.Mode {
	case "", ModeHalt, ModeOutput, ModeInput:
	default:
		return fmt.Errorf("unknown run mode %q", r.Run.Mode)
	}
	for _, p := range r.Patches {
		if p.Address < 0 {
			return fmt.Errorf("patch address %d is negative", p.Address)
		}
	}
	return nil
}

// Mode returns the configured run mode, defaulting to ModeHalt.
func (r *Runfile) Mode() string {
	if r.Run.Mode == "" {
		return ModeHalt
	}
	return r.Run.Mode
}

// LoadProgram reads and parses the program text this runfile points at.
func (r *Runfile) LoadProgram() ([]vm.Value, error) {
	source := r.Program.Source
	if r.Program.Path != "" {
		path := r.Program.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.Dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read program %s: %w", path, err)
		}
		source = string(data)
	}
	return vm.ParseProgram(source)
}

// Prepare constructs a machine from an already-parsed program: patches
// applied, input queue seeded, trace flag set. Taking the program instead
// of re-reading it keeps one parse authoritative for both the machine and
// anything keyed on program content.
func (r *Runfile) Prepare(program []vm.Value) *vm.Machine {
	m := vm.NewMachine(program)
	for _, p := range r.Patches {
		m.Write(p.Address, p.Value)
	}
	m.PushInput(r.Run.Inputs...)
	if r.Run.ASCIIInput != "" {
		m.PushASCII(r.Run.ASCIIInput)
	}
	m.SetTrace(r.Run.Trace)
	return m
}
