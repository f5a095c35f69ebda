// Command tomasim runs a Tomasulo program to completion or single-step,
// then prints the final register/station/memory state and summary stats.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/m2sim/loader"
	"github.com/sarchlab/m2sim/sched"
)

var (
	configPath   = flag.String("config", "", "Path to hardware station configuration (default built-in)")
	configFormat = flag.String("config-format", "text", "Format of -config: text, json, yaml, or toml")
	memPath      = flag.String("mem", "", "Path to an initial memory image (\"address value\" per line)")
	step         = flag.Bool("step", false, "Single-step and print the engine state after every cycle")
	verbose      = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: tomasim [options] <program.asm>\n\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(programPath string) error {
	program, err := loader.LoadProgram(programPath)
	if err != nil {
		return fmt.Errorf("loading program: %w", err)
	}
	if *verbose {
		fmt.Printf("Loaded %d instructions from %s\n", len(program), programPath)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	mem := sched.NewMemory()
	if *memPath != "" {
		if err := loader.LoadMemoryImage(*memPath, mem); err != nil {
			return fmt.Errorf("loading memory image: %w", err)
		}
	}

	engine := sched.NewEngine(program, cfg, 0, sched.WithMemory(mem))

	if *step {
		return runStepMode(engine)
	}
	return runToCompletion(engine)
}

func loadConfig() (*sched.Config, error) {
	if *configPath == "" {
		return sched.DefaultConfig(), nil
	}
	switch *configFormat {
	case "text":
		return sched.LoadConfig(*configPath)
	case "json":
		return sched.LoadConfigJSON(*configPath)
	case "yaml":
		return sched.LoadConfigYAML(*configPath)
	case "toml":
		return sched.LoadConfigTOML(*configPath)
	default:
		return nil, fmt.Errorf("unknown -config-format %q (want text, json, yaml, or toml)", *configFormat)
	}
}

// runStepMode prints the engine's state after every cycle and blocks on a
// newline from stdin before advancing, matching the original Tkinter
// tutorial mode's "press enter to proceed" interactive loop.
func runStepMode(e *sched.Engine) error {
	in := bufio.NewReader(os.Stdin)
	for !e.Done() {
		if err := e.Step(); err != nil {
			return err
		}
		fmt.Printf("=== cycle %d ===\n", e.Cycle())
		fmt.Print(e.DumpAll())
		fmt.Print("-- press enter to continue --")
		if _, err := in.ReadString('\n'); err != nil {
			break
		}
	}
	printSummary(e)
	return nil
}

func runToCompletion(e *sched.Engine) error {
	if err := e.Run(); err != nil {
		return err
	}
	fmt.Print(e.DumpAll())
	printSummary(e)
	return nil
}

func printSummary(e *sched.Engine) {
	stats := e.Stats()
	fmt.Printf("\nCycles:          %d\n", stats.Cycle)
	fmt.Printf("Instructions:    %d\n", stats.Written)
	fmt.Printf("IPC:             %.3f\n", stats.IPC())
	fmt.Printf("BEQs retired:    %d\n", stats.Beq)
	fmt.Printf("Mispredictions:  %d\n", stats.Mispredictions)
}
