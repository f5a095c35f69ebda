// Package main provides a profiling wrapper for the Tomasulo engine to
// identify performance bottlenecks.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/m2sim/insts"
	"github.com/sarchlab/m2sim/loader"
	"github.com/sarchlab/m2sim/sched"
)

var (
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	duration   = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	maxCycles  = flag.Int("max-cycles", 1000000, "max cycles to run (0 = unlimited)")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program.asm>\n\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	programPath := flag.Arg(0)
	program, err := loader.LoadProgram(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded: %s (%d instructions)\n", programPath, len(program))

	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		os.Exit(2)
	}()

	start := time.Now()
	cycles, err := runProfile(program)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running engine: %v\n", err)
		os.Exit(1)
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Cycles:          %d\n", cycles)
	fmt.Printf("Elapsed time:    %v\n", elapsed)
	if cycles > 0 {
		fmt.Printf("Cycles/second:   %.0f\n", float64(cycles)/elapsed.Seconds())
	}
}

func runProfile(program []*insts.Instruction) (uint64, error) {
	cfg := sched.DefaultConfig()
	engine := sched.NewEngine(program, cfg, 0)

	if *maxCycles > 0 {
		if err := engine.RunCycles(*maxCycles); err != nil {
			return engine.Stats().Cycle, err
		}
		return engine.Stats().Cycle, nil
	}
	if err := engine.Run(); err != nil {
		return engine.Stats().Cycle, err
	}
	return engine.Stats().Cycle, nil
}
