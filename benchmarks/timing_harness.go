// Package benchmarks provides timing benchmark infrastructure for
// calibrating and regression-testing the Tomasulo engine's cycle counts.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/m2sim/insts"
	"github.com/sarchlab/m2sim/sched"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count the engine ran for
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired int `json:"instructions_retired"`

	// IPC is instructions per cycle
	IPC float64 `json:"ipc"`

	// BeqCount is the number of BEQ instructions retired
	BeqCount int `json:"beq_count"`

	// Mispredictions is the number of taken BEQs that flushed speculative work
	Mispredictions int `json:"mispredictions"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Program is the instruction sequence to run
	Program []*insts.Instruction

	// Config is the reservation-station configuration to run it under.
	// A nil Config uses sched.DefaultConfig().
	Config *sched.Config

	// Setup initializes memory before the run (e.g. preloading an array).
	Setup func(mem *sched.Memory)
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Output: os.Stdout,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{config: config}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))
	for _, bench := range h.benchmarks {
		result, err := h.runBenchmark(bench)
		if err != nil {
			return nil, fmt.Errorf("benchmark %s: %w", bench.Name, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (h *Harness) runBenchmark(bench Benchmark) (BenchmarkResult, error) {
	cfg := bench.Config
	if cfg == nil {
		cfg = sched.DefaultConfig()
	}

	mem := sched.NewMemory()
	if bench.Setup != nil {
		bench.Setup(mem)
	}

	engine := sched.NewEngine(bench.Program, cfg, 0, sched.WithMemory(mem))

	start := time.Now()
	err := engine.Run()
	wallTime := time.Since(start)
	if err != nil {
		return BenchmarkResult{}, err
	}

	stats := engine.Stats()
	return BenchmarkResult{
		Name:                bench.Name,
		Description:         bench.Description,
		SimulatedCycles:     stats.Cycle,
		InstructionsRetired: stats.Written,
		IPC:                 stats.IPC(),
		BeqCount:            stats.Beq,
		Mispredictions:      stats.Mispredictions,
		WallTime:            wallTime,
	}, nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Tomasulo Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  IPC:                  %.3f\n", r.IPC)
		_, _ = fmt.Fprintf(h.config.Output, "  BEQ Count:            %d\n", r.BeqCount)
		_, _ = fmt.Fprintf(h.config.Output, "  Mispredictions:       %d\n", r.Mispredictions)
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time:            %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "name,cycles,instructions,ipc,beq_count,mispredictions")
	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d\n",
			r.Name, r.SimulatedCycles, r.InstructionsRetired, r.IPC, r.BeqCount, r.Mispredictions)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	Metadata ReportMetadata    `json:"metadata"`
	Results  []BenchmarkResult `json:"results"`
	Summary  ReportSummary     `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	Timestamp string `json:"timestamp"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	TotalBenchmarks   int           `json:"total_benchmarks"`
	TotalCycles       uint64        `json:"total_cycles"`
	TotalInstructions int           `json:"total_instructions"`
	AverageIPC        float64       `json:"average_ipc"`
	TotalWallTime     time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var totalCycles uint64
	var totalInstructions int
	var totalWallTime time.Duration
	for _, r := range results {
		totalCycles += r.SimulatedCycles
		totalInstructions += r.InstructionsRetired
		totalWallTime += r.WallTime
	}

	avgIPC := 0.0
	if totalCycles > 0 {
		avgIPC = float64(totalInstructions) / float64(totalCycles)
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{Timestamp: time.Now().UTC().Format(time.RFC3339)},
		Results:  results,
		Summary: ReportSummary{
			TotalBenchmarks:   len(results),
			TotalCycles:       totalCycles,
			TotalInstructions: totalInstructions,
			AverageIPC:        avgIPC,
			TotalWallTime:     totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
