package benchmarks

import (
	"github.com/sarchlab/m2sim/insts"
)

func inst(def insts.Instruction, index int) *insts.Instruction {
	def.Index = index
	return &def
}

func build(defs ...insts.Instruction) []*insts.Instruction {
	program := make([]*insts.Instruction, len(defs))
	for i, d := range defs {
		program[i] = inst(d, i)
	}
	return program
}

// Scenarios returns the standard set of calibration benchmarks exercising
// each of the engine's retirement paths: a pure dependency chain, a
// structural stall, a mispredicted branch, a CALL/RET transfer, a
// LOAD/STORE ordering hazard, and a truncating multiply.
func Scenarios() []Benchmark {
	return []Benchmark{
		{
			Name:        "dependency-chain",
			Description: "three ADDIs, each reading the register the previous one wrote, under the default configuration",
			Program: build(
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 1, Rs: 0, Imm: 5},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 2, Rs: 1, Imm: 5},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 3, Rs: 2, Imm: 5},
			),
		},
		{
			Name:        "structural-stall",
			Description: "eight independent ADDIs issued against four addition stations",
			Program: build(
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 1, Rs: 0, Imm: 1},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 2, Rs: 0, Imm: 2},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 3, Rs: 0, Imm: 3},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 4, Rs: 0, Imm: 4},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 5, Rs: 0, Imm: 5},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 6, Rs: 0, Imm: 6},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 7, Rs: 0, Imm: 7},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 1, Rs: 0, Imm: 8},
			),
		},
		{
			Name:        "misprediction",
			Description: "a self-comparing BEQ that is always taken, flushing two speculative ADDIs",
			Program: build(
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 1, Rs: 0, Imm: 1},
				insts.Instruction{Category: insts.Beq, Rs: 1, Rt: 1, Imm: 2},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 2, Rs: 0, Imm: 99},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 3, Rs: 0, Imm: 77},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 4, Rs: 0, Imm: 5},
			),
		},
		{
			Name:        "call-ret",
			Description: "a CALL that skips three instructions and lands on a RET",
			Program: build(
				insts.Instruction{Category: insts.Jump, Op: insts.Call, Rd: 1, Imm: 3},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 2, Rs: 0, Imm: 9},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 3, Rs: 0, Imm: 9},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 4, Rs: 0, Imm: 7},
				insts.Instruction{Category: insts.Jump, Op: insts.Ret, Rs: 1},
			),
		},
		{
			Name:        "load-store-ordering",
			Description: "a LOAD stalled behind an older STORE to the same effective address",
			Program: build(
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 1, Rs: 0, Imm: 15},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 1, Rs: 1, Imm: 15},
				insts.Instruction{Category: insts.Store, Rt: 1, Rs: 0, Imm: 0},
				insts.Instruction{Category: insts.Load, Rd: 2, Rs: 0, Imm: 0},
			),
		},
		{
			Name:        "mul-truncation",
			Description: "a multiply whose product overflows 16 bits",
			Program: build(
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 1, Rs: 0, Imm: 256},
				insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: 2, Rs: 0, Imm: 256},
				insts.Instruction{Category: insts.Mul, Rd: 3, Rs: 1, Rt: 2},
			),
		},
	}
}
