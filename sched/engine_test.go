package sched_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/m2sim/insts"
	"github.com/sarchlab/m2sim/sched"
)

// prog builds a program from category/op/register/immediate tuples
// directly, bypassing insts.Decoder's text parsing (already covered in
// insts/decoder_test.go) so engine tests can drive immediates and
// register combinations the mnemonic bound checks would otherwise
// reject (see the MUL-truncation case below).
func prog(defs ...insts.Instruction) []*insts.Instruction {
	out := make([]*insts.Instruction, len(defs))
	for i := range defs {
		d := defs[i]
		d.Index = i
		out[i] = &d
	}
	return out
}

func addi(rd, rs uint8, imm int32) insts.Instruction {
	return insts.Instruction{Category: insts.Addition, Op: insts.Addi, Rd: rd, Rs: rs, Imm: imm}
}

func add(rd, rs, rt uint8) insts.Instruction {
	return insts.Instruction{Category: insts.Addition, Op: insts.Add, Rd: rd, Rs: rs, Rt: rt}
}

func mul(rd, rs, rt uint8) insts.Instruction {
	return insts.Instruction{Category: insts.Mul, Rd: rd, Rs: rs, Rt: rt}
}

func nor(rd, rs, rt uint8) insts.Instruction {
	return insts.Instruction{Category: insts.Nor, Rd: rd, Rs: rs, Rt: rt}
}

func beq(rs, rt uint8, imm int32) insts.Instruction {
	return insts.Instruction{Category: insts.Beq, Rs: rs, Rt: rt, Imm: imm}
}

func call(imm int32) insts.Instruction {
	return insts.Instruction{Category: insts.Jump, Op: insts.Call, Rd: 1, Imm: imm}
}

func ret() insts.Instruction {
	return insts.Instruction{Category: insts.Jump, Op: insts.Ret, Rs: 1}
}

func load(rd, rs uint8, imm int32) insts.Instruction {
	return insts.Instruction{Category: insts.Load, Rd: rd, Rs: rs, Imm: imm}
}

func store(rt, rs uint8, imm int32) insts.Instruction {
	return insts.Instruction{Category: insts.Store, Rt: rt, Rs: rs, Imm: imm}
}

var _ = Describe("Engine", func() {
	var cfg *sched.Config

	BeforeEach(func() {
		cfg = sched.DefaultConfig()
	})

	Describe("S1 — pure dependency chain", func() {
		It("retires each link only after its producer broadcasts", func() {
			program := prog(
				addi(1, 0, 5), // R1 = R0 + 5
				addi(2, 1, 5), // R2 = R1 + 5
				addi(3, 2, 5), // R3 = R2 + 5
			)
			e := sched.NewEngine(program, cfg, 0)
			Expect(e.Run()).To(Succeed())

			regs := e.Registers()
			Expect(regs[1]).To(BeEquivalentTo(5))
			Expect(regs[2]).To(BeEquivalentTo(10))
			Expect(regs[3]).To(BeEquivalentTo(15))

			stats := e.Stats()
			Expect(stats.Written).To(Equal(3))
			Expect(stats.Beq).To(Equal(0))
			Expect(stats.Mispredictions).To(Equal(0))

			for _, inst := range program {
				Expect(inst.Issue).To(BeNumerically(">", 0))
				Expect(inst.Issue).To(BeNumerically("<=", inst.ExecStart))
				Expect(inst.ExecStart).To(BeNumerically("<=", inst.ExecEnd))
				Expect(inst.ExecEnd).To(BeNumerically("<", inst.WriteBack))
			}
			// Each link's write-back happens strictly after the previous
			// link's, since it cannot even start executing until the
			// broadcast unblocks it.
			Expect(program[0].WriteBack).To(BeNumerically("<", program[1].WriteBack))
			Expect(program[1].WriteBack).To(BeNumerically("<", program[2].WriteBack))
		})
	})

	Describe("S2 — structural stall", func() {
		It("stalls issue when every station of a category is busy, then drains", func() {
			program := prog(
				addi(1, 0, 1),
				addi(2, 0, 2),
				addi(3, 0, 3),
				addi(4, 0, 4),
				addi(5, 0, 5),
				addi(6, 0, 6),
				addi(7, 0, 7),
				addi(0, 0, 8), // targets R0: never observable
			)
			e := sched.NewEngine(program, cfg, 0)
			Expect(e.Run()).To(Succeed())

			regs := e.Registers()
			for i := 1; i <= 7; i++ {
				Expect(regs[i]).To(BeEquivalentTo(i))
			}
			Expect(regs[0]).To(BeEquivalentTo(0))
			Expect(e.Stats().Written).To(Equal(8))

			for _, inst := range program {
				Expect(inst.Issue).To(BeNumerically(">", 0))
			}
		})
	})

	Describe("S3 — misprediction", func() {
		It("flushes the two ADDIs issued after a taken BEQ", func() {
			program := prog(
				addi(1, 0, 1),
				beq(1, 1, 2), // R1 == R1 always, so this is always taken
				addi(2, 0, 99),
				addi(3, 0, 77),
				addi(4, 0, 5),
			)
			e := sched.NewEngine(program, cfg, 0)
			Expect(e.Run()).To(Succeed())

			regs := e.Registers()
			Expect(regs[2]).To(BeEquivalentTo(0))
			Expect(regs[3]).To(BeEquivalentTo(0))
			Expect(regs[4]).To(BeEquivalentTo(5))

			stats := e.Stats()
			Expect(stats.Beq).To(Equal(1))
			Expect(stats.Mispredictions).To(Equal(1))
		})
	})

	Describe("CALL/RET subroutine transfer", func() {
		It("redirects PC, clobbers R1, and flushes speculative work", func() {
			// CALL 3 retires to pc = a + inst_index + 1 = 3 + 0 + 1 = 4,
			// landing past the two intermediate ADDIs directly on RET.
			program := prog(
				call(3),
				addi(2, 0, 9),
				addi(3, 0, 9),
				addi(4, 0, 7),
				ret(),
			)
			e := sched.NewEngine(program, cfg, 0)
			Expect(e.Run()).To(Succeed())

			regs := e.Registers()
			// CALL's retirement overwrites R1 with the raw displacement.
			Expect(regs[1]).To(BeEquivalentTo(3))
			Expect(regs[2]).To(BeEquivalentTo(0))
			Expect(regs[3]).To(BeEquivalentTo(0))
			Expect(regs[4]).To(BeEquivalentTo(0))

			// The two intermediate ADDIs never issued.
			Expect(program[1].Issue).To(BeEquivalentTo(0))
			Expect(program[2].Issue).To(BeEquivalentTo(0))

			// RET reads R1 (== 3) as its absolute target, which is past
			// the 5-instruction program, so the run terminates rather
			// than looping.
			Expect(e.PC()).To(BeNumerically(">=", len(program)))
		})
	})

	Describe("S5 — LOAD/STORE ordering", func() {
		It("stalls the LOAD behind an older STORE to the same address", func() {
			program := prog(
				addi(1, 0, 15),
				addi(1, 1, 15), // R1 = 30; still within an ADDI's own bound via two steps
				store(1, 0, 0),
				load(2, 0, 0),
			)
			e := sched.NewEngine(program, cfg, 0)
			Expect(e.Run()).To(Succeed())

			Expect(e.Registers()[2]).To(BeEquivalentTo(30))
			mem, err := e.Memory().Read(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(mem).To(BeEquivalentTo(30))

			Expect(program[3].WriteBack).To(BeNumerically(">", program[2].WriteBack))
		})
	})

	Describe("S6 — MUL truncation", func() {
		It("keeps only the low 16 bits of the product", func() {
			program := prog(
				addi(1, 0, 256),
				addi(2, 0, 256),
				mul(3, 1, 2),
			)
			e := sched.NewEngine(program, cfg, 0)
			Expect(e.Run()).To(Succeed())
			Expect(e.Registers()[3]).To(BeEquivalentTo(0)) // 256*256 = 65536 mod 2^16
		})
	})

	Describe("NOR and ADD", func() {
		It("computes bitwise NOR and two-source ADD", func() {
			program := prog(
				addi(1, 0, 5),
				addi(2, 0, 3),
				add(3, 1, 2),
				nor(4, 1, 2),
			)
			e := sched.NewEngine(program, cfg, 0)
			Expect(e.Run()).To(Succeed())
			regs := e.Registers()
			Expect(regs[3]).To(BeEquivalentTo(8))
			Expect(regs[4]).To(BeEquivalentTo(^uint16(5 | 3)))
		})
	})

	Describe("register 0", func() {
		It("is never overwritten by broadcast", func() {
			program := prog(addi(0, 0, 42))
			e := sched.NewEngine(program, cfg, 0)
			Expect(e.Run()).To(Succeed())
			Expect(e.Registers()[0]).To(BeEquivalentTo(0))
			Expect(e.Stats().Written).To(Equal(1))
		})
	})

	Describe("termination idempotence", func() {
		It("produces identical final state across two fresh runs", func() {
			build := func() []*insts.Instruction {
				return prog(addi(1, 0, 1), addi(2, 1, 1), beq(1, 1, 1), addi(3, 0, 9))
			}
			e1 := sched.NewEngine(build(), cfg, 0)
			Expect(e1.Run()).To(Succeed())
			e2 := sched.NewEngine(build(), cfg, 0)
			Expect(e2.Run()).To(Succeed())

			Expect(e1.Registers()).To(Equal(e2.Registers()))
			Expect(e1.Stats()).To(Equal(e2.Stats()), describeStats(e1.Stats())+describeStats(e2.Stats()))
		})
	})

	Describe("illegal memory access", func() {
		It("surfaces ErrIllegalMemoryAccess instead of panicking", func() {
			program := prog(
				nor(1, 0, 0),   // R1 = ^(R0 | R0) = 65535
				load(2, 1, 15), // effective address 65535+15 = 65550, out of range
			)
			e := sched.NewEngine(program, cfg, 0)
			err := e.Run()
			Expect(err).To(BeAssignableToTypeOf(&sched.ErrIllegalMemoryAccess{}))
		})
	})
})
