package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/m2sim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("LOAD", func() {
		It("should decode LOAD Rd, imm(Rs)", func() {
			inst, err := decoder.Decode("LOAD R1, 5(R2)", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Category).To(Equal(insts.Load))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(5)))
		})

		It("should accept a negative immediate at the lower bound", func() {
			inst, err := decoder.Decode("LOAD R1, -16(R2)", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Imm).To(Equal(int32(-16)))
		})

		It("should reject an immediate one below the lower bound", func() {
			_, err := decoder.Decode("LOAD R1, -17(R2)", 0)
			Expect(err).To(HaveOccurred())
			var rangeErr *insts.ErrImmediateOutOfRange
			Expect(err).To(BeAssignableToTypeOf(rangeErr))
		})

		It("should accept an immediate at the upper bound", func() {
			inst, err := decoder.Decode("LOAD R1, 15(R2)", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Imm).To(Equal(int32(15)))
		})

		It("should reject an immediate one above the upper bound", func() {
			_, err := decoder.Decode("LOAD R1, 16(R2)", 0)
			Expect(err).To(HaveOccurred())
		})

		It("should be case-insensitive", func() {
			inst, err := decoder.Decode("load R1, 5(R2)", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Category).To(Equal(insts.Load))
		})
	})

	Describe("STORE", func() {
		It("should decode STORE Rt, imm(Rs)", func() {
			inst, err := decoder.Decode("STORE R3, -2(R4)", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Category).To(Equal(insts.Store))
			Expect(inst.Rt).To(Equal(uint8(3)))
			Expect(inst.Rs).To(Equal(uint8(4)))
			Expect(inst.Imm).To(Equal(int32(-2)))
		})
	})

	Describe("BEQ", func() {
		It("should decode BEQ Rs, Rt, imm", func() {
			inst, err := decoder.Decode("BEQ R1, R2, 2", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Category).To(Equal(insts.Beq))
			Expect(inst.Rs).To(Equal(uint8(1)))
			Expect(inst.Rt).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(2)))
		})
	})

	Describe("CALL", func() {
		It("should decode CALL imm and set rd=1 internally", func() {
			inst, err := decoder.Decode("CALL 2", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Category).To(Equal(insts.Jump))
			Expect(inst.Op).To(Equal(insts.Call))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(2)))
		})

		It("should accept the 7-bit signed bounds", func() {
			_, err := decoder.Decode("CALL 63", 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = decoder.Decode("CALL -64", 0)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject one beyond the 7-bit signed bound", func() {
			_, err := decoder.Decode("CALL 64", 0)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("RET", func() {
		It("should decode RET and set rs=1 internally", func() {
			inst, err := decoder.Decode("RET", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Category).To(Equal(insts.Jump))
			Expect(inst.Op).To(Equal(insts.Ret))
			Expect(inst.Rs).To(Equal(uint8(1)))
		})
	})

	Describe("ADD / ADDI", func() {
		It("should decode ADD Rd, Rs, Rt", func() {
			inst, err := decoder.Decode("ADD R1, R2, R3", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Category).To(Equal(insts.Addition))
			Expect(inst.Op).To(Equal(insts.Add))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs).To(Equal(uint8(2)))
			Expect(inst.Rt).To(Equal(uint8(3)))
		})

		It("should decode ADDI Rd, Rs, imm", func() {
			inst, err := decoder.Decode("ADDI R1, R0, 5", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Category).To(Equal(insts.Addition))
			Expect(inst.Op).To(Equal(insts.Addi))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int32(5)))
		})
	})

	Describe("MUL / NOR", func() {
		It("should decode MUL Rd, Rs, Rt", func() {
			inst, err := decoder.Decode("MUL R3, R1, R2", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Category).To(Equal(insts.Mul))
		})

		It("should decode NOR Rd, Rs, Rt", func() {
			inst, err := decoder.Decode("NOR R3, R1, R2", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Category).To(Equal(insts.Nor))
		})
	})

	Describe("malformed input", func() {
		It("should reject an unrecognized mnemonic", func() {
			_, err := decoder.Decode("FOO R1, R2, R3", 0)
			Expect(err).To(HaveOccurred())
			var malformed *insts.ErrMalformedInstruction
			Expect(err).To(BeAssignableToTypeOf(malformed))
		})

		It("should reject a blank line", func() {
			_, err := decoder.Decode("", 0)
			Expect(err).To(HaveOccurred())
		})

		It("should reject an operand shape mismatch", func() {
			_, err := decoder.Decode("ADD R1, R2", 0)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("DecodeProgram", func() {
		It("should decode every non-blank line in order", func() {
			lines := []string{
				"ADDI R1, R0, 5",
				"",
				"ADDI R2, R1, 5",
				"ADDI R3, R2, 5",
			}
			program, err := decoder.DecodeProgram(lines)
			Expect(err).NotTo(HaveOccurred())
			Expect(program).To(HaveLen(3))
			Expect(program[0].Index).To(Equal(0))
			Expect(program[1].Index).To(Equal(1))
			Expect(program[2].Index).To(Equal(2))
		})

		It("should stop at the first malformed line", func() {
			lines := []string{"ADDI R1, R0, 5", "GARBAGE"}
			_, err := decoder.DecodeProgram(lines)
			Expect(err).To(HaveOccurred())
		})
	})
})
