package loader_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/m2sim/insts"
	"github.com/sarchlab/m2sim/loader"
	"github.com/sarchlab/m2sim/sched"
)

func writeFile(dir, name, contents string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(contents), 0o644)).To(Succeed())
	return path
}

var _ = Describe("LoadProgram", func() {
	It("decodes a text program in order, skipping blank lines", func() {
		dir := GinkgoT().TempDir()
		path := writeFile(dir, "prog.asm", "ADDI R1, R0, 5\n\nADD R2, R1, R1\nSTORE R2, 0(R0)\n")

		program, err := loader.LoadProgram(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(program).To(HaveLen(3))
		Expect(program[0].Category).To(Equal(insts.Addition))
		Expect(program[0].Op).To(Equal(insts.Addi))
		Expect(program[1].Category).To(Equal(insts.Addition))
		Expect(program[1].Op).To(Equal(insts.Add))
		Expect(program[2].Category).To(Equal(insts.Store))
		for i, inst := range program {
			Expect(inst.Index).To(Equal(i))
		}
	})

	It("wraps the decoder's error for a malformed line", func() {
		dir := GinkgoT().TempDir()
		path := writeFile(dir, "bad.asm", "FROB R1, R2, R3\n")

		_, err := loader.LoadProgram(path)
		Expect(err).To(HaveOccurred())
	})

	It("wraps the open error for a missing file", func() {
		_, err := loader.LoadProgram("/nonexistent/path/to/prog.asm")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("LoadMemoryImage", func() {
	It("writes each address/value pair into memory", func() {
		dir := GinkgoT().TempDir()
		path := writeFile(dir, "mem.txt", "0 10\n1 20\n\n5 65535\n")

		mem := sched.NewMemory()
		Expect(loader.LoadMemoryImage(path, mem)).To(Succeed())

		v, err := mem.Read(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeEquivalentTo(10))

		v, err = mem.Read(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeEquivalentTo(20))

		v, err = mem.Read(5)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeEquivalentTo(65535))
	})

	It("rejects a line that isn't exactly address and value", func() {
		dir := GinkgoT().TempDir()
		path := writeFile(dir, "mem.txt", "0 10 20\n")

		mem := sched.NewMemory()
		err := loader.LoadMemoryImage(path, mem)
		Expect(err).To(HaveOccurred())
		Expect(err).To(BeAssignableToTypeOf(&loader.ErrMissingMemoryInitLine{}))
	})

	It("rejects a non-numeric address or value", func() {
		dir := GinkgoT().TempDir()
		path := writeFile(dir, "mem.txt", "zero 10\n")

		mem := sched.NewMemory()
		err := loader.LoadMemoryImage(path, mem)
		Expect(err).To(BeAssignableToTypeOf(&loader.ErrMissingMemoryInitLine{}))
	})

	It("surfaces an out-of-range address as a wrapped memory error", func() {
		dir := GinkgoT().TempDir()
		path := writeFile(dir, "mem.txt", "70000 1\n")

		mem := sched.NewMemory()
		err := loader.LoadMemoryImage(path, mem)
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(BeAssignableToTypeOf(&loader.ErrMissingMemoryInitLine{}))
	})
})
