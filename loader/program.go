// Package loader wraps file I/O for the program text loader and the
// initial memory image loader, the Go equivalent of tomasulo.py's
// parse_instructions and initialize_memory. Grounded in the teacher's
// loader package, which wraps debug/elf with fmt.Errorf("...: %w", err)
// the same way this wraps bufio.Scanner.
package loader

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sarchlab/m2sim/insts"
)

// LoadProgram reads path as a text file, one instruction per line, and
// decodes it via insts.Decoder into program-order Instruction records.
func LoadProgram(path string) ([]*insts.Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read program file %s: %w", path, err)
	}

	decoder := insts.NewDecoder()
	program, err := decoder.DecodeProgram(lines)
	if err != nil {
		return nil, fmt.Errorf("failed to decode program file %s: %w", path, err)
	}
	return program, nil
}
