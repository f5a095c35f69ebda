package insts

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Decoder turns one assembly line into an Instruction.
type Decoder struct{}

// NewDecoder creates a new line-oriented instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// ErrMalformedInstruction is returned when a line's mnemonic is
// unrecognized or its operand shape doesn't match the mnemonic.
type ErrMalformedInstruction struct {
	Line string
}

func (e *ErrMalformedInstruction) Error() string {
	return fmt.Sprintf("malformed instruction: %q", e.Line)
}

// ErrImmediateOutOfRange is returned when a decoded immediate falls
// outside the documented bound for its mnemonic.
type ErrImmediateOutOfRange struct {
	Line string
	Imm  int32
	Min  int32
	Max  int32
}

func (e *ErrImmediateOutOfRange) Error() string {
	return fmt.Sprintf("immediate %d out of range [%d,%d]: %q", e.Imm, e.Min, e.Max, e.Line)
}

// Regexes mirror original_source/Tomasulo's_Algorithm/instruction.py's
// LOAD_PATTERN/STORE_PATTERN/BEQ_PATTERN/CALL_PATTERN/ADD_PATTERN/
// ADDI_PATTERN/MUL_PATTERN/NOR_PATTERN, translated to Go's regexp.
var (
	loadStorePattern = regexp.MustCompile(`^\s*(\w+)\s+(\w+)\s*,\s*(-?\d+)\s*\(\s*(\w+)\s*\)\s*$`)
	beqPattern       = regexp.MustCompile(`^\s*(\w+)\s+(\w+)\s*,\s*(\w+)\s*,\s*([-+]?\d+)\s*$`)
	callPattern      = regexp.MustCompile(`^\s*(?i:call)\s+(-?\d+)\s*$`)
	retPattern       = regexp.MustCompile(`^\s*(?i:ret)\s*$`)
	threeRegPattern  = regexp.MustCompile(`^\s*(\w+)\s+(\w+)\s*,\s*(\w+)\s*,\s*(\w+)\s*$`)
	regImmPattern    = regexp.MustCompile(`^\s*(\w+)\s+(\w+)\s*,\s*(\w+)\s*,\s*([-+]?\d+)\s*$`)
)

func parseReg(tok string) (uint8, bool) {
	tok = strings.TrimSpace(tok)
	if len(tok) < 2 || (tok[0] != 'R' && tok[0] != 'r') {
		return 0, false
	}
	n, err := strconv.Atoi(tok[1:])
	if err != nil || n < 0 || n > 7 {
		return 0, false
	}
	return uint8(n), true
}

// Decode parses one assembly line into an Instruction at the given
// 0-based program index. Mnemonics are case-insensitive.
func (d *Decoder) Decode(line string, index int) (*Instruction, error) {
	trimmed := strings.TrimSpace(line)
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return nil, &ErrMalformedInstruction{Line: line}
	}

	inst := &Instruction{Index: index, Raw: line}

	switch strings.ToUpper(fields[0]) {
	case "LOAD":
		return d.decodeLoad(trimmed, inst)
	case "STORE":
		return d.decodeStore(trimmed, inst)
	case "BEQ":
		return d.decodeBeq(trimmed, inst)
	case "CALL":
		return d.decodeCall(trimmed, inst)
	case "RET":
		return d.decodeRet(trimmed, inst)
	case "ADD":
		return d.decodeAdd(trimmed, inst)
	case "ADDI":
		return d.decodeAddi(trimmed, inst)
	case "MUL":
		return d.decodeMul(trimmed, inst)
	case "NOR":
		return d.decodeNor(trimmed, inst)
	default:
		return nil, &ErrMalformedInstruction{Line: line}
	}
}

// DecodeProgram decodes every non-blank line of lines into a program,
// in order, assigning Index from 0.
func (d *Decoder) DecodeProgram(lines []string) ([]*Instruction, error) {
	program := make([]*Instruction, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		inst, err := d.Decode(line, len(program))
		if err != nil {
			return nil, err
		}
		program = append(program, inst)
	}
	return program, nil
}

func (d *Decoder) decodeLoad(line string, inst *Instruction) (*Instruction, error) {
	m := loadStorePattern.FindStringSubmatch(line)
	if m == nil {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	rd, ok1 := parseReg(m[2])
	rs, ok2 := parseReg(m[4])
	imm, err := strconv.Atoi(m[3])
	if !ok1 || !ok2 || err != nil {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	if imm < -16 || imm > 15 {
		return nil, &ErrImmediateOutOfRange{Line: line, Imm: int32(imm), Min: -16, Max: 15}
	}
	inst.Category = Load
	inst.Rd = rd
	inst.Rs = rs
	inst.Imm = int32(imm)
	return inst, nil
}

func (d *Decoder) decodeStore(line string, inst *Instruction) (*Instruction, error) {
	m := loadStorePattern.FindStringSubmatch(line)
	if m == nil {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	rt, ok1 := parseReg(m[2])
	rs, ok2 := parseReg(m[4])
	imm, err := strconv.Atoi(m[3])
	if !ok1 || !ok2 || err != nil {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	if imm < -16 || imm > 15 {
		return nil, &ErrImmediateOutOfRange{Line: line, Imm: int32(imm), Min: -16, Max: 15}
	}
	inst.Category = Store
	inst.Rt = rt
	inst.Rs = rs
	inst.Imm = int32(imm)
	return inst, nil
}

func (d *Decoder) decodeBeq(line string, inst *Instruction) (*Instruction, error) {
	m := beqPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	rs, ok1 := parseReg(m[2])
	rt, ok2 := parseReg(m[3])
	imm, err := strconv.Atoi(m[4])
	if !ok1 || !ok2 || err != nil {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	if imm < -16 || imm > 15 {
		return nil, &ErrImmediateOutOfRange{Line: line, Imm: int32(imm), Min: -16, Max: 15}
	}
	inst.Category = Beq
	inst.Rs = rs
	inst.Rt = rt
	inst.Imm = int32(imm)
	return inst, nil
}

func (d *Decoder) decodeCall(line string, inst *Instruction) (*Instruction, error) {
	m := callPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	imm, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	if imm < -64 || imm > 63 {
		return nil, &ErrImmediateOutOfRange{Line: line, Imm: int32(imm), Min: -64, Max: 63}
	}
	inst.Category = Jump
	inst.Op = Call
	inst.Rd = 1 // CALL stores PC+1 into R1.
	inst.Imm = int32(imm)
	return inst, nil
}

func (d *Decoder) decodeRet(line string, inst *Instruction) (*Instruction, error) {
	if !retPattern.MatchString(line) {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	inst.Category = Jump
	inst.Op = Ret
	inst.Rs = 1 // RET reads the target address from R1.
	return inst, nil
}

func (d *Decoder) decodeAdd(line string, inst *Instruction) (*Instruction, error) {
	m := threeRegPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	rd, ok1 := parseReg(m[2])
	rs, ok2 := parseReg(m[3])
	rt, ok3 := parseReg(m[4])
	if !ok1 || !ok2 || !ok3 {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	inst.Category = Addition
	inst.Op = Add
	inst.Rd, inst.Rs, inst.Rt = rd, rs, rt
	return inst, nil
}

func (d *Decoder) decodeAddi(line string, inst *Instruction) (*Instruction, error) {
	m := regImmPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	rd, ok1 := parseReg(m[2])
	rs, ok2 := parseReg(m[3])
	imm, err := strconv.Atoi(m[4])
	if !ok1 || !ok2 || err != nil {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	if imm < -16 || imm > 15 {
		return nil, &ErrImmediateOutOfRange{Line: line, Imm: int32(imm), Min: -16, Max: 15}
	}
	inst.Category = Addition
	inst.Op = Addi
	inst.Rd, inst.Rs = rd, rs
	inst.Imm = int32(imm)
	return inst, nil
}

func (d *Decoder) decodeMul(line string, inst *Instruction) (*Instruction, error) {
	m := threeRegPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	rd, ok1 := parseReg(m[2])
	rs, ok2 := parseReg(m[3])
	rt, ok3 := parseReg(m[4])
	if !ok1 || !ok2 || !ok3 {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	inst.Category = Mul
	inst.Rd, inst.Rs, inst.Rt = rd, rs, rt
	return inst, nil
}

func (d *Decoder) decodeNor(line string, inst *Instruction) (*Instruction, error) {
	m := threeRegPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	rd, ok1 := parseReg(m[2])
	rs, ok2 := parseReg(m[3])
	rt, ok3 := parseReg(m[4])
	if !ok1 || !ok2 || !ok3 {
		return nil, &ErrMalformedInstruction{Line: line}
	}
	inst.Category = Nor
	inst.Rd, inst.Rs, inst.Rt = rd, rs, rt
	return inst, nil
}
