package sched

// NumRegisters is the number of architectural registers.
const NumRegisters = 8

// RegisterFile holds the eight 16-bit architectural registers. Register 0
// is architecturally writable but no code path in Engine ever targets it
// as a destination (Issue never renames it, Write-Back's broadcast loop
// starts at index 1), so in practice it always reads 0.
type RegisterFile struct {
	Values [NumRegisters]uint16
}

// Read returns the value of reg.
func (r *RegisterFile) Read(reg uint8) uint16 {
	return r.Values[reg]
}

// Write stores value into reg.
func (r *RegisterFile) Write(reg uint8, value uint16) {
	r.Values[reg] = value
}

// RenameTable names, for each register, the reservation-station id that
// will produce its next value (0 = the architectural register is
// current). Being a plain array, copying it by value is a full snapshot —
// that's exactly what the speculation stack relies on.
type RenameTable [NumRegisters]int

// ProducerOf returns the station id currently renaming reg, or 0 if the
// architectural value is current.
func (t RenameTable) ProducerOf(reg uint8) int {
	return t[reg]
}
