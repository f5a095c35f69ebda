package sched

import "github.com/sarchlab/m2sim/insts"

// HazardUnit is a pure-query helper, mirroring the teacher's
// timing/pipeline.HazardUnit: it inspects engine state and answers
// stall/hazard questions without mutating anything.
type HazardUnit struct {
	bank    *Bank
	program []*insts.Instruction
}

// NewHazardUnit builds a hazard unit over the given bank, consulting
// program for each station's issue cycle (program order).
func NewHazardUnit(bank *Bank, program []*insts.Instruction) *HazardUnit {
	return &HazardUnit{bank: bank, program: program}
}

// MemoryHazard reports whether station s, of category cat (Load or
// Store), must stall its execution countdown this cycle.
//
// Following tomasulo.py's execute() memory-hazard check, the WAW and RAW
// checks against the STORE bank are not tracked as two separate booleans
// (the source sets both from the same loop): this is a single "an older,
// still-executing STORE at the same address stalls me" condition,
// checked for both LOAD and STORE stations. A STORE additionally checks
// the LOAD bank (WAR). A LOAD never checks the LOAD bank — load/load to
// the same address is not a hazard.
func (h *HazardUnit) MemoryHazard(s *ReservationStation, cat insts.Category) bool {
	myIssue := h.program[s.InstIndex].Issue
	if h.olderSameAddress(insts.Store, s, myIssue) {
		return true
	}
	if cat == insts.Store && h.olderSameAddress(insts.Load, s, myIssue) {
		return true
	}
	return false
}

func (h *HazardUnit) olderSameAddress(cat insts.Category, s *ReservationStation, myIssue uint64) bool {
	for i := range h.bank.stations[cat] {
		other := &h.bank.stations[cat][i]
		if other == s || !other.Busy || other.RemCyclesExec == 0 {
			continue
		}
		otherIssue := h.program[other.InstIndex].Issue
		if otherIssue != 0 && otherIssue < myIssue && other.A == s.A {
			return true
		}
	}
	return false
}

// StructuralStall reports whether cat's station bank has no free slot.
func (h *HazardUnit) StructuralStall(cat insts.Category) bool {
	return h.bank.Free(cat) == nil
}
