package sched

import (
	"fmt"

	"github.com/sarchlab/m2sim/insts"
)

// ReservationStation is one slot in the issue window, mirroring the
// fields of original_source/reservation_station.py's ReservationStation.
type ReservationStation struct {
	Name string
	// ID is globally unique and stable for the life of the bank. 0 is
	// reserved as the "no producer" sentinel; real ids start at 1.
	ID   int
	Busy bool
	Op   insts.SubOp

	// Vj, Vk are operand values when known (Qj/Qk == 0).
	Vj, Vk uint16
	// Qj, Qk are producer station ids; 0 means the matching V is
	// authoritative.
	Qj, Qk int

	// A holds the immediate at issue; for LOAD/STORE it becomes the
	// effective address once address resolution completes.
	A int32

	CyclesForExec int
	CyclesForAddr int
	RemCyclesExec int
	RemCyclesAddr int

	InstIndex int
	Result    uint16
}

// Bank is the station-bank vector of vectors, indexed by
// insts.Category ordinal, plus a stable id -> (category, slot) lookup.
type Bank struct {
	stations [insts.NumCategories][]ReservationStation
	lookup   map[int]stationRef
}

type stationRef struct {
	category insts.Category
	slot     int
}

// NewBank builds a station bank from cfg, assigning ids sequentially in
// category order starting at 1 — matching
// original_source/tomasulo.py:_initialize_hardware's res_station_id
// counter, so station naming is reproducible.
func NewBank(cfg *Config) *Bank {
	b := &Bank{lookup: make(map[int]stationRef)}
	nextID := 1
	for cat := insts.Category(0); int(cat) < insts.NumCategories; cat++ {
		cc := cfg.Categories[cat]
		slots := make([]ReservationStation, cc.NumStations)
		for slot := range slots {
			slots[slot] = ReservationStation{
				Name:          fmt.Sprintf("%s%d", cat.String(), slot+1),
				ID:            nextID,
				CyclesForExec: cc.CyclesExec,
				CyclesForAddr: cc.CyclesAddr,
			}
			b.lookup[nextID] = stationRef{category: cat, slot: slot}
			nextID++
		}
		b.stations[cat] = slots
	}
	return b
}

// Category returns the station slice for cat, in bank (deterministic
// iteration) order.
func (b *Bank) Category(cat insts.Category) []ReservationStation {
	return b.stations[cat]
}

// At returns a pointer to the station at (cat, slot) for in-place
// mutation.
func (b *Bank) At(cat insts.Category, slot int) *ReservationStation {
	return &b.stations[cat][slot]
}

// Lookup resolves a station id to its (category, slot), or ok=false if
// the id is unknown (including the 0 sentinel).
func (b *Bank) Lookup(id int) (cat insts.Category, slot int, ok bool) {
	if id == 0 {
		return 0, 0, false
	}
	ref, ok := b.lookup[id]
	return ref.category, ref.slot, ok
}

// Free returns the first non-busy station in cat's bank, or nil if all
// are busy. First-available is deterministic (bank iteration order),
// the same linear scan tomasulo.py's issue() does over res_stations[cat].
func (b *Bank) Free(cat insts.Category) *ReservationStation {
	for i := range b.stations[cat] {
		if !b.stations[cat][i].Busy {
			return &b.stations[cat][i]
		}
	}
	return nil
}

// Each calls fn for every station in the bank, in deterministic
// (category, slot) order — the same tie-breaking order write()'s
// minimum-issue-cycle scan over res_stations relies on.
func (b *Bank) Each(fn func(cat insts.Category, s *ReservationStation)) {
	for cat := insts.Category(0); int(cat) < insts.NumCategories; cat++ {
		slots := b.stations[cat]
		for i := range slots {
			fn(cat, &slots[i])
		}
	}
}
