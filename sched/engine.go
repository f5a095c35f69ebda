package sched

import (
	"math"

	"github.com/sarchlab/m2sim/insts"
)

// Stats summarizes a run: cycles elapsed, instructions retired, BEQs
// retired, and mispredictions, the same counters tomasulo.py's run()
// prints at the end of simulation.
type Stats struct {
	Cycle          uint64
	Written        int
	Beq            int
	Mispredictions int
}

// IPC returns written / cycle, or 0 before the first cycle completes.
func (s Stats) IPC() float64 {
	if s.Cycle == 0 {
		return 0
	}
	return float64(s.Written) / float64(s.Cycle)
}

// Engine is the per-cycle Tomasulo driver: one Step() is one Tick(),
// running Issue, Execute (sub-phases A and B), and Write-Back in that
// fixed order. Grounded in the teacher's timing/pipeline.Pipeline shape
// (functional options, Stats, Get* accessors) driving the algorithm from
// original_source/tomasulo.py's next_cycle/issue/execute/write.
type Engine struct {
	program []*insts.Instruction
	bank    *Bank
	hazard  *HazardUnit

	registers *RegisterFile
	rename    RenameTable

	lsq  *LoadStoreQueue
	spec *SpeculationStack

	memory *Memory

	cycle uint64
	pc    int
	stats Stats

	err error
}

// EngineOption configures an Engine at construction, mirroring the
// teacher's PipelineOption pattern.
type EngineOption func(*Engine)

// WithMemory supplies a pre-populated memory image (e.g. from
// loader.LoadMemoryImage) instead of a freshly zeroed one.
func WithMemory(mem *Memory) EngineOption {
	return func(e *Engine) { e.memory = mem }
}

// NewEngine constructs an engine over program using cfg's station-bank
// layout, with Issue starting at initialPC. program and cfg are assumed
// already decoded/validated by the insts and sched loaders — none of the
// five Fatal error kinds originate here.
func NewEngine(program []*insts.Instruction, cfg *Config, initialPC int, opts ...EngineOption) *Engine {
	e := &Engine{
		program:   program,
		bank:      NewBank(cfg),
		registers: &RegisterFile{},
		lsq:       NewLoadStoreQueue(),
		spec:      NewSpeculationStack(),
		memory:    NewMemory(),
		pc:        initialPC,
		cycle:     1,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.hazard = NewHazardUnit(e.bank, e.program)
	return e
}

// Done reports the termination condition: PC past the program and no
// station busy (so a pending RET/CALL that redirects PC back into range
// re-enables issue).
func (e *Engine) Done() bool {
	if e.pc < len(e.program) {
		return false
	}
	done := true
	e.bank.Each(func(_ insts.Category, s *ReservationStation) {
		if s.Busy {
			done = false
		}
	})
	return done
}

// Step advances exactly one cycle: Issue, Execute (A then B), Write-Back,
// then the cycle counter. Returns a non-nil error only on
// ErrIllegalMemoryAccess (the one Fatal condition that can surface at
// runtime, during address resolution); once returned, the engine must
// not be stepped further.
func (e *Engine) Step() error {
	if e.err != nil {
		return e.err
	}
	if e.pc < len(e.program) {
		e.doIssue()
	}
	e.doExecuteArithmetic()
	if err := e.doExecuteMemory(); err != nil {
		e.err = err
		return err
	}
	if err := e.doWriteBack(); err != nil {
		e.err = err
		return err
	}
	e.cycle++
	return nil
}

// Run advances until Done(), stopping early on the first error.
func (e *Engine) Run() error {
	for !e.Done() {
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunCycles advances at most n cycles, stopping early on Done() or
// error.
func (e *Engine) RunCycles(n int) error {
	for i := 0; i < n && !e.Done(); i++ {
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// doIssue implements tomasulo.py's issue(): claim a free station for the
// instruction at PC, snapshot its operands or producer tags, and rename
// its destination register.
func (e *Engine) doIssue() {
	inst := e.program[e.pc]
	st := e.bank.Free(inst.Category)
	if st == nil {
		return // structural stall; PC does not advance, no issue timestamp.
	}

	inst.Issue = e.cycle
	st.Busy = true
	st.Op = inst.Op
	st.A = inst.Imm
	st.RemCyclesExec = st.CyclesForExec
	st.RemCyclesAddr = st.CyclesForAddr
	st.InstIndex = inst.Index
	st.Result = 0

	if e.rename[inst.Rs] != 0 {
		st.Qj = e.rename[inst.Rs]
		st.Vj = 0
	} else {
		st.Qj = 0
		st.Vj = e.registers.Read(inst.Rs)
	}
	if e.rename[inst.Rt] != 0 {
		st.Qk = e.rename[inst.Rt]
		st.Vk = 0
	} else {
		st.Qk = 0
		st.Vk = e.registers.Read(inst.Rt)
	}

	// Rename destination. When speculation is active the write targets
	// the top snapshot's copy instead of the live rename table —
	// reproduced verbatim from tomasulo.py's issue(), not "fixed": a
	// later instruction in the same speculation window that searches the
	// live table for this register's producer will not find it.
	if inst.Rd != 0 {
		if top := e.spec.Top(); top != nil {
			top.Rename[inst.Rd] = st.ID
		} else {
			e.rename[inst.Rd] = st.ID
		}
	}

	if inst.Category == insts.Load || inst.Category == insts.Store {
		e.lsq.Push(inst.Index)
	}

	if inst.Category == insts.Beq || inst.Category == insts.Jump {
		var base RenameTable
		if top := e.spec.Top(); top != nil {
			base = top.Rename
		} else {
			base = e.rename
		}
		e.spec.Push(Snapshot{IssueCycle: e.cycle, Rename: base})
	}

	e.pc++
}

// doExecuteArithmetic implements tomasulo.py's execute() pass over the
// non-memory categories (BEQ, JUMP, ADD, MUL, NOR): ticks down each ready
// station's remaining execute latency and computes its result on the
// cycle that countdown reaches zero.
func (e *Engine) doExecuteArithmetic() {
	categories := [5]insts.Category{insts.Beq, insts.Jump, insts.Addition, insts.Mul, insts.Nor}
	for _, cat := range categories {
		stations := e.bank.Category(cat)
		for i := range stations {
			s := &stations[i]
			if !s.Busy {
				continue
			}
			inst := e.program[s.InstIndex]
			if inst.Issue >= e.cycle {
				continue
			}
			if front := e.spec.Front(); front != nil && inst.Issue > front.IssueCycle {
				continue
			}
			if s.Qj == 0 && s.Qk == 0 && s.RemCyclesExec > 0 {
				if s.RemCyclesExec == s.CyclesForExec && inst.ExecStart == 0 {
					inst.ExecStart = e.cycle
				}
				s.RemCyclesExec--
				if s.RemCyclesExec == 0 {
					e.computeResult(cat, s)
					inst.ExecEnd = e.cycle
				}
			}
		}
	}
}

// computeResult mirrors tomasulo.py's per-category ALU semantics: two's
// complement add, truncating multiply, bitwise NOR, BEQ's equality test,
// and CALL's return-address capture.
func (e *Engine) computeResult(cat insts.Category, s *ReservationStation) {
	switch cat {
	case insts.Addition:
		if s.Op == insts.Addi {
			s.Result = s.Vj + uint16(s.A)
		} else {
			s.Result = s.Vj + s.Vk
		}
	case insts.Mul:
		s.Result = uint16((uint32(s.Vj) * uint32(s.Vk)) & 0xFFFF)
	case insts.Nor:
		s.Result = ^(s.Vj | s.Vk)
	case insts.Beq:
		if s.Vj == s.Vk {
			s.Result = 1
		} else {
			s.Result = 0
		}
	case insts.Jump:
		if s.Op == insts.Call {
			s.Result = uint16(s.InstIndex + 1)
		} else {
			s.Result = s.Vj
		}
	}
}

// doExecuteMemory implements tomasulo.py's execute() pass over LOAD and
// STORE: address resolution gated on reaching the head of the load/store
// queue, then a hazard-gated execute countdown, surfacing the engine's
// one Fatal error path if the resolved address is out of range.
func (e *Engine) doExecuteMemory() error {
	popQueue := false
	categories := [2]insts.Category{insts.Load, insts.Store}
	for _, cat := range categories {
		stations := e.bank.Category(cat)
		for i := range stations {
			s := &stations[i]
			if !s.Busy {
				continue
			}
			inst := e.program[s.InstIndex]
			if inst.Issue >= e.cycle {
				continue
			}
			if front := e.spec.Front(); front != nil && inst.Issue > front.IssueCycle {
				continue
			}

			if s.RemCyclesAddr > 0 {
				head, ok := e.lsq.Head()
				if s.Qj != 0 || !ok || head != s.InstIndex {
					continue
				}
				if s.RemCyclesAddr == s.CyclesForAddr && inst.ExecStart == 0 {
					inst.ExecStart = e.cycle
				}
				s.RemCyclesAddr--
				if s.RemCyclesAddr == 0 {
					s.A = int32(s.Vj) + s.A
					if cat == insts.Load {
						val, err := e.memory.Read(s.A)
						if err != nil {
							return err
						}
						s.Result = val
					}
					popQueue = true
				}
				continue
			}

			if s.RemCyclesExec > 0 {
				if !e.hazard.MemoryHazard(s, cat) {
					s.RemCyclesExec--
				}
				if s.RemCyclesExec == 0 {
					inst.ExecEnd = e.cycle
					if cat == insts.Load {
						val, err := e.memory.Read(s.A)
						if err != nil {
							return err
						}
						s.Result = val
					}
				}
			}
		}
	}
	if popQueue {
		e.lsq.Pop()
	}
	return nil
}

// doWriteBack picks the write-back winner(s) this cycle: the oldest
// ready STORE (memory write, no CDB broadcast) and, independently, the
// oldest ready non-STORE (CDB broadcast), following tomasulo.py's
// write() arbitration by minimum issue cycle within each group.
func (e *Engine) doWriteBack() error {
	var nonStore *ReservationStation
	var nonStoreCat insts.Category
	var store *ReservationStation
	minIssue := uint64(math.MaxUint64)
	minStoreIssue := uint64(math.MaxUint64)

	e.bank.Each(func(cat insts.Category, s *ReservationStation) {
		if !s.Busy || s.RemCyclesExec != 0 {
			return
		}
		inst := e.program[s.InstIndex]
		if inst.ExecEnd >= e.cycle {
			return
		}
		if cat == insts.Store {
			if s.Qk != 0 {
				return
			}
			if inst.Issue < minStoreIssue {
				minStoreIssue = inst.Issue
				store = s
			}
			return
		}
		if inst.Issue < minIssue {
			minIssue = inst.Issue
			nonStore = s
			nonStoreCat = cat
		}
	})

	if store != nil {
		if err := e.retireStore(store); err != nil {
			return err
		}
	}
	if nonStore != nil {
		e.retireOther(nonStoreCat, nonStore)
	}
	return nil
}

func (e *Engine) retireStore(w *ReservationStation) error {
	w.Busy = false
	inst := e.program[w.InstIndex]
	inst.WriteBack = e.cycle
	e.stats.Written++
	if err := e.memory.Write(w.A, w.Vk); err != nil {
		return err
	}
	return nil
}

func (e *Engine) retireOther(cat insts.Category, w *ReservationStation) {
	w.Busy = false
	inst := e.program[w.InstIndex]
	inst.WriteBack = e.cycle
	e.stats.Written++

	switch cat {
	case insts.Jump:
		if w.Op == insts.Call {
			// This unconditionally overwrites R1 with the displacement,
			// even though the CALL's own issue-time rename of R1 is
			// still live in the rename table until it is cleared below,
			// together with the flush — reproduced exactly from
			// tomasulo.py's write().
			e.registers.Write(1, uint16(w.A))
			e.pc = int(w.A) + inst.Index + 1
		} else {
			e.pc = int(w.Vj)
		}
		e.spec.Clear()
		for i := range e.rename {
			if e.rename[i] == w.ID {
				e.rename[i] = 0
			}
		}
		e.flushAfter(inst.Issue)
	case insts.Beq:
		e.stats.Beq++
		if w.Result == 1 {
			e.pc = inst.Index + 1 + int(w.A)
			e.stats.Mispredictions++
			e.spec.Clear()
			e.flushAfter(inst.Issue)
		} else {
			front := e.spec.PopFront()
			e.rename = front.Rename
		}
	default: // Load, Addition, Mul, Nor
		for i := 1; i < NumRegisters; i++ {
			if e.rename[i] == w.ID {
				e.registers.Write(uint8(i), w.Result)
				e.rename[i] = 0
			}
		}
		e.broadcast(w)
	}
}

// broadcast propagates a write-back result over the CDB, matching
// tomasulo.py's _broadcast_result: the qj and qk checks are independent,
// so a station depending on the same producer for both operands only
// gets its exec_start set once, on the second check.
func (e *Engine) broadcast(w *ReservationStation) {
	e.bank.Each(func(_ insts.Category, s *ReservationStation) {
		if !s.Busy {
			return
		}
		inst := e.program[s.InstIndex]
		if s.Qj == w.ID {
			s.Qj = 0
			s.Vj = w.Result
			if s.Qk == 0 {
				inst.ExecStart = e.cycle
			}
		}
		if s.Qk == w.ID {
			s.Qk = 0
			s.Vk = w.Result
			if s.Qj == 0 {
				inst.ExecStart = e.cycle
			}
		}
	})
}

// flushAfter mirrors tomasulo.py's flush(): every station (and
// load/store queue entry) whose instruction issued strictly after
// afterIssue is discarded; stations at or before afterIssue remain live.
func (e *Engine) flushAfter(afterIssue uint64) {
	idSet := make(map[int]bool)
	instSet := make(map[int]bool)
	e.bank.Each(func(_ insts.Category, s *ReservationStation) {
		if !s.Busy {
			return
		}
		inst := e.program[s.InstIndex]
		if inst.Issue > afterIssue {
			s.Busy = false
			idSet[s.ID] = true
			instSet[s.InstIndex] = true
		}
	})
	for i := range e.rename {
		if idSet[e.rename[i]] {
			e.rename[i] = 0
		}
	}
	e.lsq.Remove(instSet)
}

// Cycle returns the current cycle number.
func (e *Engine) Cycle() uint64 { return e.cycle }

// PC returns the current program counter.
func (e *Engine) PC() int { return e.pc }

// Registers returns a snapshot of the architectural register values.
func (e *Engine) Registers() [NumRegisters]uint16 { return e.registers.Values }

// RenameTable returns a snapshot of the live rename table.
func (e *Engine) RenameTable() RenameTable { return e.rename }

// Program returns the program being executed, with timestamp fields
// updated in place as the engine steps.
func (e *Engine) Program() []*insts.Instruction { return e.program }

// Memory returns the engine-owned memory, read-only by convention
// between cycles.
func (e *Engine) Memory() *Memory { return e.memory }

// Bank returns the reservation-station bank.
func (e *Engine) Bank() *Bank { return e.bank }

// LoadStoreQueue returns the load/store order queue.
func (e *Engine) LoadStoreQueue() *LoadStoreQueue { return e.lsq }

// SpeculationStack returns the pending branch/jump snapshot stack.
func (e *Engine) SpeculationStack() *SpeculationStack { return e.spec }

// Stats returns the summary counters, with Cycle filled from the
// current cycle number.
func (e *Engine) Stats() Stats {
	s := e.stats
	s.Cycle = e.cycle
	return s
}
