package sched

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/sarchlab/m2sim/insts"
)

// DumpStations renders the reservation-station bank and live rename
// table as aligned plain text, the Go equivalent of
// tomasulo.py's print_stations_and_reg_status.
func (e *Engine) DumpStations() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "Name\tBusy\tOp\tVj\tVk\tQj\tQk\tA\tRemExec\tRemAddr\tInstIdx\tResult")
	e.bank.Each(func(_ insts.Category, s *ReservationStation) {
		fmt.Fprintf(w, "%s\t%t\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			s.Name, s.Busy, s.Op, s.Vj, s.Vk, s.Qj, s.Qk, s.A,
			s.RemCyclesExec, s.RemCyclesAddr, s.InstIndex, s.Result)
	})
	_ = w.Flush()

	var rt strings.Builder
	rt.WriteString("Reg:\t")
	for i := 0; i < NumRegisters; i++ {
		fmt.Fprintf(&rt, "R%d\t", i)
	}
	rt.WriteString("\nRename:\t")
	for i := 0; i < NumRegisters; i++ {
		fmt.Fprintf(&rt, "%d\t", e.rename[i])
	}

	return b.String() + "\n" + rt.String() + "\n"
}

// DumpRegisters renders the architectural register values.
func (e *Engine) DumpRegisters() string {
	var b strings.Builder
	b.WriteString("Reg:\t")
	for i := 0; i < NumRegisters; i++ {
		fmt.Fprintf(&b, "R%d\t", i)
	}
	b.WriteString("\nValue:\t")
	for i := 0; i < NumRegisters; i++ {
		fmt.Fprintf(&b, "%d\t", e.registers.Read(uint8(i)))
	}
	b.WriteString("\n")
	return b.String()
}

// DumpInstructions renders every instruction's source line and
// timestamp fields.
func (e *Engine) DumpInstructions() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "Index\tInstruction\tIssue\tExecStart\tExecEnd\tWriteBack")
	for _, inst := range e.program {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\n",
			inst.Index, inst.Raw, inst.Issue, inst.ExecStart, inst.ExecEnd, inst.WriteBack)
	}
	_ = w.Flush()
	return b.String()
}

// DumpMemory renders every non-zero memory word, address-ordered.
func (e *Engine) DumpMemory() string {
	snap := e.memory.Snapshot()
	addrs := make([]int32, 0, len(snap))
	for addr := range snap {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "Address\tValue")
	for _, addr := range addrs {
		fmt.Fprintf(w, "%d\t%d\n", addr, snap[addr])
	}
	_ = w.Flush()
	return b.String()
}

// DumpLoadStoreQueue renders the in-flight address-unresolved memory
// ops, oldest first.
func (e *Engine) DumpLoadStoreQueue() string {
	ids := e.lsq.Indices()
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = fmt.Sprintf("%d", id)
	}
	return "Load/Store Queue: " + strings.Join(strs, " -> ") + "\n"
}

// DumpAll renders the full simulation state, the Go equivalent of
// tomasulo.py's print_details.
func (e *Engine) DumpAll() string {
	var b strings.Builder
	b.WriteString(e.DumpStations())
	b.WriteString(e.DumpLoadStoreQueue())
	b.WriteString(e.DumpRegisters())
	b.WriteString(e.DumpInstructions())
	b.WriteString(e.DumpMemory())
	return b.String()
}
