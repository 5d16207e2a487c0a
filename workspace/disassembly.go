package workspace

import (
	"fmt"
	"sort"
	"strings"

	"github.com/crytic/pathfinder/utils"
)

// Disassemble returns one line per instruction of bytecode, as "<pc> <opcode> [0x<argument>]". If visited is
// non-nil, instructions it contains are prefixed with "*". Disassembly stops at the first malformed instruction,
// which for compiled contracts is typically the start of their metadata.
func Disassemble(bytecode []byte, visited map[uint64]struct{}) string {
	var sb strings.Builder
	it := utils.NewInstructionIterator(bytecode)
	for it.Next() {
		if visited != nil {
			if _, ok := visited[it.PC()]; ok {
				sb.WriteString("* ")
			} else {
				sb.WriteString("  ")
			}
		}
		fmt.Fprintf(&sb, "%6d %s", it.PC(), it.Op().String())
		if len(it.Arg()) > 0 {
			fmt.Fprintf(&sb, " 0x%x", it.Arg())
		}
		sb.WriteByte('\n')
	}
	if err := it.Error(); err != nil {
		fmt.Fprintf(&sb, "; %v\n", err)
	}
	return sb.String()
}

// FormatVisitedPCs returns the sorted program counters in visited, one hex value per line.
func FormatVisitedPCs(visited map[uint64]struct{}) string {
	pcs := make([]uint64, 0, len(visited))
	for pc := range visited {
		pcs = append(pcs, pc)
	}
	sort.Slice(pcs, func(i, j int) bool { return pcs[i] < pcs[j] })

	var sb strings.Builder
	for _, pc := range pcs {
		fmt.Fprintf(&sb, "0x%x\n", pc)
	}
	return sb.String()
}
