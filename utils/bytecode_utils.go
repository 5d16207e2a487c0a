package utils

import (
	"fmt"

	"github.com/crytic/medusa-geth/core/vm"
)

// InstructionIterator walks the instructions of EVM bytecode, skipping over the immediate arguments of PUSH
// instructions.
type InstructionIterator struct {
	// code is the bytecode being walked.
	code []byte

	// pc is the program counter of the current instruction.
	pc uint64

	// arg holds the immediate argument of the current instruction, if it has one.
	arg []byte

	// op is the current instruction.
	op vm.OpCode

	// started indicates Next was called at least once.
	started bool

	// err is set when the bytecode ends in the middle of an instruction.
	err error
}

// NewInstructionIterator creates an InstructionIterator over code.
func NewInstructionIterator(code []byte) *InstructionIterator {
	return &InstructionIterator{code: code}
}

// Next advances to the following instruction. It returns false once the bytecode is exhausted or an incomplete
// instruction is found, in which case Error describes it.
func (it *InstructionIterator) Next() bool {
	if it.err != nil || uint64(len(it.code)) <= it.pc {
		return false
	}

	if it.started {
		it.pc += uint64(len(it.arg)) + 1
	} else {
		it.started = true
	}
	if uint64(len(it.code)) <= it.pc {
		return false
	}

	it.op = vm.OpCode(it.code[it.pc])
	it.arg = nil
	if it.op.IsPush() {
		width := uint64(it.op - vm.PUSH0)
		start := it.pc + 1
		end := start + width
		if end > uint64(len(it.code)) {
			it.err = fmt.Errorf("incomplete %v instruction at %v", it.op, it.pc)
			return false
		}
		it.arg = it.code[start:end]
	}
	return true
}

// Error returns the error which stopped iteration, if any.
func (it *InstructionIterator) Error() error {
	return it.err
}

// PC returns the program counter of the current instruction.
func (it *InstructionIterator) PC() uint64 {
	return it.pc
}

// Op returns the current instruction.
func (it *InstructionIterator) Op() vm.OpCode {
	return it.op
}

// Arg returns the immediate argument of the current instruction. It is empty for every instruction but PUSH1 to
// PUSH32.
func (it *InstructionIterator) Arg() []byte {
	return it.arg
}
