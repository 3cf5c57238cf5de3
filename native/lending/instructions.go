package lending

import (
	"fmt"

	"peerlend/native/common"
)

// Operation tags for the lending subsystem. Tags are append-only; a changed
// field shape gets a fresh tag so old buffers are never reinterpreted.
const (
	OpInitializePool uint8 = iota
	OpDeposit
	OpBorrow
	OpRepay
	OpLiquidate
)

// Instruction is one decoded lending operation.
type Instruction interface {
	op() uint8
}

// InitializePool creates the pool record at the address derived from Seed.
type InitializePool struct {
	Seed uint64
}

// Deposit adds liquidity to the pool.
type Deposit struct {
	Amount uint64
}

// Borrow opens a new loan against the supplied collateral.
type Borrow struct {
	Amount           uint64
	CollateralAmount uint64
}

// Repay settles an active loan in full.
type Repay struct {
	LoanID uint64
	Amount uint64
}

// Liquidate force-closes an overdue or under-collateralized loan.
type Liquidate struct {
	LoanID uint64
}

func (InitializePool) op() uint8 { return OpInitializePool }
func (Deposit) op() uint8        { return OpDeposit }
func (Borrow) op() uint8         { return OpBorrow }
func (Repay) op() uint8          { return OpRepay }
func (Liquidate) op() uint8      { return OpLiquidate }

// DecodeInstruction parses a lending instruction buffer. Short buffers,
// unknown tags and trailing bytes all fail with ErrDecode.
func DecodeInstruction(data []byte) (Instruction, error) {
	r := common.NewReader(data)
	tag, err := r.U8()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	var instr Instruction
	switch tag {
	case OpInitializePool:
		var seed uint64
		if seed, err = r.U64(); err == nil {
			instr = InitializePool{Seed: seed}
		}
	case OpDeposit:
		var amount uint64
		if amount, err = r.U64(); err == nil {
			instr = Deposit{Amount: amount}
		}
	case OpBorrow:
		var amount, collateral uint64
		if amount, err = r.U64(); err == nil {
			if collateral, err = r.U64(); err == nil {
				instr = Borrow{Amount: amount, CollateralAmount: collateral}
			}
		}
	case OpRepay:
		var loanID, amount uint64
		if loanID, err = r.U64(); err == nil {
			if amount, err = r.U64(); err == nil {
				instr = Repay{LoanID: loanID, Amount: amount}
			}
		}
	case OpLiquidate:
		var loanID uint64
		if loanID, err = r.U64(); err == nil {
			instr = Liquidate{LoanID: loanID}
		}
	default:
		return nil, fmt.Errorf("%w: unknown lending operation %d", ErrDecode, tag)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := r.Finish(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return instr, nil
}

// EncodeInstruction renders the wire form of a lending instruction. It is the
// exact inverse of DecodeInstruction and primarily serves clients and tests.
func EncodeInstruction(instr Instruction) []byte {
	buf := common.AppendU8(nil, instr.op())
	switch v := instr.(type) {
	case InitializePool:
		buf = common.AppendU64(buf, v.Seed)
	case Deposit:
		buf = common.AppendU64(buf, v.Amount)
	case Borrow:
		buf = common.AppendU64(buf, v.Amount)
		buf = common.AppendU64(buf, v.CollateralAmount)
	case Repay:
		buf = common.AppendU64(buf, v.LoanID)
		buf = common.AppendU64(buf, v.Amount)
	case Liquidate:
		buf = common.AppendU64(buf, v.LoanID)
	}
	return buf
}
