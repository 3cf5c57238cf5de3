package userreg

import (
	"fmt"

	"peerlend/native/common"
)

// Operation tags for the user registry subsystem.
const (
	OpCreateUser uint8 = iota
	OpUpdateReputation
	OpSetKYCStatus
)

// Instruction is one decoded user registry operation.
type Instruction interface {
	op() uint8
}

// CreateUser registers a fresh identity record.
type CreateUser struct {
	DID string
}

// UpdateReputation replaces the reputation score on an existing record.
type UpdateReputation struct {
	NewScore uint32
}

// SetKYCStatus flips the KYC flag on an existing record.
type SetKYCStatus struct {
	Status bool
}

func (CreateUser) op() uint8       { return OpCreateUser }
func (UpdateReputation) op() uint8 { return OpUpdateReputation }
func (SetKYCStatus) op() uint8     { return OpSetKYCStatus }

// DecodeInstruction parses a user registry instruction buffer.
func DecodeInstruction(data []byte) (Instruction, error) {
	r := common.NewReader(data)
	tag, err := r.U8()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	var instr Instruction
	switch tag {
	case OpCreateUser:
		var did string
		if did, err = r.String(); err == nil {
			instr = CreateUser{DID: did}
		}
	case OpUpdateReputation:
		var score uint32
		if score, err = r.U32(); err == nil {
			instr = UpdateReputation{NewScore: score}
		}
	case OpSetKYCStatus:
		var status bool
		if status, err = r.Bool(); err == nil {
			instr = SetKYCStatus{Status: status}
		}
	default:
		return nil, fmt.Errorf("%w: unknown user operation %d", ErrDecode, tag)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := r.Finish(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return instr, nil
}

// EncodeInstruction renders the wire form of a user registry instruction.
func EncodeInstruction(instr Instruction) []byte {
	buf := common.AppendU8(nil, instr.op())
	switch v := instr.(type) {
	case CreateUser:
		buf = common.AppendString(buf, v.DID)
	case UpdateReputation:
		buf = common.AppendU32(buf, v.NewScore)
	case SetKYCStatus:
		buf = common.AppendBool(buf, v.Status)
	}
	return buf
}
