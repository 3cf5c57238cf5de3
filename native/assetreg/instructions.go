package assetreg

import (
	"fmt"

	"peerlend/native/common"
)

// Operation tags for the asset registry subsystem.
const (
	OpCreateDigitalAsset uint8 = iota
	OpCreatePhysicalAsset
	OpUpdateAssetAmount
)

// Instruction is one decoded asset registry operation.
type Instruction interface {
	op() uint8
}

// CreateDigitalAsset registers a fungible token holding.
type CreateDigitalAsset struct {
	TokenAddress [20]byte
	Amount       uint64
}

// CreatePhysicalAsset registers a tokenised physical item.
type CreatePhysicalAsset struct {
	NFTAddress  [20]byte
	MetadataURI string
}

// UpdateAssetAmount replaces the amount on a digital asset record.
type UpdateAssetAmount struct {
	NewAmount uint64
}

func (CreateDigitalAsset) op() uint8  { return OpCreateDigitalAsset }
func (CreatePhysicalAsset) op() uint8 { return OpCreatePhysicalAsset }
func (UpdateAssetAmount) op() uint8   { return OpUpdateAssetAmount }

// DecodeInstruction parses an asset registry instruction buffer.
func DecodeInstruction(data []byte) (Instruction, error) {
	r := common.NewReader(data)
	tag, err := r.U8()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	var instr Instruction
	switch tag {
	case OpCreateDigitalAsset:
		var token [20]byte
		var amount uint64
		if token, err = r.Bytes20(); err == nil {
			if amount, err = r.U64(); err == nil {
				instr = CreateDigitalAsset{TokenAddress: token, Amount: amount}
			}
		}
	case OpCreatePhysicalAsset:
		var nft [20]byte
		var uri string
		if nft, err = r.Bytes20(); err == nil {
			if uri, err = r.String(); err == nil {
				instr = CreatePhysicalAsset{NFTAddress: nft, MetadataURI: uri}
			}
		}
	case OpUpdateAssetAmount:
		var amount uint64
		if amount, err = r.U64(); err == nil {
			instr = UpdateAssetAmount{NewAmount: amount}
		}
	default:
		return nil, fmt.Errorf("%w: unknown asset operation %d", ErrDecode, tag)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := r.Finish(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return instr, nil
}

// EncodeInstruction renders the wire form of an asset registry instruction.
func EncodeInstruction(instr Instruction) []byte {
	buf := common.AppendU8(nil, instr.op())
	switch v := instr.(type) {
	case CreateDigitalAsset:
		buf = common.AppendBytes20(buf, v.TokenAddress)
		buf = common.AppendU64(buf, v.Amount)
	case CreatePhysicalAsset:
		buf = common.AppendBytes20(buf, v.NFTAddress)
		buf = common.AppendString(buf, v.MetadataURI)
	case UpdateAssetAmount:
		buf = common.AppendU64(buf, v.NewAmount)
	}
	return buf
}
