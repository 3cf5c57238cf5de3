package assetreg

import (
	"peerlend/core/types"
	nativecommon "peerlend/native/common"
)

const moduleName = "assetreg"

// Engine applies asset registry transitions.
type Engine struct {
	pauses nativecommon.PauseView
}

func NewEngine() *Engine {
	return &Engine{}
}

// SetPauses wires the governance pause switches.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// CreateDigitalAsset writes a fresh fungible asset record.
func (e *Engine) CreateDigitalAsset(acct *types.InstructionAccount, token [20]byte, amount uint64) (*Asset, error) {
	if err := e.ensureEmpty(acct); err != nil {
		return nil, err
	}
	return &Asset{
		Kind:    KindDigital,
		Digital: &DigitalAsset{TokenAddress: token, Amount: amount},
	}, nil
}

// CreatePhysicalAsset writes a fresh physical asset record.
func (e *Engine) CreatePhysicalAsset(acct *types.InstructionAccount, nft [20]byte, metadataURI string) (*Asset, error) {
	if err := e.ensureEmpty(acct); err != nil {
		return nil, err
	}
	return &Asset{
		Kind:     KindPhysical,
		Physical: &PhysicalAsset{NFTAddress: nft, MetadataURI: metadataURI},
	}, nil
}

// UpdateAssetAmount replaces the amount on a digital asset. Physical assets
// are indivisible and reject the operation.
func (e *Engine) UpdateAssetAmount(acct *types.InstructionAccount, newAmount uint64) (*Asset, error) {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrInvalidAccountData
	}
	asset, ok, err := DecodeAsset(acct.Data)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if asset.Kind != KindDigital || asset.Digital == nil {
		return nil, ErrNotFungible
	}
	asset.Digital.Amount = newAmount
	return asset, nil
}

func (e *Engine) ensureEmpty(acct *types.InstructionAccount) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if acct == nil {
		return ErrInvalidAccountData
	}
	if len(acct.Data) != 0 {
		return ErrAlreadyExists
	}
	return nil
}
