package assetreg

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

var (
	// ErrDecode marks a malformed asset instruction buffer.
	ErrDecode = errors.New("assetreg: malformed instruction")
	// ErrInvalidAccountData marks an asset account that violates the role
	// contract of the decoded instruction.
	ErrInvalidAccountData = errors.New("assetreg: invalid account data")
	// ErrAlreadyExists marks a create against an account that already holds
	// an asset record.
	ErrAlreadyExists = errors.New("assetreg: asset already exists")
	// ErrNotFound marks an update against an empty asset account.
	ErrNotFound = errors.New("assetreg: asset not found")
	// ErrInvalidRecord marks a persisted asset record that cannot be decoded.
	ErrInvalidRecord = errors.New("assetreg: invalid record encoding")
	// ErrNotFungible marks an amount update against a physical asset, whose
	// quantity is fixed at one.
	ErrNotFungible = errors.New("assetreg: physical assets carry no amount")
)

// AssetKind tags the two asset variants.
type AssetKind uint8

const (
	KindDigital AssetKind = iota
	KindPhysical
)

// Valid reports whether the kind value is within the supported range.
func (k AssetKind) Valid() bool {
	return k == KindDigital || k == KindPhysical
}

func (k AssetKind) String() string {
	switch k {
	case KindDigital:
		return "digital"
	case KindPhysical:
		return "physical"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Asset is a tagged union: a fungible digital holding or a tokenised physical
// item. Exactly one of Digital/Physical is set, matching Kind.
type Asset struct {
	Kind     AssetKind
	Digital  *DigitalAsset
	Physical *PhysicalAsset
}

// DigitalAsset references a fungible token holding.
type DigitalAsset struct {
	TokenAddress [20]byte
	Amount       uint64
}

// PhysicalAsset references the NFT deed of a real-world item.
type PhysicalAsset struct {
	NFTAddress  [20]byte
	MetadataURI string
}

// Clone returns a copy callers can mutate without touching the original.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	clone := &Asset{Kind: a.Kind}
	if a.Digital != nil {
		digital := *a.Digital
		clone.Digital = &digital
	}
	if a.Physical != nil {
		physical := *a.Physical
		clone.Physical = &physical
	}
	return clone
}

const assetRecordVersion uint8 = 1

type storedAsset struct {
	Version      uint8
	Kind         uint8
	TokenAddress [20]byte
	Amount       uint64
	NFTAddress   [20]byte
	MetadataURI  string
}

// EncodeAsset serialises an asset record for write-back.
func EncodeAsset(asset *Asset) ([]byte, error) {
	if asset == nil {
		return nil, fmt.Errorf("%w: nil asset", ErrInvalidRecord)
	}
	stored := &storedAsset{Version: assetRecordVersion, Kind: uint8(asset.Kind)}
	switch asset.Kind {
	case KindDigital:
		if asset.Digital == nil {
			return nil, fmt.Errorf("%w: digital asset payload missing", ErrInvalidRecord)
		}
		stored.TokenAddress = asset.Digital.TokenAddress
		stored.Amount = asset.Digital.Amount
	case KindPhysical:
		if asset.Physical == nil {
			return nil, fmt.Errorf("%w: physical asset payload missing", ErrInvalidRecord)
		}
		stored.NFTAddress = asset.Physical.NFTAddress
		stored.MetadataURI = asset.Physical.MetadataURI
	default:
		return nil, fmt.Errorf("%w: invalid asset kind %d", ErrInvalidRecord, asset.Kind)
	}
	return rlp.EncodeToBytes(stored)
}

// DecodeAsset deserialises an asset record. The second return value is false
// when the buffer is empty.
func DecodeAsset(data []byte) (*Asset, bool, error) {
	if len(data) == 0 {
		return nil, false, nil
	}
	stored := new(storedAsset)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if stored.Version != assetRecordVersion {
		return nil, false, fmt.Errorf("%w: unsupported asset record version %d", ErrInvalidRecord, stored.Version)
	}
	kind := AssetKind(stored.Kind)
	asset := &Asset{Kind: kind}
	switch kind {
	case KindDigital:
		asset.Digital = &DigitalAsset{TokenAddress: stored.TokenAddress, Amount: stored.Amount}
	case KindPhysical:
		asset.Physical = &PhysicalAsset{NFTAddress: stored.NFTAddress, MetadataURI: stored.MetadataURI}
	default:
		return nil, false, fmt.Errorf("%w: invalid asset kind %d", ErrInvalidRecord, stored.Kind)
	}
	return asset, true, nil
}
