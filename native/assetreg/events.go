package assetreg

import (
	"encoding/hex"
	"strconv"

	"peerlend/core/types"
	"peerlend/crypto"
)

const (
	EventTypeAssetCreated = "assetreg.asset.created"
	EventTypeAssetUpdated = "assetreg.asset.updated"
)

// NewAssetEvent returns the canonical payload for an asset registry
// transition.
func NewAssetEvent(eventType string, addr crypto.Address, asset *Asset) *types.Event {
	attrs := map[string]string{"account": addr.String()}
	if asset != nil {
		attrs["kind"] = asset.Kind.String()
		switch {
		case asset.Digital != nil:
			attrs["token"] = hex.EncodeToString(asset.Digital.TokenAddress[:])
			attrs["amount"] = strconv.FormatUint(asset.Digital.Amount, 10)
		case asset.Physical != nil:
			attrs["nft"] = hex.EncodeToString(asset.Physical.NFTAddress[:])
			attrs["metadataUri"] = asset.Physical.MetadataURI
		}
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
