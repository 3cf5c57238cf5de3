package userreg

import (
	"strconv"

	"peerlend/core/types"
	"peerlend/crypto"
)

const (
	EventTypeUserCreated       = "userreg.user.created"
	EventTypeReputationUpdated = "userreg.user.reputation_updated"
	EventTypeKYCUpdated        = "userreg.user.kyc_updated"
)

// NewUserEvent returns the canonical payload for a user registry transition.
func NewUserEvent(eventType string, addr crypto.Address, user *User) *types.Event {
	attrs := map[string]string{"account": addr.String()}
	if user != nil {
		attrs["did"] = user.DID
		attrs["reputationScore"] = strconv.FormatUint(uint64(user.ReputationScore), 10)
		attrs["kycVerified"] = strconv.FormatBool(user.KYCStatus)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
