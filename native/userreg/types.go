package userreg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"
)

var (
	// ErrDecode marks a malformed user instruction buffer.
	ErrDecode = errors.New("userreg: malformed instruction")
	// ErrInvalidAccountData marks a user account that violates the role
	// contract of the decoded instruction.
	ErrInvalidAccountData = errors.New("userreg: invalid account data")
	// ErrAlreadyExists marks a create against an account that already holds a
	// user record.
	ErrAlreadyExists = errors.New("userreg: user already exists")
	// ErrNotFound marks an update against an empty user account.
	ErrNotFound = errors.New("userreg: user not found")
	// ErrInvalidRecord marks a persisted user record that cannot be decoded.
	ErrInvalidRecord = errors.New("userreg: invalid record encoding")
	// ErrDIDRequired marks a create with an empty decentralised identifier.
	ErrDIDRequired = errors.New("userreg: did required")
)

const userRecordVersion uint8 = 1

// User is the registry record for one participant identity.
type User struct {
	DID             string
	ReputationScore uint32
	KYCStatus       bool
}

// Clone returns a copy callers can mutate without touching the original.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

type storedUser struct {
	Version         uint8
	DID             string
	ReputationScore uint32
	KYCStatus       bool
}

// EncodeUser serialises a user record for write-back.
func EncodeUser(user *User) ([]byte, error) {
	if user == nil {
		return nil, fmt.Errorf("%w: nil user", ErrInvalidRecord)
	}
	if strings.TrimSpace(user.DID) == "" {
		return nil, ErrDIDRequired
	}
	return rlp.EncodeToBytes(&storedUser{
		Version:         userRecordVersion,
		DID:             user.DID,
		ReputationScore: user.ReputationScore,
		KYCStatus:       user.KYCStatus,
	})
}

// DecodeUser deserialises a user record. The second return value is false
// when the buffer is empty.
func DecodeUser(data []byte) (*User, bool, error) {
	if len(data) == 0 {
		return nil, false, nil
	}
	stored := new(storedUser)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if stored.Version != userRecordVersion {
		return nil, false, fmt.Errorf("%w: unsupported user record version %d", ErrInvalidRecord, stored.Version)
	}
	return &User{
		DID:             stored.DID,
		ReputationScore: stored.ReputationScore,
		KYCStatus:       stored.KYCStatus,
	}, true, nil
}
