package userreg

import (
	"strings"

	"peerlend/core/types"
	nativecommon "peerlend/native/common"
)

const moduleName = "userreg"

// Engine applies user registry transitions. The registry is plain CRUD over
// a single record account; all identity verification happens in the host
// before the engine runs.
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

// CreateUser writes a fresh identity record with zero reputation and KYC
// pending.
func (e *Engine) CreateUser(acct *types.InstructionAccount, did string) (*User, error) {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrInvalidAccountData
	}
	if strings.TrimSpace(did) == "" {
		return nil, ErrDIDRequired
	}
	if len(acct.Data) != 0 {
		return nil, ErrAlreadyExists
	}
	return &User{DID: did, ReputationScore: 0, KYCStatus: false}, nil
}

// UpdateReputation replaces the reputation score on an existing record.
func (e *Engine) UpdateReputation(acct *types.InstructionAccount, newScore uint32) (*User, error) {
	user, err := e.load(acct)
	if err != nil {
		return nil, err
	}
	user.ReputationScore = newScore
	return user, nil
}

// SetKYCStatus flips the KYC flag on an existing record.
func (e *Engine) SetKYCStatus(acct *types.InstructionAccount, status bool) (*User, error) {
	user, err := e.load(acct)
	if err != nil {
		return nil, err
	}
	user.KYCStatus = status
	return user, nil
}

func (e *Engine) load(acct *types.InstructionAccount) (*User, error) {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrInvalidAccountData
	}
	user, ok, err := DecodeUser(acct.Data)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return user, nil
}
