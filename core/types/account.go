package types

import "peerlend/crypto"

// InstructionAccount is one positional account handle supplied by the host for
// a single instruction invocation. The host has already verified signatures;
// the Signer and Writable flags reflect those host-checked facts. Data holds
// the full current contents of the record at Address.
type InstructionAccount struct {
	Address  crypto.Address
	Owner    crypto.Address
	Writable bool
	Signer   bool
	Data     []byte
}

// AccountUpdate carries the replacement contents for one account. The
// processor emits the complete update set for an instruction or nothing at
// all, so the host can apply it atomically.
type AccountUpdate struct {
	Address crypto.Address
	Data    []byte
}

// StoredAccount is the host-side persisted form of an account record.
type StoredAccount struct {
	Owner []byte
	Data  []byte
}
