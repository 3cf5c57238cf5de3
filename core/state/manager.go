package state

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"peerlend/core/types"
	"peerlend/crypto"
	"peerlend/storage"
)

// Manager persists host-side account records and token balances. Keys are
// keccak-derived from a prefix plus the raw address so unrelated record
// families never collide.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var (
	accountPrefix = []byte("account:")
	balancePrefix = []byte("balance:")
)

func accountKey(addr crypto.Address) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr.Bytes()))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr.Bytes())
	return ethcrypto.Keccak256(buf)
}

func balanceKey(addr crypto.Address) []byte {
	buf := make([]byte, len(balancePrefix)+len(addr.Bytes()))
	copy(buf, balancePrefix)
	copy(buf[len(balancePrefix):], addr.Bytes())
	return ethcrypto.Keccak256(buf)
}

// GetAccount loads a stored account record. The second return value is false
// when the address has no record yet.
func (m *Manager) GetAccount(addr crypto.Address) (*types.StoredAccount, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, errors.New("state: manager not configured")
	}
	data, err := m.db.Get(accountKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	stored := new(types.StoredAccount)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, false, fmt.Errorf("state: decode account %s: %w", addr, err)
	}
	return stored, true, nil
}

// PutAccount writes a stored account record.
func (m *Manager) PutAccount(addr crypto.Address, account *types.StoredAccount) error {
	if m == nil || m.db == nil {
		return errors.New("state: manager not configured")
	}
	if account == nil {
		return errors.New("state: nil account")
	}
	encoded, err := rlp.EncodeToBytes(account)
	if err != nil {
		return err
	}
	return m.db.Put(accountKey(addr), encoded)
}

// Balance returns the token balance for an address. Missing entries read as
// zero.
func (m *Manager) Balance(addr crypto.Address) (uint64, error) {
	if m == nil || m.db == nil {
		return 0, errors.New("state: manager not configured")
	}
	data, err := m.db.Get(balanceKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var balance uint64
	if err := rlp.DecodeBytes(data, &balance); err != nil {
		return 0, fmt.Errorf("state: decode balance %s: %w", addr, err)
	}
	return balance, nil
}

// SetBalance writes the token balance for an address.
func (m *Manager) SetBalance(addr crypto.Address, balance uint64) error {
	if m == nil || m.db == nil {
		return errors.New("state: manager not configured")
	}
	encoded, err := rlp.EncodeToBytes(balance)
	if err != nil {
		return err
	}
	return m.db.Put(balanceKey(addr), encoded)
}
