package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"peerlend/core/events"
	"peerlend/core/state"
	"peerlend/core/types"
	"peerlend/crypto"
	"peerlend/native/assetreg"
	"peerlend/native/bank"
	"peerlend/native/lending"
	"peerlend/native/userreg"
)

// AccountMeta is the caller's view of one positional account: the address plus
// the access flags the host verified before dispatch.
type AccountMeta struct {
	Address  crypto.Address
	Writable bool
	Signer   bool
}

// Node is the host runtime: it owns persistent state, resolves account metas
// into loaded accounts, runs the processor and commits the staged effects.
// Invocations are serialized, so every instruction observes the state left by
// the previous one.
type Node struct {
	mu sync.Mutex

	programID crypto.Address
	state     *state.Manager
	bank      *bank.Ledger
	processor *Processor
	logger    *slog.Logger
}

// NewNode wires a node from its collaborators.
func NewNode(programID crypto.Address, manager *state.Manager, ledger *bank.Ledger, processor *Processor) *Node {
	return &Node{
		programID: programID,
		state:     manager,
		bank:      ledger,
		processor: processor,
		logger:    slog.Default(),
	}
}

// SetLogger replaces the node logger. A nil logger restores the default.
func (n *Node) SetLogger(logger *slog.Logger) {
	if n == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	n.logger = logger
}

// SetEmitter wires the event sink on the underlying processor.
func (n *Node) SetEmitter(emitter events.Emitter) {
	if n == nil || n.processor == nil {
		return
	}
	n.processor.SetEmitter(emitter)
}

// ProgramID returns the program identity accounts must be owned by.
func (n *Node) ProgramID() crypto.Address {
	if n == nil {
		return crypto.Address{}
	}
	return n.programID
}

// SubmitInstruction resolves the account metas, executes the instruction and
// commits its effects. Custody movements settle before record write-back; a
// failure at any stage leaves persistent state untouched and returns the
// error.
func (n *Node) SubmitInstruction(data []byte, metas []AccountMeta) (*Result, error) {
	if n == nil || n.state == nil || n.bank == nil || n.processor == nil {
		return nil, errors.New("core: node not configured")
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	accounts, err := n.loadAccounts(metas)
	if err != nil {
		return nil, err
	}

	result, err := n.processor.Execute(data, accounts)
	if err != nil {
		n.logger.Debug("instruction rejected", "error", err)
		return nil, err
	}

	if len(result.Transfers) > 0 {
		moves := make([]bank.Movement, len(result.Transfers))
		for i, transfer := range result.Transfers {
			moves[i] = bank.Movement{From: transfer.From, To: transfer.To, Amount: transfer.Amount}
		}
		if err := n.bank.Apply(moves); err != nil {
			n.logger.Debug("instruction rejected", "error", err)
			return nil, err
		}
	}

	for _, update := range result.Updates {
		stored := &types.StoredAccount{
			Owner: append([]byte(nil), n.programID.Bytes()...),
			Data:  update.Data,
		}
		if err := n.state.PutAccount(update.Address, stored); err != nil {
			return nil, fmt.Errorf("core: commit account %s: %w", update.Address, err)
		}
	}

	n.logger.Info("instruction applied",
		"updates", len(result.Updates),
		"transfers", len(result.Transfers),
		"events", len(result.Events))
	return result, nil
}

// loadAccounts resolves metas into loaded instruction accounts. An address
// without a stored record resolves to an empty program-owned account, which is
// how fresh pool, loan and registry accounts come into existence.
func (n *Node) loadAccounts(metas []AccountMeta) ([]*types.InstructionAccount, error) {
	accounts := make([]*types.InstructionAccount, len(metas))
	for i, meta := range metas {
		acct := &types.InstructionAccount{
			Address:  meta.Address,
			Owner:    n.programID,
			Writable: meta.Writable,
			Signer:   meta.Signer,
		}
		stored, ok, err := n.state.GetAccount(meta.Address)
		if err != nil {
			return nil, err
		}
		if ok {
			acct.Owner = crypto.NewAddress(crypto.PLNPrefix, stored.Owner)
			acct.Data = append([]byte(nil), stored.Data...)
		}
		accounts[i] = acct
	}
	return accounts, nil
}

// --- queries ---

// GetPool loads the lending pool record at an address.
func (n *Node) GetPool(addr crypto.Address) (*lending.LendingPool, bool, error) {
	data, ok, err := n.accountData(addr)
	if err != nil || !ok {
		return nil, false, err
	}
	return lending.DecodePool(data)
}

// GetLoan loads the loan record at an address.
func (n *Node) GetLoan(addr crypto.Address) (*lending.Loan, bool, error) {
	data, ok, err := n.accountData(addr)
	if err != nil || !ok {
		return nil, false, err
	}
	return lending.DecodeLoan(data)
}

// GetUser loads the user registry record at an address.
func (n *Node) GetUser(addr crypto.Address) (*userreg.User, bool, error) {
	data, ok, err := n.accountData(addr)
	if err != nil || !ok {
		return nil, false, err
	}
	return userreg.DecodeUser(data)
}

// GetAsset loads the asset registry record at an address.
func (n *Node) GetAsset(addr crypto.Address) (*assetreg.Asset, bool, error) {
	data, ok, err := n.accountData(addr)
	if err != nil || !ok {
		return nil, false, err
	}
	return assetreg.DecodeAsset(data)
}

// Balance returns the token balance for an address.
func (n *Node) Balance(addr crypto.Address) (uint64, error) {
	if n == nil || n.bank == nil {
		return 0, errors.New("core: node not configured")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.bank.BalanceOf(addr)
}

// Mint credits freshly issued tokens to an address. Devnet faucet surface.
func (n *Node) Mint(addr crypto.Address, amount uint64) error {
	if n == nil || n.bank == nil {
		return errors.New("core: node not configured")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.bank.Mint(addr, amount); err != nil {
		return err
	}
	n.logger.Info("minted", "address", addr.String(), "amount", amount)
	return nil
}

func (n *Node) accountData(addr crypto.Address) ([]byte, bool, error) {
	if n == nil || n.state == nil {
		return nil, false, errors.New("core: node not configured")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	stored, ok, err := n.state.GetAccount(addr)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.Data, true, nil
}
