package core

import (
	"errors"
	"fmt"

	"peerlend/core/events"
	"peerlend/core/types"
	"peerlend/crypto"
	"peerlend/native/assetreg"
	"peerlend/native/lending"
	"peerlend/native/userreg"
)

// Subsystem tags of the top-level program instruction. One authenticated
// entry point routes every request; the subsystems never expose entry points
// of their own.
const (
	SubsystemLending uint8 = iota
	SubsystemUser
	SubsystemAsset
)

var (
	// ErrDecode marks a buffer whose outer shape matches no known program
	// instruction.
	ErrDecode = errors.New("core: malformed program instruction")
	// ErrInvalidAccountData marks an account list that violates the
	// positional role contract of the decoded instruction.
	ErrInvalidAccountData = errors.New("core: account list violates instruction role contract")
	// ErrInvalidAccountOwner marks a record account not owned by the program.
	ErrInvalidAccountOwner = errors.New("core: record account not owned by program")
	// ErrNotWritable marks a mutated role backed by a read-only account.
	ErrNotWritable = errors.New("core: account not writable")
	// ErrMissingSigner marks a payer or authority role without a verified
	// signature.
	ErrMissingSigner = errors.New("core: missing required signer")
)

// ProgramInstruction is the decoded top-level request: a subsystem tag plus
// exactly one populated variant.
type ProgramInstruction struct {
	Subsystem uint8
	Lending   lending.Instruction
	User      userreg.Instruction
	Asset     assetreg.Instruction
}

// DecodeProgramInstruction splits the outer subsystem tag off the buffer and
// hands the remainder to the subsystem decoder.
func DecodeProgramInstruction(data []byte) (*ProgramInstruction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrDecode)
	}
	tag, payload := data[0], data[1:]
	switch tag {
	case SubsystemLending:
		instr, err := lending.DecodeInstruction(payload)
		if err != nil {
			return nil, err
		}
		return &ProgramInstruction{Subsystem: tag, Lending: instr}, nil
	case SubsystemUser:
		instr, err := userreg.DecodeInstruction(payload)
		if err != nil {
			return nil, err
		}
		return &ProgramInstruction{Subsystem: tag, User: instr}, nil
	case SubsystemAsset:
		instr, err := assetreg.DecodeInstruction(payload)
		if err != nil {
			return nil, err
		}
		return &ProgramInstruction{Subsystem: tag, Asset: instr}, nil
	default:
		return nil, fmt.Errorf("%w: unknown subsystem %d", ErrDecode, tag)
	}
}

// EncodeLendingInstruction renders the full wire form of a lending request.
func EncodeLendingInstruction(instr lending.Instruction) []byte {
	return append([]byte{SubsystemLending}, lending.EncodeInstruction(instr)...)
}

// EncodeUserInstruction renders the full wire form of a user registry request.
func EncodeUserInstruction(instr userreg.Instruction) []byte {
	return append([]byte{SubsystemUser}, userreg.EncodeInstruction(instr)...)
}

// EncodeAssetInstruction renders the full wire form of an asset registry
// request.
func EncodeAssetInstruction(instr assetreg.Instruction) []byte {
	return append([]byte{SubsystemAsset}, assetreg.EncodeInstruction(instr)...)
}

// Result is the complete effect set of one successful instruction: the
// replacement account contents, the custody movements the host must execute
// and the events describing the transition. A failed instruction produces no
// Result, so the host never sees a partial mutation set.
type Result struct {
	Updates   []types.AccountUpdate
	Transfers []lending.Transfer
	Events    []*types.Event
}

// Processor is the top-level instruction dispatcher. It decodes the request,
// enforces the positional account-role contract, invokes the owning engine
// and assembles the staged write-back set.
type Processor struct {
	programID crypto.Address
	lending   *lending.Engine
	users     *userreg.Engine
	assets    *assetreg.Engine
	emitter   events.Emitter
}

// NewProcessor constructs a processor routing to the supplied engines.
func NewProcessor(programID crypto.Address, lend *lending.Engine, users *userreg.Engine, assets *assetreg.Engine) *Processor {
	return &Processor{
		programID: programID,
		lending:   lend,
		users:     users,
		assets:    assets,
		emitter:   events.NoopEmitter{},
	}
}

// SetEmitter wires the event sink. A nil emitter restores the discard sink.
func (p *Processor) SetEmitter(emitter events.Emitter) {
	if p == nil {
		return
	}
	if emitter == nil {
		p.emitter = events.NoopEmitter{}
		return
	}
	p.emitter = emitter
}

// ProgramID returns the program identity used for address derivations.
func (p *Processor) ProgramID() crypto.Address {
	if p == nil {
		return crypto.Address{}
	}
	return p.programID
}

// Execute runs one instruction against the supplied positional accounts.
// Either the full mutation set is returned or none of it is; events are
// emitted only on success.
func (p *Processor) Execute(data []byte, accounts []*types.InstructionAccount) (*Result, error) {
	if p == nil {
		return nil, errors.New("core: processor not configured")
	}
	instr, err := DecodeProgramInstruction(data)
	if err != nil {
		return nil, err
	}

	var result *Result
	switch instr.Subsystem {
	case SubsystemLending:
		result, err = p.executeLending(instr.Lending, accounts)
	case SubsystemUser:
		result, err = p.executeUser(instr.User, accounts)
	case SubsystemAsset:
		result, err = p.executeAsset(instr.Asset, accounts)
	default:
		err = fmt.Errorf("%w: unknown subsystem %d", ErrDecode, instr.Subsystem)
	}
	if err != nil {
		return nil, err
	}

	for _, evt := range result.Events {
		p.emitter.Emit(evt)
	}
	return result, nil
}

// --- role contract checks ---

func expectAccounts(accounts []*types.InstructionAccount, n int) error {
	if len(accounts) != n {
		return fmt.Errorf("%w: want %d accounts, got %d", ErrInvalidAccountData, n, len(accounts))
	}
	for i, acct := range accounts {
		if acct == nil {
			return fmt.Errorf("%w: account %d is nil", ErrInvalidAccountData, i)
		}
	}
	return nil
}

func (p *Processor) requireRecord(acct *types.InstructionAccount, role string) error {
	if !acct.Owner.Equal(p.programID) {
		return fmt.Errorf("%w: %s account %s", ErrInvalidAccountOwner, role, acct.Address)
	}
	if !acct.Writable {
		return fmt.Errorf("%w: %s account %s", ErrNotWritable, role, acct.Address)
	}
	return nil
}

func requireSigner(acct *types.InstructionAccount, role string) error {
	if !acct.Signer {
		return fmt.Errorf("%w: %s account %s", ErrMissingSigner, role, acct.Address)
	}
	return nil
}

// --- lending routing ---

func (p *Processor) executeLending(instr lending.Instruction, accounts []*types.InstructionAccount) (*Result, error) {
	if p.lending == nil {
		return nil, errors.New("core: lending engine not configured")
	}
	switch op := instr.(type) {
	case lending.InitializePool:
		if err := expectAccounts(accounts, 1); err != nil {
			return nil, err
		}
		pool := accounts[0]
		if err := p.requireRecord(pool, "pool"); err != nil {
			return nil, err
		}
		record, err := p.lending.InitializePool(p.programID, op.Seed, pool)
		if err != nil {
			return nil, err
		}
		updates, err := stagePool(pool.Address, record)
		if err != nil {
			return nil, err
		}
		return &Result{
			Updates: updates,
			Events:  []*types.Event{lending.NewPoolInitializedEvent(pool.Address, record)},
		}, nil

	case lending.Deposit:
		if err := expectAccounts(accounts, 2); err != nil {
			return nil, err
		}
		user, pool := accounts[0], accounts[1]
		if err := requireSigner(user, "depositor"); err != nil {
			return nil, err
		}
		if err := p.requireRecord(pool, "pool"); err != nil {
			return nil, err
		}
		res, err := p.lending.Deposit(user, pool, op.Amount)
		if err != nil {
			return nil, err
		}
		updates, err := stagePool(pool.Address, res.Pool)
		if err != nil {
			return nil, err
		}
		return &Result{
			Updates:   updates,
			Transfers: res.Transfers,
			Events:    []*types.Event{lending.NewDepositedEvent(pool.Address, res.Pool, user.Address, op.Amount)},
		}, nil

	case lending.Borrow:
		if err := expectAccounts(accounts, 3); err != nil {
			return nil, err
		}
		user, pool, loanAcct := accounts[0], accounts[1], accounts[2]
		if err := requireSigner(user, "borrower"); err != nil {
			return nil, err
		}
		if err := p.requireRecord(pool, "pool"); err != nil {
			return nil, err
		}
		if err := p.requireRecord(loanAcct, "loan"); err != nil {
			return nil, err
		}
		res, err := p.lending.Borrow(user, pool, loanAcct, op.Amount, op.CollateralAmount)
		if err != nil {
			return nil, err
		}
		updates, err := stagePool(pool.Address, res.Pool)
		if err != nil {
			return nil, err
		}
		updates, err = stageLoan(updates, loanAcct.Address, res.Loan)
		if err != nil {
			return nil, err
		}
		return &Result{
			Updates:   updates,
			Transfers: res.Transfers,
			Events:    []*types.Event{lending.NewLoanCreatedEvent(pool.Address, res.Loan)},
		}, nil

	case lending.Repay:
		if err := expectAccounts(accounts, 3); err != nil {
			return nil, err
		}
		user, pool, loanAcct := accounts[0], accounts[1], accounts[2]
		if err := requireSigner(user, "payer"); err != nil {
			return nil, err
		}
		if err := p.requireRecord(pool, "pool"); err != nil {
			return nil, err
		}
		if err := p.requireRecord(loanAcct, "loan"); err != nil {
			return nil, err
		}
		res, err := p.lending.Repay(user, pool, loanAcct, op.LoanID, op.Amount)
		if err != nil {
			return nil, err
		}
		updates, err := stagePool(pool.Address, res.Pool)
		if err != nil {
			return nil, err
		}
		updates, err = stageLoan(updates, loanAcct.Address, res.Loan)
		if err != nil {
			return nil, err
		}
		return &Result{
			Updates:   updates,
			Transfers: res.Transfers,
			Events:    []*types.Event{lending.NewLoanRepaidEvent(pool.Address, res.Loan, res.Owed)},
		}, nil

	case lending.Liquidate:
		if err := expectAccounts(accounts, 4); err != nil {
			return nil, err
		}
		liquidator, borrower, pool, loanAcct := accounts[0], accounts[1], accounts[2], accounts[3]
		if err := requireSigner(liquidator, "liquidator"); err != nil {
			return nil, err
		}
		if err := p.requireRecord(pool, "pool"); err != nil {
			return nil, err
		}
		if err := p.requireRecord(loanAcct, "loan"); err != nil {
			return nil, err
		}
		res, err := p.lending.Liquidate(liquidator, borrower, pool, loanAcct, op.LoanID)
		if err != nil {
			return nil, err
		}
		updates, err := stagePool(pool.Address, res.Pool)
		if err != nil {
			return nil, err
		}
		updates, err = stageLoan(updates, loanAcct.Address, res.Loan)
		if err != nil {
			return nil, err
		}
		return &Result{
			Updates:   updates,
			Transfers: res.Transfers,
			Events:    []*types.Event{lending.NewLoanLiquidatedEvent(pool.Address, res.Loan, liquidator.Address, res.Reason)},
		}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported lending operation", ErrDecode)
	}
}

func stagePool(addr crypto.Address, pool *lending.LendingPool) ([]types.AccountUpdate, error) {
	encoded, err := lending.EncodePool(pool)
	if err != nil {
		return nil, err
	}
	return []types.AccountUpdate{{Address: addr, Data: encoded}}, nil
}

func stageLoan(updates []types.AccountUpdate, addr crypto.Address, loan *lending.Loan) ([]types.AccountUpdate, error) {
	encoded, err := lending.EncodeLoan(loan)
	if err != nil {
		return nil, err
	}
	return append(updates, types.AccountUpdate{Address: addr, Data: encoded}), nil
}

// --- user registry routing ---

func (p *Processor) executeUser(instr userreg.Instruction, accounts []*types.InstructionAccount) (*Result, error) {
	if p.users == nil {
		return nil, errors.New("core: user registry engine not configured")
	}
	if err := expectAccounts(accounts, 1); err != nil {
		return nil, err
	}
	acct := accounts[0]
	if err := p.requireRecord(acct, "user"); err != nil {
		return nil, err
	}

	var (
		user    *userreg.User
		evtType string
		err     error
	)
	switch op := instr.(type) {
	case userreg.CreateUser:
		user, err = p.users.CreateUser(acct, op.DID)
		evtType = userreg.EventTypeUserCreated
	case userreg.UpdateReputation:
		user, err = p.users.UpdateReputation(acct, op.NewScore)
		evtType = userreg.EventTypeReputationUpdated
	case userreg.SetKYCStatus:
		user, err = p.users.SetKYCStatus(acct, op.Status)
		evtType = userreg.EventTypeKYCUpdated
	default:
		return nil, fmt.Errorf("%w: unsupported user operation", ErrDecode)
	}
	if err != nil {
		return nil, err
	}

	encoded, err := userreg.EncodeUser(user)
	if err != nil {
		return nil, err
	}
	return &Result{
		Updates: []types.AccountUpdate{{Address: acct.Address, Data: encoded}},
		Events:  []*types.Event{userreg.NewUserEvent(evtType, acct.Address, user)},
	}, nil
}

// --- asset registry routing ---

func (p *Processor) executeAsset(instr assetreg.Instruction, accounts []*types.InstructionAccount) (*Result, error) {
	if p.assets == nil {
		return nil, errors.New("core: asset registry engine not configured")
	}
	if err := expectAccounts(accounts, 1); err != nil {
		return nil, err
	}
	acct := accounts[0]
	if err := p.requireRecord(acct, "asset"); err != nil {
		return nil, err
	}

	var (
		asset   *assetreg.Asset
		evtType string
		err     error
	)
	switch op := instr.(type) {
	case assetreg.CreateDigitalAsset:
		asset, err = p.assets.CreateDigitalAsset(acct, op.TokenAddress, op.Amount)
		evtType = assetreg.EventTypeAssetCreated
	case assetreg.CreatePhysicalAsset:
		asset, err = p.assets.CreatePhysicalAsset(acct, op.NFTAddress, op.MetadataURI)
		evtType = assetreg.EventTypeAssetCreated
	case assetreg.UpdateAssetAmount:
		asset, err = p.assets.UpdateAssetAmount(acct, op.NewAmount)
		evtType = assetreg.EventTypeAssetUpdated
	default:
		return nil, fmt.Errorf("%w: unsupported asset operation", ErrDecode)
	}
	if err != nil {
		return nil, err
	}

	encoded, err := assetreg.EncodeAsset(asset)
	if err != nil {
		return nil, err
	}
	return &Result{
		Updates: []types.AccountUpdate{{Address: acct.Address, Data: encoded}},
		Events:  []*types.Event{assetreg.NewAssetEvent(evtType, acct.Address, asset)},
	}, nil
}
