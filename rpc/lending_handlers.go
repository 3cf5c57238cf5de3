package rpc

import (
	"encoding/hex"
	"encoding/json"

	"peerlend/core"
	"peerlend/crypto"
	"peerlend/native/lending"
)

const subsystemLending = "lending"

func parseAddress(field, value string) (crypto.Address, *Error) {
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		return crypto.Address{}, errInvalidParams(field + ": " + err.Error())
	}
	return addr, nil
}

type poolView struct {
	Address         string `json:"address"`
	TotalDeposits   uint64 `json:"totalDeposits"`
	TotalBorrows    uint64 `json:"totalBorrows"`
	InterestRateBps uint32 `json:"interestRateBps"`
	NextLoanID      uint64 `json:"nextLoanId"`
}

type loanView struct {
	Address         string `json:"address"`
	ID              uint64 `json:"loanId"`
	Borrower        string `json:"borrower"`
	Principal       uint64 `json:"principal"`
	Collateral      uint64 `json:"collateral"`
	StartTime       int64  `json:"startTime"`
	Duration        int64  `json:"duration"`
	MaturityTime    int64  `json:"maturityTime"`
	InterestRateBps uint32 `json:"interestRateBps"`
	Status          string `json:"status"`
}

func newPoolView(addr crypto.Address, pool *lending.LendingPool) poolView {
	view := poolView{Address: addr.String()}
	if pool != nil {
		view.TotalDeposits = pool.TotalDeposits
		view.TotalBorrows = pool.TotalBorrows
		view.InterestRateBps = pool.InterestRateBps
		view.NextLoanID = pool.NextLoanID
	}
	return view
}

func newLoanView(addr crypto.Address, loan *lending.Loan) loanView {
	view := loanView{Address: addr.String()}
	if loan != nil {
		view.ID = loan.ID
		view.Borrower = hex.EncodeToString(loan.Borrower[:])
		view.Principal = loan.Principal
		view.Collateral = loan.Collateral
		view.StartTime = loan.StartTime
		view.Duration = loan.Duration
		view.MaturityTime = loan.MaturityTime()
		view.InterestRateBps = loan.InterestRateBps
		view.Status = loan.Status.String()
	}
	return view
}

func (s *Server) lendInitializePool(params json.RawMessage) (interface{}, *Error) {
	var p struct {
		Seed uint64 `json:"seed"`
	}
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	poolAddr := lending.PoolAddress(p.Seed, s.node.ProgramID())
	data := core.EncodeLendingInstruction(lending.InitializePool{Seed: p.Seed})
	result, rpcErr := s.submit(subsystemLending, data, []core.AccountMeta{
		{Address: poolAddr, Writable: true},
	})
	if rpcErr != nil {
		return nil, rpcErr
	}

	pool, _, err := s.node.GetPool(poolAddr)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]interface{}{
		"pool":   newPoolView(poolAddr, pool),
		"events": eventsJSON(result.Events),
	}, nil
}

func (s *Server) lendDeposit(params json.RawMessage) (interface{}, *Error) {
	var p struct {
		From   string `json:"from"`
		Pool   string `json:"pool"`
		Amount uint64 `json:"amount"`
	}
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	from, rpcErr := parseAddress("from", p.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	poolAddr, rpcErr := parseAddress("pool", p.Pool)
	if rpcErr != nil {
		return nil, rpcErr
	}

	data := core.EncodeLendingInstruction(lending.Deposit{Amount: p.Amount})
	result, rpcErr := s.submit(subsystemLending, data, []core.AccountMeta{
		{Address: from, Signer: true},
		{Address: poolAddr, Writable: true},
	})
	if rpcErr != nil {
		return nil, rpcErr
	}

	pool, _, err := s.node.GetPool(poolAddr)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]interface{}{
		"pool":   newPoolView(poolAddr, pool),
		"events": eventsJSON(result.Events),
	}, nil
}

func (s *Server) lendBorrow(params json.RawMessage) (interface{}, *Error) {
	var p struct {
		Borrower         string `json:"borrower"`
		Pool             string `json:"pool"`
		Amount           uint64 `json:"amount"`
		CollateralAmount uint64 `json:"collateralAmount"`
	}
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	borrower, rpcErr := parseAddress("borrower", p.Borrower)
	if rpcErr != nil {
		return nil, rpcErr
	}
	poolAddr, rpcErr := parseAddress("pool", p.Pool)
	if rpcErr != nil {
		return nil, rpcErr
	}

	// The next loan id determines where the loan record lands.
	pool, ok, err := s.node.GetPool(poolAddr)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	if !ok {
		return nil, errRejected("pool not initialized")
	}
	loanAddr := lending.LoanAddress(poolAddr, pool.NextLoanID)

	data := core.EncodeLendingInstruction(lending.Borrow{Amount: p.Amount, CollateralAmount: p.CollateralAmount})
	result, rpcErr := s.submit(subsystemLending, data, []core.AccountMeta{
		{Address: borrower, Signer: true},
		{Address: poolAddr, Writable: true},
		{Address: loanAddr, Writable: true},
	})
	if rpcErr != nil {
		return nil, rpcErr
	}

	loan, _, err := s.node.GetLoan(loanAddr)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	updatedPool, _, err := s.node.GetPool(poolAddr)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]interface{}{
		"loan":   newLoanView(loanAddr, loan),
		"pool":   newPoolView(poolAddr, updatedPool),
		"events": eventsJSON(result.Events),
	}, nil
}

func (s *Server) lendRepay(params json.RawMessage) (interface{}, *Error) {
	var p struct {
		Payer  string `json:"payer"`
		Pool   string `json:"pool"`
		LoanID uint64 `json:"loanId"`
		Amount uint64 `json:"amount"`
	}
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	payer, rpcErr := parseAddress("payer", p.Payer)
	if rpcErr != nil {
		return nil, rpcErr
	}
	poolAddr, rpcErr := parseAddress("pool", p.Pool)
	if rpcErr != nil {
		return nil, rpcErr
	}
	loanAddr := lending.LoanAddress(poolAddr, p.LoanID)

	data := core.EncodeLendingInstruction(lending.Repay{LoanID: p.LoanID, Amount: p.Amount})
	result, rpcErr := s.submit(subsystemLending, data, []core.AccountMeta{
		{Address: payer, Signer: true},
		{Address: poolAddr, Writable: true},
		{Address: loanAddr, Writable: true},
	})
	if rpcErr != nil {
		return nil, rpcErr
	}

	loan, _, err := s.node.GetLoan(loanAddr)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]interface{}{
		"loan":   newLoanView(loanAddr, loan),
		"events": eventsJSON(result.Events),
	}, nil
}

func (s *Server) lendLiquidate(params json.RawMessage) (interface{}, *Error) {
	var p struct {
		Liquidator string `json:"liquidator"`
		Borrower   string `json:"borrower"`
		Pool       string `json:"pool"`
		LoanID     uint64 `json:"loanId"`
	}
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	liquidator, rpcErr := parseAddress("liquidator", p.Liquidator)
	if rpcErr != nil {
		return nil, rpcErr
	}
	borrower, rpcErr := parseAddress("borrower", p.Borrower)
	if rpcErr != nil {
		return nil, rpcErr
	}
	poolAddr, rpcErr := parseAddress("pool", p.Pool)
	if rpcErr != nil {
		return nil, rpcErr
	}
	loanAddr := lending.LoanAddress(poolAddr, p.LoanID)

	data := core.EncodeLendingInstruction(lending.Liquidate{LoanID: p.LoanID})
	result, rpcErr := s.submit(subsystemLending, data, []core.AccountMeta{
		{Address: liquidator, Signer: true},
		{Address: borrower},
		{Address: poolAddr, Writable: true},
		{Address: loanAddr, Writable: true},
	})
	if rpcErr != nil {
		return nil, rpcErr
	}

	loan, _, err := s.node.GetLoan(loanAddr)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]interface{}{
		"loan":   newLoanView(loanAddr, loan),
		"events": eventsJSON(result.Events),
	}, nil
}

func (s *Server) lendGetPool(params json.RawMessage) (interface{}, *Error) {
	var p struct {
		Pool string `json:"pool"`
	}
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	poolAddr, rpcErr := parseAddress("pool", p.Pool)
	if rpcErr != nil {
		return nil, rpcErr
	}
	pool, ok, err := s.node.GetPool(poolAddr)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	if !ok {
		return nil, errRejected("pool not initialized")
	}
	return newPoolView(poolAddr, pool), nil
}

func (s *Server) lendGetLoan(params json.RawMessage) (interface{}, *Error) {
	var p struct {
		Pool   string `json:"pool"`
		LoanID uint64 `json:"loanId"`
	}
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	poolAddr, rpcErr := parseAddress("pool", p.Pool)
	if rpcErr != nil {
		return nil, rpcErr
	}
	loanAddr := lending.LoanAddress(poolAddr, p.LoanID)
	loan, ok, err := s.node.GetLoan(loanAddr)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	if !ok {
		return nil, errRejected(lending.ErrLoanNotFound.Error())
	}
	return newLoanView(loanAddr, loan), nil
}
