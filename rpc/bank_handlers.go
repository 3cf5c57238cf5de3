package rpc

import "encoding/json"

func (s *Server) bankBalance(params json.RawMessage) (interface{}, *Error) {
	var p struct {
		Account string `json:"account"`
	}
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	acct, rpcErr := parseAddress("account", p.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.node.Balance(acct)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]interface{}{
		"account": acct.String(),
		"balance": balance,
	}, nil
}

// bankMint is the devnet faucet. A production deployment disables or gates it.
func (s *Server) bankMint(params json.RawMessage) (interface{}, *Error) {
	var p struct {
		Account string `json:"account"`
		Amount  uint64 `json:"amount"`
	}
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	acct, rpcErr := parseAddress("account", p.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.node.Mint(acct, p.Amount); err != nil {
		return nil, errRejected(err.Error())
	}
	balance, err := s.node.Balance(acct)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]interface{}{
		"account": acct.String(),
		"balance": balance,
	}, nil
}
