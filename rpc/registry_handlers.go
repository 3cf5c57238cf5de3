package rpc

import (
	"encoding/hex"
	"encoding/json"

	"peerlend/core"
	"peerlend/crypto"
	"peerlend/native/assetreg"
	"peerlend/native/userreg"
)

const (
	subsystemUser  = "userreg"
	subsystemAsset = "assetreg"
)

type userView struct {
	Address         string `json:"address"`
	DID             string `json:"did"`
	ReputationScore uint32 `json:"reputationScore"`
	KYCVerified     bool   `json:"kycVerified"`
}

func newUserView(addr crypto.Address, user *userreg.User) userView {
	view := userView{Address: addr.String()}
	if user != nil {
		view.DID = user.DID
		view.ReputationScore = user.ReputationScore
		view.KYCVerified = user.KYCStatus
	}
	return view
}

type assetView struct {
	Address     string `json:"address"`
	Kind        string `json:"kind"`
	Token       string `json:"token,omitempty"`
	Amount      uint64 `json:"amount,omitempty"`
	NFT         string `json:"nft,omitempty"`
	MetadataURI string `json:"metadataUri,omitempty"`
}

func newAssetView(addr crypto.Address, asset *assetreg.Asset) assetView {
	view := assetView{Address: addr.String()}
	if asset == nil {
		return view
	}
	view.Kind = asset.Kind.String()
	switch {
	case asset.Digital != nil:
		view.Token = hex.EncodeToString(asset.Digital.TokenAddress[:])
		view.Amount = asset.Digital.Amount
	case asset.Physical != nil:
		view.NFT = hex.EncodeToString(asset.Physical.NFTAddress[:])
		view.MetadataURI = asset.Physical.MetadataURI
	}
	return view
}

func (s *Server) submitUser(acct crypto.Address, instr userreg.Instruction) (interface{}, *Error) {
	data := core.EncodeUserInstruction(instr)
	result, rpcErr := s.submit(subsystemUser, data, []core.AccountMeta{
		{Address: acct, Writable: true, Signer: true},
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	user, _, err := s.node.GetUser(acct)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]interface{}{
		"user":   newUserView(acct, user),
		"events": eventsJSON(result.Events),
	}, nil
}

func (s *Server) userCreate(params json.RawMessage) (interface{}, *Error) {
	var p struct {
		Account string `json:"account"`
		DID     string `json:"did"`
	}
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	acct, rpcErr := parseAddress("account", p.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return s.submitUser(acct, userreg.CreateUser{DID: p.DID})
}

func (s *Server) userUpdateReputation(params json.RawMessage) (interface{}, *Error) {
	var p struct {
		Account  string `json:"account"`
		NewScore uint32 `json:"newScore"`
	}
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	acct, rpcErr := parseAddress("account", p.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return s.submitUser(acct, userreg.UpdateReputation{NewScore: p.NewScore})
}

func (s *Server) userSetKYCStatus(params json.RawMessage) (interface{}, *Error) {
	var p struct {
		Account string `json:"account"`
		Status  bool   `json:"status"`
	}
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	acct, rpcErr := parseAddress("account", p.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return s.submitUser(acct, userreg.SetKYCStatus{Status: p.Status})
}

func (s *Server) userGet(params json.RawMessage) (interface{}, *Error) {
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
	user, ok, err := s.node.GetUser(acct)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	if !ok {
		return nil, errRejected(userreg.ErrNotFound.Error())
	}
	return newUserView(acct, user), nil
}

func (s *Server) submitAsset(acct crypto.Address, instr assetreg.Instruction) (interface{}, *Error) {
	data := core.EncodeAssetInstruction(instr)
	result, rpcErr := s.submit(subsystemAsset, data, []core.AccountMeta{
		{Address: acct, Writable: true, Signer: true},
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	asset, _, err := s.node.GetAsset(acct)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]interface{}{
		"asset":  newAssetView(acct, asset),
		"events": eventsJSON(result.Events),
	}, nil
}

func parseBytes20(field, value string) ([20]byte, *Error) {
	var out [20]byte
	raw, err := hex.DecodeString(value)
	if err != nil || len(raw) != len(out) {
		return out, errInvalidParams(field + ": expected 20 hex-encoded bytes")
	}
	copy(out[:], raw)
	return out, nil
}

func (s *Server) assetCreateDigital(params json.RawMessage) (interface{}, *Error) {
	var p struct {
		Account string `json:"account"`
		Token   string `json:"token"`
		Amount  uint64 `json:"amount"`
	}
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	acct, rpcErr := parseAddress("account", p.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	token, rpcErr := parseBytes20("token", p.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return s.submitAsset(acct, assetreg.CreateDigitalAsset{TokenAddress: token, Amount: p.Amount})
}

func (s *Server) assetCreatePhysical(params json.RawMessage) (interface{}, *Error) {
	var p struct {
		Account     string `json:"account"`
		NFT         string `json:"nft"`
		MetadataURI string `json:"metadataUri"`
	}
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	acct, rpcErr := parseAddress("account", p.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	nft, rpcErr := parseBytes20("nft", p.NFT)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return s.submitAsset(acct, assetreg.CreatePhysicalAsset{NFTAddress: nft, MetadataURI: p.MetadataURI})
}

func (s *Server) assetUpdateAmount(params json.RawMessage) (interface{}, *Error) {
	var p struct {
		Account   string `json:"account"`
		NewAmount uint64 `json:"newAmount"`
	}
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	acct, rpcErr := parseAddress("account", p.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return s.submitAsset(acct, assetreg.UpdateAssetAmount{NewAmount: p.NewAmount})
}

func (s *Server) assetGet(params json.RawMessage) (interface{}, *Error) {
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
	asset, ok, err := s.node.GetAsset(acct)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	if !ok {
		return nil, errRejected(assetreg.ErrNotFound.Error())
	}
	return newAssetView(acct, asset), nil
}
