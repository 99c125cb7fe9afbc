package rpc

import (
	"encoding/json"

	"github.com/holiman/uint256"
)

func (s *Server) sendTransaction(params []json.RawMessage) (interface{}, *RPCError) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	var env TransactionEnvelope
	if err := json.Unmarshal(params[0], &env); err != nil {
		return nil, invalidParams("invalid transaction format", err.Error())
	}
	tx, err := env.Transaction()
	if err != nil {
		return nil, invalidParams("invalid transaction", err.Error())
	}
	receipt, err := s.hub.ApplyTransaction(tx)
	if err != nil {
		return nil, hubError(err)
	}
	return receiptResult(receipt), nil
}

func (s *Server) getState([]json.RawMessage) (interface{}, *RPCError) {
	st, err := s.hub.ProtocolState()
	if err != nil {
		return nil, hubError(err)
	}
	return st.String(), nil
}

func (s *Server) getRoles([]json.RawMessage) (interface{}, *RPCError) {
	gov, err := s.hub.Governance()
	if err != nil {
		return nil, hubError(err)
	}
	admin, err := s.hub.EmergencyAdmin()
	if err != nil {
		return nil, hubError(err)
	}
	return RolesResult{Governance: gov.Hex(), EmergencyAdmin: admin.Hex()}, nil
}

func (s *Server) getHead([]json.RawMessage) (interface{}, *RPCError) {
	root, height := s.hub.Head()
	return HeadResult{Root: root.Hex(), Height: height}, nil
}

func (s *Server) ownerOf(params []json.RawMessage) (interface{}, *RPCError) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	id, rpcErr := parseIDParam(params[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	owner, err := s.hub.OwnerOf(id)
	if err != nil {
		return nil, hubError(err)
	}
	return owner.Hex(), nil
}

func (s *Server) balanceOf(params []json.RawMessage) (interface{}, *RPCError) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddressParam(params[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.hub.BalanceOf(addr)
	if err != nil {
		return nil, hubError(err)
	}
	return balance, nil
}

func (s *Server) tokenData(params []json.RawMessage) (interface{}, *RPCError) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	id, rpcErr := parseIDParam(params[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	view, err := s.hub.Profile(id)
	if err != nil {
		return nil, hubError(err)
	}
	return TokenDataResult{Owner: view.Owner.Hex(), MintTimestamp: view.MintTimestamp}, nil
}

func (s *Server) getApproved(params []json.RawMessage) (interface{}, *RPCError) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	id, rpcErr := parseIDParam(params[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	approved, err := s.hub.GetApproved(id)
	if err != nil {
		return nil, hubError(err)
	}
	return approved.Hex(), nil
}

func (s *Server) isApprovedForAll(params []json.RawMessage) (interface{}, *RPCError) {
	if err := requireParams(params, 2); err != nil {
		return nil, err
	}
	owner, rpcErr := parseAddressParam(params[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	operator, rpcErr := parseAddressParam(params[1])
	if rpcErr != nil {
		return nil, rpcErr
	}
	ok, err := s.hub.IsApprovedForAll(owner, operator)
	if err != nil {
		return nil, hubError(err)
	}
	return ok, nil
}

func (s *Server) sigNonce(params []json.RawMessage) (interface{}, *RPCError) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddressParam(params[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	nonce, err := s.hub.SigNonce(addr)
	if err != nil {
		return nil, hubError(err)
	}
	return nonce, nil
}

func (s *Server) accountNonce(params []json.RawMessage) (interface{}, *RPCError) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddressParam(params[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	nonce, err := s.hub.AccountNonce(addr)
	if err != nil {
		return nil, hubError(err)
	}
	return nonce, nil
}

func (s *Server) domainSeparator([]json.RawMessage) (interface{}, *RPCError) {
	return s.hub.DomainSeparator().Hex(), nil
}

func (s *Server) chainID([]json.RawMessage) (interface{}, *RPCError) {
	id := s.hub.ChainID()
	return id.Dec(), nil
}

func (s *Server) isExecutorApproved(params []json.RawMessage) (interface{}, *RPCError) {
	if err := requireParams(params, 2); err != nil {
		return nil, err
	}
	id, rpcErr := parseIDParam(params[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	executor, rpcErr := parseAddressParam(params[1])
	if rpcErr != nil {
		return nil, rpcErr
	}
	ok, err := s.hub.IsDelegatedExecutorApproved(id, executor)
	if err != nil {
		return nil, hubError(err)
	}
	return ok, nil
}

func (s *Server) delegationConfig(params []json.RawMessage) (interface{}, *RPCError) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	id, rpcErr := parseIDParam(params[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	cfg, err := s.hub.DelegationConfig(id)
	if err != nil {
		return nil, hubError(err)
	}
	return delegationConfigResult(cfg), nil
}

func (s *Server) getProfile(params []json.RawMessage) (interface{}, *RPCError) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	id, rpcErr := parseIDParam(params[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	view, err := s.hub.Profile(id)
	if err != nil {
		return nil, hubError(err)
	}
	followers, err := s.hub.FollowerCount(id)
	if err != nil {
		return nil, hubError(err)
	}
	return profileResult(view, followers), nil
}

func (s *Server) getPublication(params []json.RawMessage) (interface{}, *RPCError) {
	if err := requireParams(params, 2); err != nil {
		return nil, err
	}
	profileID, rpcErr := parseIDParam(params[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	pubID, rpcErr := parseIDParam(params[1])
	if rpcErr != nil {
		return nil, rpcErr
	}
	pub, err := s.hub.Publication(profileID, pubID)
	if err != nil {
		return nil, hubError(err)
	}
	collects, err := s.hub.CollectCount(profileID, pubID)
	if err != nil {
		return nil, hubError(err)
	}
	return publicationResult(pub, collects), nil
}

func (s *Server) isFollowing(params []json.RawMessage) (interface{}, *RPCError) {
	return s.profilePair(params, s.hub.IsFollowing)
}

func (s *Server) isBlocked(params []json.RawMessage) (interface{}, *RPCError) {
	return s.profilePair(params, s.hub.IsBlocked)
}

func (s *Server) profilePair(params []json.RawMessage, query func(a, b uint256.Int) (bool, error)) (interface{}, *RPCError) {
	if err := requireParams(params, 2); err != nil {
		return nil, err
	}
	a, rpcErr := parseIDParam(params[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	b, rpcErr := parseIDParam(params[1])
	if rpcErr != nil {
		return nil, rpcErr
	}
	ok, err := query(a, b)
	if err != nil {
		return nil, hubError(err)
	}
	return ok, nil
}

func (s *Server) isProfileCreator(params []json.RawMessage) (interface{}, *RPCError) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddressParam(params[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	ok, err := s.hub.IsProfileCreatorWhitelisted(addr)
	if err != nil {
		return nil, hubError(err)
	}
	return ok, nil
}

func (s *Server) ownershipProof(params []json.RawMessage) (interface{}, *RPCError) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	id, rpcErr := parseIDParam(params[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	proof, err := s.hub.ProveOwnership(id)
	if err != nil {
		return nil, hubError(err)
	}
	return ownershipProofResult(proof), nil
}
