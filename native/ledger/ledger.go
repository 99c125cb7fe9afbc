package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	hubErrors "graphhub/core/errors"
	"graphhub/core/events"
)

// ledgerState abstracts the subset of state manager functionality required by
// the ledger.
type ledgerState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

var (
	errLedgerUninitialised = errors.New("ledger: not initialised")
	errBalanceUnderflow    = errors.New("ledger: balance underflow")
)

// Ledger is a non-fungible token ledger that records a mint timestamp next to
// each owner. Several ledgers (profiles, handles) share one state by using
// distinct collection names.
type Ledger struct {
	collection string
	state      ledgerState
	receivers  Receivers
	emitter    events.Emitter
	nowFn      func() time.Time
}

// New constructs a ledger for collection over state.
func New(collection string, state ledgerState) *Ledger {
	return &Ledger{
		collection: normaliseCollection(collection),
		state:      state,
		emitter:    events.NoopEmitter{},
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

func normaliseCollection(collection string) string {
	return strings.ToLower(strings.TrimSpace(collection))
}

// Collection returns the namespace of the ledger.
func (l *Ledger) Collection() string { return l.collection }

// SetEmitter configures the event emitter used by the ledger.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetReceivers configures the recipient inspector used by safe transfers.
func (l *Ledger) SetReceivers(r Receivers) { l.receivers = r }

// SetNowFunc overrides the time source used for mint timestamps.
func (l *Ledger) SetNowFunc(now func() time.Time) {
	if now == nil {
		l.nowFn = func() time.Time { return time.Now().UTC() }
		return
	}
	l.nowFn = now
}

func (l *Ledger) ready() error {
	if l == nil || l.state == nil {
		return errLedgerUninitialised
	}
	return nil
}

func (l *Ledger) loadToken(id uint256.Int) (TokenRecord, bool, error) {
	var stored TokenRecord
	ok, err := l.state.KVGet(l.tokenKey(id), &stored)
	if err != nil {
		return TokenRecord{}, false, fmt.Errorf("ledger: load token: %w", err)
	}
	if !ok || stored.Owner == ([20]byte{}) {
		return TokenRecord{}, false, nil
	}
	return stored, true, nil
}

// Exists reports whether id is currently minted.
func (l *Ledger) Exists(id uint256.Int) (bool, error) {
	if err := l.ready(); err != nil {
		return false, err
	}
	_, ok, err := l.loadToken(id)
	return ok, err
}

// OwnerOf returns the current owner of id.
func (l *Ledger) OwnerOf(id uint256.Int) (common.Address, error) {
	if err := l.ready(); err != nil {
		return common.Address{}, err
	}
	stored, ok, err := l.loadToken(id)
	if err != nil {
		return common.Address{}, err
	}
	if !ok {
		return common.Address{}, hubErrors.ErrOwnerQueryForNonexistentToken
	}
	return common.Address(stored.Owner), nil
}

// TokenData returns the owner and mint timestamp of id.
func (l *Ledger) TokenData(id uint256.Int) (TokenData, error) {
	if err := l.ready(); err != nil {
		return TokenData{}, err
	}
	stored, ok, err := l.loadToken(id)
	if err != nil {
		return TokenData{}, err
	}
	if !ok {
		return TokenData{}, hubErrors.ErrTokenDoesNotExist
	}
	return stored.TokenData(), nil
}

// MintTimestamp returns the time id was minted.
func (l *Ledger) MintTimestamp(id uint256.Int) (uint64, error) {
	data, err := l.TokenData(id)
	if err != nil {
		return 0, err
	}
	return data.MintTimestamp, nil
}

// BalanceOf returns the number of tokens held by owner.
func (l *Ledger) BalanceOf(owner common.Address) (uint64, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}
	var balance uint64
	if _, err := l.state.KVGet(l.balanceKey(owner), &balance); err != nil {
		return 0, fmt.Errorf("ledger: load balance: %w", err)
	}
	return balance, nil
}

// TotalSupply returns the number of existing tokens.
func (l *Ledger) TotalSupply() (uint64, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}
	var supply uint64
	if _, err := l.state.KVGet(l.supplyKey(), &supply); err != nil {
		return 0, fmt.Errorf("ledger: load supply: %w", err)
	}
	return supply, nil
}

// GetApproved returns the single approved spender of id, or the zero address.
func (l *Ledger) GetApproved(id uint256.Int) (common.Address, error) {
	if err := l.ready(); err != nil {
		return common.Address{}, err
	}
	if _, ok, err := l.loadToken(id); err != nil {
		return common.Address{}, err
	} else if !ok {
		return common.Address{}, hubErrors.ErrTokenDoesNotExist
	}
	return l.approved(id)
}

func (l *Ledger) approved(id uint256.Int) (common.Address, error) {
	var spender [20]byte
	if _, err := l.state.KVGet(l.approvalKey(id), &spender); err != nil {
		return common.Address{}, fmt.Errorf("ledger: load approval: %w", err)
	}
	return common.Address(spender), nil
}

// IsApprovedForAll reports whether operator may manage every token of owner.
func (l *Ledger) IsApprovedForAll(owner, operator common.Address) (bool, error) {
	if err := l.ready(); err != nil {
		return false, err
	}
	var approved bool
	if _, err := l.state.KVGet(l.operatorKey(owner, operator), &approved); err != nil {
		return false, fmt.Errorf("ledger: load operator: %w", err)
	}
	return approved, nil
}

// IsApprovedOrOwner reports whether spender is the owner of id, its approved
// spender, or an operator of the owner.
func (l *Ledger) IsApprovedOrOwner(spender common.Address, id uint256.Int) (bool, error) {
	owner, err := l.OwnerOf(id)
	if err != nil {
		if errors.Is(err, hubErrors.ErrOwnerQueryForNonexistentToken) {
			return false, hubErrors.ErrTokenDoesNotExist
		}
		return false, err
	}
	if spender == owner {
		return true, nil
	}
	approved, err := l.approved(id)
	if err != nil {
		return false, err
	}
	if approved != (common.Address{}) && approved == spender {
		return true, nil
	}
	return l.IsApprovedForAll(owner, spender)
}

// Approve sets the single approved spender for id. The caller must be the
// owner or one of its operators.
func (l *Ledger) Approve(caller, to common.Address, id uint256.Int) error {
	owner, err := l.OwnerOf(id)
	if err != nil {
		return err
	}
	if to == owner {
		return hubErrors.ErrApprovalToCurrentOwner
	}
	if caller != owner {
		operator, err := l.IsApprovedForAll(owner, caller)
		if err != nil {
			return err
		}
		if !operator {
			return hubErrors.ErrNotOwnerOrApproved
		}
	}
	return l.setApproval(owner, to, id)
}

func (l *Ledger) setApproval(owner, to common.Address, id uint256.Int) error {
	if to == (common.Address{}) {
		if err := l.state.KVDelete(l.approvalKey(id)); err != nil {
			return fmt.Errorf("ledger: clear approval: %w", err)
		}
	} else if err := l.state.KVPut(l.approvalKey(id), [20]byte(to)); err != nil {
		return fmt.Errorf("ledger: store approval: %w", err)
	}
	l.emitter.Emit(events.TokenApproval{Collection: l.collection, Owner: owner, Approved: to, TokenID: id})
	return nil
}

func (l *Ledger) clearApproval(id uint256.Int) error {
	if err := l.state.KVDelete(l.approvalKey(id)); err != nil {
		return fmt.Errorf("ledger: clear approval: %w", err)
	}
	return nil
}

// SetApprovalForAll grants or revokes operator rights over every token of owner.
func (l *Ledger) SetApprovalForAll(owner, operator common.Address, approved bool) error {
	if err := l.ready(); err != nil {
		return err
	}
	if owner == operator {
		return hubErrors.ErrApprovalToCurrentOwner
	}
	key := l.operatorKey(owner, operator)
	if approved {
		if err := l.state.KVPut(key, true); err != nil {
			return fmt.Errorf("ledger: store operator: %w", err)
		}
	} else if err := l.state.KVDelete(key); err != nil {
		return fmt.Errorf("ledger: clear operator: %w", err)
	}
	l.emitter.Emit(events.TokenApprovalForAll{Collection: l.collection, Owner: owner, Operator: operator, Approved: approved})
	return nil
}

func (l *Ledger) adjustBalance(owner common.Address, increase bool) error {
	balance, err := l.BalanceOf(owner)
	if err != nil {
		return err
	}
	if increase {
		balance++
	} else {
		if balance == 0 {
			return errBalanceUnderflow
		}
		balance--
	}
	if err := l.state.KVPut(l.balanceKey(owner), balance); err != nil {
		return fmt.Errorf("ledger: store balance: %w", err)
	}
	return nil
}

func (l *Ledger) adjustSupply(increase bool) error {
	supply, err := l.TotalSupply()
	if err != nil {
		return err
	}
	if increase {
		supply++
	} else {
		if supply == 0 {
			return errBalanceUnderflow
		}
		supply--
	}
	return l.state.KVPut(l.supplyKey(), supply)
}

// Mint creates id owned by to and stamps it with the current time.
func (l *Ledger) Mint(to common.Address, id uint256.Int) error {
	if err := l.ready(); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return hubErrors.ErrMintToZeroAddress
	}
	if _, ok, err := l.loadToken(id); err != nil {
		return err
	} else if ok {
		return hubErrors.ErrAlreadyMinted
	}
	if err := l.clearApproval(id); err != nil {
		return err
	}
	if err := l.adjustBalance(to, true); err != nil {
		return err
	}
	if err := l.adjustSupply(true); err != nil {
		return err
	}
	stamp := uint64(l.nowFn().Unix())
	if err := l.state.KVPut(l.tokenKey(id), TokenRecord{Owner: [20]byte(to), MintTimestamp: stamp}); err != nil {
		return fmt.Errorf("ledger: store token: %w", err)
	}
	l.emitter.Emit(events.TokenTransfer{Collection: l.collection, To: to, TokenID: id, Timestamp: stamp})
	return nil
}

// SafeMint mints id and requires contract recipients to accept it.
func (l *Ledger) SafeMint(operator, to common.Address, id uint256.Int, data []byte) error {
	if err := l.Mint(to, id); err != nil {
		return err
	}
	return l.checkReceiver(operator, common.Address{}, to, id, data)
}

// Transfer moves id from from to to without checking the caller. Entry
// points authorise the caller before reaching it.
func (l *Ledger) Transfer(from, to common.Address, id uint256.Int) error {
	if err := l.ready(); err != nil {
		return err
	}
	stored, ok, err := l.loadToken(id)
	if err != nil {
		return err
	}
	if !ok {
		return hubErrors.ErrTokenDoesNotExist
	}
	if common.Address(stored.Owner) != from {
		return hubErrors.ErrTransferFromIncorrectOwner
	}
	if to == (common.Address{}) {
		return hubErrors.ErrTransferToZeroAddress
	}
	if err := l.clearApproval(id); err != nil {
		return err
	}
	if err := l.adjustBalance(from, false); err != nil {
		return err
	}
	if err := l.adjustBalance(to, true); err != nil {
		return err
	}
	stored.Owner = [20]byte(to)
	if err := l.state.KVPut(l.tokenKey(id), stored); err != nil {
		return fmt.Errorf("ledger: store token: %w", err)
	}
	l.emitter.Emit(events.TokenTransfer{
		Collection: l.collection,
		From:       from,
		To:         to,
		TokenID:    id,
		Timestamp:  uint64(l.nowFn().Unix()),
	})
	return nil
}

// TransferFrom moves id on behalf of caller, who must be the owner, the
// approved spender or an operator.
func (l *Ledger) TransferFrom(caller, from, to common.Address, id uint256.Int) error {
	ok, err := l.IsApprovedOrOwner(caller, id)
	if err != nil {
		return err
	}
	if !ok {
		return hubErrors.ErrNotOwnerOrApproved
	}
	return l.Transfer(from, to, id)
}

// SafeTransferFrom is TransferFrom followed by the receiver acknowledgement
// check for contract recipients.
func (l *Ledger) SafeTransferFrom(caller, from, to common.Address, id uint256.Int, data []byte) error {
	if err := l.TransferFrom(caller, from, to, id); err != nil {
		return err
	}
	return l.checkReceiver(caller, from, to, id, data)
}

// Burn destroys id, clearing its approval and its whole record.
func (l *Ledger) Burn(id uint256.Int) error {
	if err := l.ready(); err != nil {
		return err
	}
	stored, ok, err := l.loadToken(id)
	if err != nil {
		return err
	}
	if !ok {
		return hubErrors.ErrTokenDoesNotExist
	}
	owner := common.Address(stored.Owner)
	if err := l.clearApproval(id); err != nil {
		return err
	}
	if err := l.adjustBalance(owner, false); err != nil {
		return err
	}
	if err := l.adjustSupply(false); err != nil {
		return err
	}
	if err := l.state.KVDelete(l.tokenKey(id)); err != nil {
		return fmt.Errorf("ledger: delete token: %w", err)
	}
	l.emitter.Emit(events.TokenTransfer{
		Collection: l.collection,
		From:       owner,
		TokenID:    id,
		Timestamp:  uint64(l.nowFn().Unix()),
	})
	return nil
}

func (l *Ledger) checkReceiver(operator, from, to common.Address, id uint256.Int, data []byte) error {
	if l.receivers == nil || !l.receivers.IsContract(to) {
		return nil
	}
	ack, err := l.receivers.OnERC721Received(to, operator, from, id, data)
	if err != nil {
		return fmt.Errorf("%w: %v", hubErrors.ErrReceiverRejected, err)
	}
	if ack != ReceivedMagic {
		return hubErrors.ErrReceiverRejected
	}
	return nil
}
