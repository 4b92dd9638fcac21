package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"patronchain/core/types"
	"patronchain/native/patronage"
	"patronchain/storage"
)

// Manager persists ledger records and account balances through a
// storage.Database and implements the state backend the patronage engine
// expects, including the atomic per-call transfer primitive.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) getRecord(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (m *Manager) putRecord(key []byte, value interface{}) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, raw)
}

// PatronageBusinessGet loads the business record for the owner address.
func (m *Manager) PatronageBusinessGet(owner [20]byte) (*patronage.Business, bool, error) {
	business := new(patronage.Business)
	ok, err := m.getRecord(businessKey(owner), business)
	if err != nil || !ok {
		return nil, false, err
	}
	return business, true, nil
}

// PatronageBusinessPut stores the business record.
func (m *Manager) PatronageBusinessPut(business *patronage.Business) error {
	if business == nil {
		return errors.New("state: nil business")
	}
	return m.putRecord(businessKey(business.Owner), business.Clone())
}

// PatronageSubscriptionGet loads the subscription for the (patron, business)
// pair.
func (m *Manager) PatronageSubscriptionGet(patron [20]byte, business [20]byte) (*patronage.Subscription, bool, error) {
	sub := new(patronage.Subscription)
	ok, err := m.getRecord(subscriptionKey(patron, business), sub)
	if err != nil || !ok {
		return nil, false, err
	}
	return sub, true, nil
}

// PatronageSubscriptionPut stores the subscription record.
func (m *Manager) PatronageSubscriptionPut(sub *patronage.Subscription) error {
	if sub == nil {
		return errors.New("state: nil subscription")
	}
	return m.putRecord(subscriptionKey(sub.Patron, sub.Business), sub.Clone())
}

// PatronageRelationshipGet loads the aggregate record for the (business,
// patron) pair.
func (m *Manager) PatronageRelationshipGet(business [20]byte, patron [20]byte) (*patronage.Relationship, bool, error) {
	rel := new(patronage.Relationship)
	ok, err := m.getRecord(relationshipKey(business, patron), rel)
	if err != nil || !ok {
		return nil, false, err
	}
	return rel, true, nil
}

// PatronageRelationshipPut stores the relationship record.
func (m *Manager) PatronageRelationshipPut(rel *patronage.Relationship) error {
	if rel == nil {
		return errors.New("state: nil relationship")
	}
	return m.putRecord(relationshipKey(rel.Business, rel.Patron), rel.Clone())
}

// PatronageParamsGet loads the ledger params record.
func (m *Manager) PatronageParamsGet() (*patronage.Params, bool, error) {
	params := new(patronage.Params)
	ok, err := m.getRecord(paramsKey, params)
	if err != nil || !ok {
		return nil, false, err
	}
	return params, true, nil
}

// PatronageParamsPut stores the ledger params record.
func (m *Manager) PatronageParamsPut(params *patronage.Params) error {
	if params == nil {
		return errors.New("state: nil params")
	}
	return m.putRecord(paramsKey, params.Clone())
}

// EnsureParams loads the params record, seeding it from defaults when the
// ledger boots against an empty database. The created flag tells the caller
// whether this boot performed genesis initialisation.
func (m *Manager) EnsureParams(defaults *patronage.Params) (*patronage.Params, bool, error) {
	params, ok, err := m.PatronageParamsGet()
	if err != nil {
		return nil, false, err
	}
	if ok {
		return params, false, nil
	}
	if defaults == nil {
		return nil, false, errors.New("state: nil default params")
	}
	seeded := defaults.Clone()
	if err := m.PatronageParamsPut(seeded); err != nil {
		return nil, false, err
	}
	return seeded, true, nil
}

// GetAccount loads the account for the address, returning a zero-balance
// account when none has been written yet.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	account := new(types.Account)
	ok, err := m.getRecord(accountKey(addr), account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	if account.Balance == nil {
		account.Balance = big.NewInt(0)
	}
	return account, nil
}

// PutAccount stores the account record for the address.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return errors.New("state: nil account")
	}
	return m.putRecord(accountKey(addr), account.Clone())
}

// Credit adds amount to the address balance. Used for genesis allocations.
func (m *Manager) Credit(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return patronage.ErrInvalidAmount
	}
	account, err := m.GetAccount(addr)
	if err != nil {
		return err
	}
	account.Balance = new(big.Int).Add(account.Balance, amount)
	return m.PutAccount(addr, account)
}

// Transfer moves amount from one address to another. The call is atomic: it
// either debits and credits in full or fails with no balance change. A short
// balance fails with patronage.ErrInsufficientFunds before anything is
// written.
func (m *Manager) Transfer(from [20]byte, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return patronage.ErrInvalidAmount
	}
	sender, err := m.GetAccount(from)
	if err != nil {
		return err
	}
	if sender.Balance.Cmp(amount) < 0 {
		return patronage.ErrInsufficientFunds
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	receiver, err := m.GetAccount(to)
	if err != nil {
		return err
	}
	sender.Balance = new(big.Int).Sub(sender.Balance, amount)
	receiver.Balance = new(big.Int).Add(receiver.Balance, amount)
	if err := m.PutAccount(from, sender); err != nil {
		return err
	}
	return m.PutAccount(to, receiver)
}
