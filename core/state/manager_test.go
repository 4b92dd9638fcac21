package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"patronchain/native/patronage"
	"patronchain/storage"
)

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func TestBusinessRoundTrip(t *testing.T) {
	m := newTestManager(t)
	owner := addr(0x01)

	_, ok, err := m.PatronageBusinessGet(owner)
	require.NoError(t, err)
	require.False(t, ok)

	business := &patronage.Business{
		Owner:          owner,
		Name:           "Corner Bakery",
		Description:    "Sourdough and pastry",
		Category:       "food",
		Active:         true,
		TotalReceived:  big.NewInt(123_456),
		CreatedAt:      9,
		RegistrationID: 3,
	}
	require.NoError(t, m.PatronageBusinessPut(business))

	loaded, ok, err := m.PatronageBusinessGet(owner)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, business.Name, loaded.Name)
	require.Equal(t, business.Description, loaded.Description)
	require.True(t, loaded.Active)
	require.Zero(t, business.TotalReceived.Cmp(loaded.TotalReceived))
	require.Equal(t, uint64(9), loaded.CreatedAt)
}

func TestSubscriptionKeyOrdering(t *testing.T) {
	m := newTestManager(t)
	a := addr(0x01)
	b := addr(0x02)

	sub := &patronage.Subscription{
		Patron:    a,
		Business:  b,
		Amount:    big.NewInt(2_000_000),
		Frequency: 7,
		TotalPaid: big.NewInt(0),
		Active:    true,
	}
	require.NoError(t, m.PatronageSubscriptionPut(sub))

	// The pair is directional: swapping patron and business must miss.
	_, ok, err := m.PatronageSubscriptionGet(b, a)
	require.NoError(t, err)
	require.False(t, ok)

	loaded, ok, err := m.PatronageSubscriptionGet(a, b)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(7), loaded.Frequency)

	// A relationship for the same two addresses lives under its own prefix
	// with the opposite ordering and must not collide.
	rel := &patronage.Relationship{
		Business:          b,
		Patron:            a,
		TotalContributed:  big.NewInt(55),
		SubscriptionCount: 1,
		FirstPatronage:    2,
	}
	require.NoError(t, m.PatronageRelationshipPut(rel))

	loadedRel, ok, err := m.PatronageRelationshipGet(b, a)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, loadedRel.TotalContributed.Cmp(big.NewInt(55)))

	stillThere, ok, err := m.PatronageSubscriptionGet(a, b)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, stillThere.Amount.Cmp(big.NewInt(2_000_000)))
}

func TestEnsureParamsSeedsOnce(t *testing.T) {
	m := newTestManager(t)
	defaults := &patronage.Params{
		Authority:          addr(0xAD),
		FeeCollector:       addr(0xFE),
		FeeRateBps:         250,
		MinPatronageAmount: big.NewInt(1_000_000),
	}

	params, created, err := m.EnsureParams(defaults)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, uint32(250), params.FeeRateBps)

	params.FeeRateBps = 500
	params.Clock = 42
	require.NoError(t, m.PatronageParamsPut(params))

	again, created, err := m.EnsureParams(defaults)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, uint32(500), again.FeeRateBps)
	require.Equal(t, uint64(42), again.Clock)
}

func TestTransferMovesBalance(t *testing.T) {
	m := newTestManager(t)
	from := addr(0x01)
	to := addr(0x02)

	require.NoError(t, m.Credit(from, big.NewInt(10_000)))
	require.NoError(t, m.Transfer(from, to, big.NewInt(4_000)))

	sender, err := m.GetAccount(from)
	require.NoError(t, err)
	require.Zero(t, sender.Balance.Cmp(big.NewInt(6_000)))

	receiver, err := m.GetAccount(to)
	require.NoError(t, err)
	require.Zero(t, receiver.Balance.Cmp(big.NewInt(4_000)))
}

func TestTransferRejectsShortBalance(t *testing.T) {
	m := newTestManager(t)
	from := addr(0x01)
	to := addr(0x02)

	require.NoError(t, m.Credit(from, big.NewInt(100)))
	err := m.Transfer(from, to, big.NewInt(101))
	require.ErrorIs(t, err, patronage.ErrInsufficientFunds)

	sender, err := m.GetAccount(from)
	require.NoError(t, err)
	require.Zero(t, sender.Balance.Cmp(big.NewInt(100)))

	receiver, err := m.GetAccount(to)
	require.NoError(t, err)
	require.Zero(t, receiver.Balance.Sign())
}

func TestGetAccountDefaultsToZero(t *testing.T) {
	m := newTestManager(t)
	account, err := m.GetAccount(addr(0x42))
	require.NoError(t, err)
	require.NotNil(t, account.Balance)
	require.Zero(t, account.Balance.Sign())
}
