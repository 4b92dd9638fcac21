package patronage

import "math/big"

// Business is a registered recipient of patronage payments, keyed by the
// owner's account address. Records are never deleted; deactivation only clears
// the Active flag.
type Business struct {
	Owner          [20]byte `json:"owner"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Active         bool     `json:"active"`
	TotalReceived  *big.Int `json:"totalReceived"`
	PatronCount    uint64   `json:"patronCount"`
	CreatedAt      uint64   `json:"createdAt"`
	RegistrationID uint64   `json:"registrationId"`
}

// Clone returns a deep copy of the business record.
func (b *Business) Clone() *Business {
	if b == nil {
		return nil
	}
	clone := *b
	if b.TotalReceived != nil {
		clone.TotalReceived = new(big.Int).Set(b.TotalReceived)
	} else {
		clone.TotalReceived = big.NewInt(0)
	}
	return &clone
}

// Subscription is a recurring payment commitment between one patron and one
// business. At most one record exists per (patron, business) pair; cancelling
// flips Active off and reactivation flips it back on, the record itself is
// never deleted.
type Subscription struct {
	Patron         [20]byte `json:"patron"`
	Business       [20]byte `json:"business"`
	Amount         *big.Int `json:"amount"`
	Frequency      uint64   `json:"frequency"`
	LastPayment    uint64   `json:"lastPayment"`
	NextPayment    uint64   `json:"nextPayment"`
	TotalPaid      *big.Int `json:"totalPaid"`
	Active         bool     `json:"active"`
	CreatedAt      uint64   `json:"createdAt"`
	SubscriptionID uint64   `json:"subscriptionId"`
}

// Clone returns a deep copy of the subscription record.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Amount != nil {
		clone.Amount = new(big.Int).Set(s.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	if s.TotalPaid != nil {
		clone.TotalPaid = new(big.Int).Set(s.TotalPaid)
	} else {
		clone.TotalPaid = big.NewInt(0)
	}
	return &clone
}

// Relationship aggregates the lifetime contribution history between a business
// and a patron across both subscription settlements and one-time payments. It
// is created lazily on the first contribution of either kind.
type Relationship struct {
	Business          [20]byte `json:"business"`
	Patron            [20]byte `json:"patron"`
	TotalContributed  *big.Int `json:"totalContributed"`
	SubscriptionCount uint64   `json:"subscriptionCount"`
	FirstPatronage    uint64   `json:"firstPatronage"`
}

// Clone returns a deep copy of the relationship record.
func (r *Relationship) Clone() *Relationship {
	if r == nil {
		return nil
	}
	clone := *r
	if r.TotalContributed != nil {
		clone.TotalContributed = new(big.Int).Set(r.TotalContributed)
	} else {
		clone.TotalContributed = big.NewInt(0)
	}
	return &clone
}

// Params is the process-wide ledger configuration together with the logical
// clock and id counter. Keeping the counters inside the record means they
// commit and roll back with the operation that advances them.
type Params struct {
	Authority          [20]byte `json:"authority"`
	FeeCollector       [20]byte `json:"feeCollector"`
	FeeRateBps         uint32   `json:"feeRateBps"`
	MinPatronageAmount *big.Int `json:"minPatronageAmount"`
	Clock              uint64   `json:"clock"`
	NextID             uint64   `json:"nextId"`
}

// Clone returns a deep copy of the params record.
func (p *Params) Clone() *Params {
	if p == nil {
		return nil
	}
	clone := *p
	if p.MinPatronageAmount != nil {
		clone.MinPatronageAmount = new(big.Int).Set(p.MinPatronageAmount)
	} else {
		clone.MinPatronageAmount = big.NewInt(0)
	}
	return &clone
}

// Settlement summarises an executed payment: the gross amount charged to the
// patron and how it split between the business and the platform fee account.
type Settlement struct {
	Patron         [20]byte `json:"patron"`
	Business       [20]byte `json:"business"`
	Amount         *big.Int `json:"amount"`
	BusinessAmount *big.Int `json:"businessAmount"`
	PlatformFee    *big.Int `json:"platformFee"`
	SettledAt      uint64   `json:"settledAt"`
}
