package patronage

import (
	"fmt"
	"math/big"
	"strconv"

	"patronchain/core/events"
	"patronchain/core/types"
)

type engineState interface {
	PatronageBusinessGet(owner [20]byte) (*Business, bool, error)
	PatronageBusinessPut(business *Business) error
	PatronageSubscriptionGet(patron [20]byte, business [20]byte) (*Subscription, bool, error)
	PatronageSubscriptionPut(subscription *Subscription) error
	PatronageRelationshipGet(business [20]byte, patron [20]byte) (*Relationship, bool, error)
	PatronageRelationshipPut(relationship *Relationship) error
	PatronageParamsGet() (*Params, bool, error)
	PatronageParamsPut(params *Params) error
	Transfer(from [20]byte, to [20]byte, amount *big.Int) error
}

// Engine wires the patronage ledger business logic with persistence, the
// external transfer primitive, and event emission. Every operation loads the
// ledger params for the logical clock and commits them back when the
// operation advances it.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine constructs a patronage engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) loadParams() (*Params, error) {
	params, ok, err := e.state.PatronageParamsGet()
	if err != nil {
		return nil, err
	}
	if !ok || params == nil {
		return nil, ErrParamsNotSet
	}
	if params.MinPatronageAmount == nil {
		params.MinPatronageAmount = big.NewInt(0)
	}
	return params, nil
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// Subscribe opens a recurring commitment from patron to business. The first
// payment comes due one full interval after creation; nothing is transferred
// at subscription time.
func (e *Engine) Subscribe(patron [20]byte, business [20]byte, amount *big.Int, frequency uint64) (*Subscription, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	biz, ok, err := e.state.PatronageBusinessGet(business)
	if err != nil {
		return nil, err
	}
	if !ok || biz == nil {
		return nil, ErrBusinessNotFound
	}
	if !biz.Active {
		return nil, ErrBusinessNotFound
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if amount.Cmp(params.MinPatronageAmount) < 0 {
		return nil, ErrAmountBelowMinimum
	}
	if frequency == 0 {
		return nil, ErrInvalidFrequency
	}
	if existing, ok, err := e.state.PatronageSubscriptionGet(patron, business); err != nil {
		return nil, err
	} else if ok && existing != nil {
		return nil, ErrSubscriptionExists
	}

	now := params.Clock
	sub := &Subscription{
		Patron:         patron,
		Business:       business,
		Amount:         new(big.Int).Set(amount),
		Frequency:      frequency,
		LastPayment:    0,
		NextPayment:    now + frequency,
		TotalPaid:      big.NewInt(0),
		Active:         true,
		CreatedAt:      now,
		SubscriptionID: params.NextID,
	}
	params.NextID++

	rel, ok, err := e.state.PatronageRelationshipGet(business, patron)
	if err != nil {
		return nil, err
	}
	if !ok || rel == nil {
		rel = &Relationship{
			Business:          business,
			Patron:            patron,
			TotalContributed:  big.NewInt(0),
			SubscriptionCount: 1,
			FirstPatronage:    now,
		}
	} else {
		rel.SubscriptionCount++
	}

	if err := e.state.PatronageSubscriptionPut(sub); err != nil {
		return nil, err
	}
	if err := e.state.PatronageRelationshipPut(rel); err != nil {
		return nil, err
	}
	params.Clock++
	if err := e.state.PatronageParamsPut(params); err != nil {
		return nil, err
	}
	e.emit(subscriptionCreatedEvent(hexAddr(patron), hexAddr(business), sub.Amount.String(), formatUint(frequency)))
	return sub.Clone(), nil
}

// Settle executes a due recurring payment: it charges the patron, splits the
// gross amount between the business and the platform fee collector, and rolls
// the schedule forward one interval. Both transfer legs must succeed before
// any record is written; a fee-leg failure reverses the business leg so the
// ledger observes no partial commit.
func (e *Engine) Settle(patron [20]byte, business [20]byte) (*Settlement, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	sub, ok, err := e.state.PatronageSubscriptionGet(patron, business)
	if err != nil {
		return nil, err
	}
	if !ok || sub == nil {
		return nil, ErrSubscriptionNotFound
	}
	biz, ok, err := e.state.PatronageBusinessGet(business)
	if err != nil {
		return nil, err
	}
	if !ok || biz == nil {
		return nil, ErrBusinessNotFound
	}
	if !sub.Active {
		return nil, ErrSubscriptionInactive
	}
	if !biz.Active {
		return nil, ErrBusinessNotFound
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	if sub.NextPayment > params.Clock {
		return nil, ErrPaymentNotDue
	}

	fee, net := SplitAmount(sub.Amount, params.FeeRateBps)
	if err := e.payWithSplit(patron, business, params.FeeCollector, net, fee); err != nil {
		return nil, err
	}

	now := params.Clock
	sub.LastPayment = now
	sub.NextPayment = now + sub.Frequency
	if sub.TotalPaid == nil {
		sub.TotalPaid = big.NewInt(0)
	}
	sub.TotalPaid = new(big.Int).Add(sub.TotalPaid, sub.Amount)
	if biz.TotalReceived == nil {
		biz.TotalReceived = big.NewInt(0)
	}
	biz.TotalReceived = new(big.Int).Add(biz.TotalReceived, net)

	rel, ok, err := e.state.PatronageRelationshipGet(business, patron)
	if err != nil {
		return nil, err
	}
	if !ok || rel == nil {
		// The relationship is created at subscribe time; recreate it here so
		// a missing record cannot fail an otherwise valid settlement.
		rel = &Relationship{
			Business:          business,
			Patron:            patron,
			TotalContributed:  big.NewInt(0),
			SubscriptionCount: 1,
			FirstPatronage:    now,
		}
	}
	if rel.TotalContributed == nil {
		rel.TotalContributed = big.NewInt(0)
	}
	rel.TotalContributed = new(big.Int).Add(rel.TotalContributed, sub.Amount)

	if err := e.state.PatronageSubscriptionPut(sub); err != nil {
		return nil, err
	}
	if err := e.state.PatronageBusinessPut(biz); err != nil {
		return nil, err
	}
	if err := e.state.PatronageRelationshipPut(rel); err != nil {
		return nil, err
	}
	params.Clock++
	if err := e.state.PatronageParamsPut(params); err != nil {
		return nil, err
	}
	settlement := &Settlement{
		Patron:         patron,
		Business:       business,
		Amount:         new(big.Int).Set(sub.Amount),
		BusinessAmount: net,
		PlatformFee:    fee,
		SettledAt:      now,
	}
	e.emit(subscriptionSettledEvent(hexAddr(patron), hexAddr(business), settlement.Amount.String(), net.String(), fee.String()))
	return settlement, nil
}

// Cancel deactivates a subscription. The record survives so the commitment
// can be reactivated later. Cancel is the one mutation that does not advance
// the logical clock.
func (e *Engine) Cancel(patron [20]byte, business [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	sub, ok, err := e.state.PatronageSubscriptionGet(patron, business)
	if err != nil {
		return err
	}
	if !ok || sub == nil {
		return ErrSubscriptionNotFound
	}
	sub.Active = false
	if err := e.state.PatronageSubscriptionPut(sub); err != nil {
		return err
	}
	e.emit(subscriptionCancelledEvent(hexAddr(patron), hexAddr(business)))
	return nil
}

// Reactivate resumes a cancelled subscription. The next payment is scheduled
// a full interval from the reactivation moment; the old schedule is not
// resumed, so NextPayment only ever moves forward.
func (e *Engine) Reactivate(patron [20]byte, business [20]byte) (*Subscription, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	sub, ok, err := e.state.PatronageSubscriptionGet(patron, business)
	if err != nil {
		return nil, err
	}
	if !ok || sub == nil {
		return nil, ErrSubscriptionNotFound
	}
	if sub.Active {
		return nil, ErrSubscriptionActive
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	sub.Active = true
	sub.NextPayment = params.Clock + sub.Frequency
	if err := e.state.PatronageSubscriptionPut(sub); err != nil {
		return nil, err
	}
	params.Clock++
	if err := e.state.PatronageParamsPut(params); err != nil {
		return nil, err
	}
	e.emit(subscriptionReactivatedEvent(hexAddr(patron), hexAddr(business), formatUint(sub.NextPayment)))
	return sub.Clone(), nil
}

// OneTimePayment sends a one-off contribution outside any subscription. The
// fee split and the all-or-nothing transfer contract match Settle.
func (e *Engine) OneTimePayment(patron [20]byte, business [20]byte, amount *big.Int) (*Settlement, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	biz, ok, err := e.state.PatronageBusinessGet(business)
	if err != nil {
		return nil, err
	}
	if !ok || biz == nil || !biz.Active {
		return nil, ErrBusinessNotFound
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if amount.Cmp(params.MinPatronageAmount) < 0 {
		return nil, ErrAmountBelowMinimum
	}

	fee, net := SplitAmount(amount, params.FeeRateBps)
	if err := e.payWithSplit(patron, business, params.FeeCollector, net, fee); err != nil {
		return nil, err
	}

	now := params.Clock
	if biz.TotalReceived == nil {
		biz.TotalReceived = big.NewInt(0)
	}
	biz.TotalReceived = new(big.Int).Add(biz.TotalReceived, net)

	rel, ok, err := e.state.PatronageRelationshipGet(business, patron)
	if err != nil {
		return nil, err
	}
	if !ok || rel == nil {
		rel = &Relationship{
			Business:          business,
			Patron:            patron,
			TotalContributed:  big.NewInt(0),
			SubscriptionCount: 0,
			FirstPatronage:    now,
		}
	}
	if rel.TotalContributed == nil {
		rel.TotalContributed = big.NewInt(0)
	}
	rel.TotalContributed = new(big.Int).Add(rel.TotalContributed, amount)

	if err := e.state.PatronageBusinessPut(biz); err != nil {
		return nil, err
	}
	if err := e.state.PatronageRelationshipPut(rel); err != nil {
		return nil, err
	}
	params.Clock++
	if err := e.state.PatronageParamsPut(params); err != nil {
		return nil, err
	}
	settlement := &Settlement{
		Patron:         patron,
		Business:       business,
		Amount:         new(big.Int).Set(amount),
		BusinessAmount: net,
		PlatformFee:    fee,
		SettledAt:      now,
	}
	e.emit(oneTimePaymentEvent(hexAddr(patron), hexAddr(business), settlement.Amount.String(), net.String(), fee.String()))
	return settlement, nil
}

// payWithSplit moves the business and fee legs of a payment from the patron.
// The external transfer primitive is atomic per call but has no native
// rollback across calls, so a failed fee leg is compensated by reversing the
// business leg before the error surfaces. The reversal cannot lack funds: the
// business received exactly that amount in the preceding call.
func (e *Engine) payWithSplit(patron [20]byte, business [20]byte, collector [20]byte, net *big.Int, fee *big.Int) error {
	if err := e.state.Transfer(patron, business, net); err != nil {
		return err
	}
	if fee == nil || fee.Sign() == 0 {
		return nil
	}
	if err := e.state.Transfer(patron, collector, fee); err != nil {
		if rbErr := e.state.Transfer(business, patron, net); rbErr != nil {
			return fmt.Errorf("patronage: reverse business leg after fee failure: %w", rbErr)
		}
		return err
	}
	return nil
}

// SetFeeRate updates the platform fee rate. Authority-only; the rate is
// bounded by FeeRateCapBps.
func (e *Engine) SetFeeRate(caller [20]byte, rateBps uint32) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	params, err := e.loadParams()
	if err != nil {
		return err
	}
	if caller != params.Authority {
		return ErrUnauthorized
	}
	if rateBps > FeeRateCapBps {
		return ErrFeeRateTooHigh
	}
	params.FeeRateBps = rateBps
	params.Clock++
	if err := e.state.PatronageParamsPut(params); err != nil {
		return err
	}
	e.emit(paramsUpdatedEvent("feeRateBps", strconv.FormatUint(uint64(rateBps), 10)))
	return nil
}

// SetMinAmount updates the minimum patronage amount. Authority-only.
func (e *Engine) SetMinAmount(caller [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	params, err := e.loadParams()
	if err != nil {
		return err
	}
	if caller != params.Authority {
		return ErrUnauthorized
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	params.MinPatronageAmount = new(big.Int).Set(amount)
	params.Clock++
	if err := e.state.PatronageParamsPut(params); err != nil {
		return err
	}
	e.emit(paramsUpdatedEvent("minPatronageAmount", amount.String()))
	return nil
}

// Subscription returns the stored subscription for the pair without mutating
// state.
func (e *Engine) Subscription(patron [20]byte, business [20]byte) (*Subscription, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, ErrNilState
	}
	sub, ok, err := e.state.PatronageSubscriptionGet(patron, business)
	if err != nil || !ok {
		return nil, false, err
	}
	return sub.Clone(), true, nil
}

// Relationship returns the aggregate contribution record for the pair.
func (e *Engine) Relationship(business [20]byte, patron [20]byte) (*Relationship, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, ErrNilState
	}
	rel, ok, err := e.state.PatronageRelationshipGet(business, patron)
	if err != nil || !ok {
		return nil, false, err
	}
	return rel.Clone(), true, nil
}

// IsPaymentDue reports whether the subscription exists, is active, and has
// reached its next payment time. Reads never advance the clock.
func (e *Engine) IsPaymentDue(patron [20]byte, business [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	sub, ok, err := e.state.PatronageSubscriptionGet(patron, business)
	if err != nil {
		return false, err
	}
	if !ok || sub == nil || !sub.Active {
		return false, nil
	}
	params, err := e.loadParams()
	if err != nil {
		return false, err
	}
	return sub.NextPayment <= params.Clock, nil
}

// TimeUntilNextPayment returns the logical-time distance to the next payment,
// or zero when the payment is already due or the subscription is absent.
func (e *Engine) TimeUntilNextPayment(patron [20]byte, business [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	sub, ok, err := e.state.PatronageSubscriptionGet(patron, business)
	if err != nil {
		return 0, err
	}
	if !ok || sub == nil {
		return 0, nil
	}
	params, err := e.loadParams()
	if err != nil {
		return 0, err
	}
	if sub.NextPayment <= params.Clock {
		return 0, nil
	}
	return sub.NextPayment - params.Clock, nil
}

// CalculateBreakdown previews the fee split for an arbitrary amount at the
// current fee rate.
func (e *Engine) CalculateBreakdown(amount *big.Int) (net *big.Int, fee *big.Int, err error) {
	if e == nil || e.state == nil {
		return nil, nil, ErrNilState
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, nil, err
	}
	fee, net = SplitAmount(amount, params.FeeRateBps)
	return net, fee, nil
}

// Params returns a copy of the current ledger params.
func (e *Engine) Params() (*Params, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	return params.Clone(), nil
}
