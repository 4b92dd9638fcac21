package patronage

import (
	"encoding/hex"

	"patronchain/core/events"
	"patronchain/core/types"
)

const (
	// EventTypeBusinessRegistered is emitted when a new business registers.
	EventTypeBusinessRegistered = "patronage.business.registered"
	// EventTypeBusinessUpdated is emitted when a business edits its profile.
	EventTypeBusinessUpdated = "patronage.business.updated"
	// EventTypeBusinessDeactivated is emitted when the authority retires a business.
	EventTypeBusinessDeactivated = "patronage.business.deactivated"
	// EventTypeSubscriptionCreated is emitted when a patron opens a subscription.
	EventTypeSubscriptionCreated = "patronage.subscription.created"
	// EventTypeSubscriptionSettled is emitted when a due payment settles.
	EventTypeSubscriptionSettled = "patronage.subscription.settled"
	// EventTypeSubscriptionCancelled is emitted when a patron cancels.
	EventTypeSubscriptionCancelled = "patronage.subscription.cancelled"
	// EventTypeSubscriptionReactivated is emitted when a cancelled subscription resumes.
	EventTypeSubscriptionReactivated = "patronage.subscription.reactivated"
	// EventTypeOneTimePayment is emitted when a patron sends a one-off contribution.
	EventTypeOneTimePayment = "patronage.payment.onetime"
	// EventTypeParamsUpdated is emitted when the authority changes ledger params.
	EventTypeParamsUpdated = "patronage.params.updated"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func businessRegisteredEvent(owner string, registrationID string, name string) *types.Event {
	return &types.Event{
		Type: EventTypeBusinessRegistered,
		Attributes: map[string]string{
			"owner":          owner,
			"registrationId": registrationID,
			"name":           name,
		},
	}
}

func businessUpdatedEvent(owner string, name string) *types.Event {
	return &types.Event{
		Type: EventTypeBusinessUpdated,
		Attributes: map[string]string{
			"owner": owner,
			"name":  name,
		},
	}
}

func businessDeactivatedEvent(owner string) *types.Event {
	return &types.Event{
		Type: EventTypeBusinessDeactivated,
		Attributes: map[string]string{
			"owner": owner,
		},
	}
}

func subscriptionCreatedEvent(patron string, business string, amount string, frequency string) *types.Event {
	return &types.Event{
		Type: EventTypeSubscriptionCreated,
		Attributes: map[string]string{
			"patron":    patron,
			"business":  business,
			"amount":    amount,
			"frequency": frequency,
		},
	}
}

func subscriptionSettledEvent(patron string, business string, amount string, businessAmount string, platformFee string) *types.Event {
	return &types.Event{
		Type: EventTypeSubscriptionSettled,
		Attributes: map[string]string{
			"patron":         patron,
			"business":       business,
			"amount":         amount,
			"businessAmount": businessAmount,
			"platformFee":    platformFee,
		},
	}
}

func subscriptionCancelledEvent(patron string, business string) *types.Event {
	return &types.Event{
		Type: EventTypeSubscriptionCancelled,
		Attributes: map[string]string{
			"patron":   patron,
			"business": business,
		},
	}
}

func subscriptionReactivatedEvent(patron string, business string, nextPayment string) *types.Event {
	return &types.Event{
		Type: EventTypeSubscriptionReactivated,
		Attributes: map[string]string{
			"patron":      patron,
			"business":    business,
			"nextPayment": nextPayment,
		},
	}
}

func oneTimePaymentEvent(patron string, business string, amount string, businessAmount string, platformFee string) *types.Event {
	return &types.Event{
		Type: EventTypeOneTimePayment,
		Attributes: map[string]string{
			"patron":         patron,
			"business":       business,
			"amount":         amount,
			"businessAmount": businessAmount,
			"platformFee":    platformFee,
		},
	}
}

func paramsUpdatedEvent(field string, value string) *types.Event {
	return &types.Event{
		Type: EventTypeParamsUpdated,
		Attributes: map[string]string{
			"field": field,
			"value": value,
		},
	}
}
