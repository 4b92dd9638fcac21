package patronage

import (
	"fmt"
	"math/big"
	"strings"
)

const (
	maxBusinessNameLen        = 64
	maxBusinessDescriptionLen = 512
	maxBusinessCategoryLen    = 64
)

type businessProfile struct {
	name        string
	description string
	category    string
}

func sanitizeBusinessProfile(name, description, category string) (businessProfile, error) {
	profile := businessProfile{
		name:        strings.TrimSpace(name),
		description: strings.TrimSpace(description),
		category:    strings.TrimSpace(category),
	}
	if profile.name == "" {
		return profile, fmt.Errorf("%w: name required", ErrInvalidBusiness)
	}
	if len(profile.name) > maxBusinessNameLen {
		return profile, fmt.Errorf("%w: name too long", ErrInvalidBusiness)
	}
	if len(profile.description) > maxBusinessDescriptionLen {
		return profile, fmt.Errorf("%w: description too long", ErrInvalidBusiness)
	}
	if len(profile.category) > maxBusinessCategoryLen {
		return profile, fmt.Errorf("%w: category too long", ErrInvalidBusiness)
	}
	return profile, nil
}

// RegisterBusiness creates the business record for the owner address. Each
// address registers at most once; the record is keyed by the owner and never
// deleted.
func (e *Engine) RegisterBusiness(owner [20]byte, name, description, category string) (*Business, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	profile, err := sanitizeBusinessProfile(name, description, category)
	if err != nil {
		return nil, err
	}
	if existing, ok, err := e.state.PatronageBusinessGet(owner); err != nil {
		return nil, err
	} else if ok && existing != nil {
		return nil, ErrBusinessExists
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	biz := &Business{
		Owner:          owner,
		Name:           profile.name,
		Description:    profile.description,
		Category:       profile.category,
		Active:         true,
		TotalReceived:  big.NewInt(0),
		PatronCount:    0,
		CreatedAt:      params.Clock,
		RegistrationID: params.NextID,
	}
	params.NextID++
	if err := e.state.PatronageBusinessPut(biz); err != nil {
		return nil, err
	}
	params.Clock++
	if err := e.state.PatronageParamsPut(params); err != nil {
		return nil, err
	}
	e.emit(businessRegisteredEvent(hexAddr(owner), formatUint(biz.RegistrationID), biz.Name))
	return biz.Clone(), nil
}

// UpdateBusiness replaces the profile fields of the caller's own business.
// Accumulators, flags and timestamps are untouched.
func (e *Engine) UpdateBusiness(owner [20]byte, name, description, category string) (*Business, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	biz, ok, err := e.state.PatronageBusinessGet(owner)
	if err != nil {
		return nil, err
	}
	if !ok || biz == nil {
		return nil, ErrBusinessNotFound
	}
	profile, err := sanitizeBusinessProfile(name, description, category)
	if err != nil {
		return nil, err
	}
	biz.Name = profile.name
	biz.Description = profile.description
	biz.Category = profile.category
	if err := e.state.PatronageBusinessPut(biz); err != nil {
		return nil, err
	}
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	params.Clock++
	if err := e.state.PatronageParamsPut(params); err != nil {
		return nil, err
	}
	e.emit(businessUpdatedEvent(hexAddr(owner), biz.Name))
	return biz.Clone(), nil
}

// DeactivateBusiness retires a business. Authority-only and irreversible:
// there is no reactivation path for businesses.
func (e *Engine) DeactivateBusiness(caller [20]byte, owner [20]byte) error {
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
	biz, ok, err := e.state.PatronageBusinessGet(owner)
	if err != nil {
		return err
	}
	if !ok || biz == nil {
		return ErrBusinessNotFound
	}
	biz.Active = false
	if err := e.state.PatronageBusinessPut(biz); err != nil {
		return err
	}
	params.Clock++
	if err := e.state.PatronageParamsPut(params); err != nil {
		return err
	}
	e.emit(businessDeactivatedEvent(hexAddr(owner)))
	return nil
}

// Business returns the stored record for the owner without mutating state.
func (e *Engine) Business(owner [20]byte) (*Business, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, ErrNilState
	}
	biz, ok, err := e.state.PatronageBusinessGet(owner)
	if err != nil || !ok {
		return nil, false, err
	}
	return biz.Clone(), true, nil
}
