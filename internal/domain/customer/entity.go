// internal/domain/customer/entity.go
package customer

import (
	"errors"
	"fmt"
)

// ErrInvalidDeliveryMethod is returned for a delivery method other than pickup or delivery
var ErrInvalidDeliveryMethod = errors.New("invalid delivery method")

// DeliveryMethod tells how the order reaches the customer
type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryDelivery DeliveryMethod = "delivery"
)

// Profile holds the contact, delivery and payment preferences of a customer.
// JSON names match the layout the menu front-end persists.
type Profile struct {
	Name              string         `json:"name"`
	Phone             string         `json:"phone"`
	DeliveryMethod    DeliveryMethod `json:"deliveryMethod"`
	AddressStreet     string         `json:"address_street"`
	AddressNumber     string         `json:"address_number"`
	AddressComplement string         `json:"address_complement"`
	Address           string         `json:"address"`
	PaymentMethod     string         `json:"paymentMethod"`
	Neighborhood      string         `json:"neighborhood"`
}

// DefaultProfile returns the empty profile with pickup delivery
func DefaultProfile() Profile {
	return Profile{DeliveryMethod: DeliveryPickup}
}

// Normalize fills an empty delivery method with pickup
func (p Profile) Normalize() Profile {
	if p.DeliveryMethod == "" {
		p.DeliveryMethod = DeliveryPickup
	}
	return p
}

// Validate checks the delivery method
func (p Profile) Validate() error {
	switch p.DeliveryMethod {
	case DeliveryPickup, DeliveryDelivery:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDeliveryMethod, p.DeliveryMethod)
	}
}

// Patch carries the profile fields a caller wants to change; nil fields are left alone
type Patch struct {
	Name              *string         `json:"name"`
	Phone             *string         `json:"phone"`
	DeliveryMethod    *DeliveryMethod `json:"deliveryMethod"`
	AddressStreet     *string         `json:"address_street"`
	AddressNumber     *string         `json:"address_number"`
	AddressComplement *string         `json:"address_complement"`
	Address           *string         `json:"address"`
	PaymentMethod     *string         `json:"paymentMethod"`
	Neighborhood      *string         `json:"neighborhood"`
}

// Apply returns p with the non-nil fields of patch
func (p Profile) Apply(patch Patch) Profile {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	set(&p.Name, patch.Name)
	set(&p.Phone, patch.Phone)
	set(&p.AddressStreet, patch.AddressStreet)
	set(&p.AddressNumber, patch.AddressNumber)
	set(&p.AddressComplement, patch.AddressComplement)
	set(&p.Address, patch.Address)
	set(&p.PaymentMethod, patch.PaymentMethod)
	set(&p.Neighborhood, patch.Neighborhood)
	if patch.DeliveryMethod != nil {
		p.DeliveryMethod = *patch.DeliveryMethod
	}
	return p
}
