package model

import "time"

// CaptureMethodAutomatic captures funds as soon as the payment is authorized.
const CaptureMethodAutomatic = "AUTOMATIC"

// PaymentIntentRequest holds the fields sent upstream to create a payment intent.
// Amount is expressed in the smallest currency unit.
type PaymentIntentRequest struct {
	Amount          int64
	Currency        string
	MerchantOrderID string
	RequestID       string
	CaptureMethod   string
}

// PaymentIntent is a server-side record of an intended charge. ClientSecret is
// handed to the checkout page so it can mount the payment element.
type PaymentIntent struct {
	ID              string
	ClientSecret    string
	Amount          int64
	Currency        string
	MerchantOrderID string
	RequestID       string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
