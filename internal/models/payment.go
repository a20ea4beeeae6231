package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment is the one-to-one payment record for a booking. It is created
// pending, gains a gateway reference on initialization, and is verified at
// most once; verification flips the linked booking to confirmed/paid.
type Payment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BookingID uuid.UUID `json:"booking_id" db:"booking_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Amount    float64   `json:"amount" db:"amount"`
	Reference *string   `json:"reference,omitempty" db:"reference"`
	Verified  bool      `json:"verified" db:"verified"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreatePaymentRequest is the payload for initiating a payment
type CreatePaymentRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
	Amount    float64   `json:"amount" binding:"required"`
}

// InitiatePaymentResponse is returned after gateway initialization
type InitiatePaymentResponse struct {
	Payment          *Payment `json:"payment"`
	Reference        string   `json:"reference"`
	AuthorizationURL string   `json:"authorization_url"`
}

// VerifyPaymentResponse is returned from payment verification
type VerifyPaymentResponse struct {
	Payment       *Payment             `json:"payment"`
	PaymentStatus BookingPaymentStatus `json:"payment_status"`
}
