package domain

import "time"

type PaymentStatus string

const (
	PaymentSuccessful PaymentStatus = "PAYMENT_SUCCESSFUL"
	PaymentFailed     PaymentStatus = "PAYMENT_FAILED"
)

// Payment is the record returned by the payment processor for a charged
// order. It is persisted atomically with the step commit that advances
// the order to PAID.
type Payment struct {
	PaymentID string
	OrderID   string
	Date      time.Time
	Amount    float64
	Status    PaymentStatus
}
