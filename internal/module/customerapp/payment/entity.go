package payment

import "time"

const (
	MethodBCA  = "bca"
	MethodBNI  = "bni"
	MethodBRI  = "bri"
	MethodCard = "card"
)

const (
	GatewayMidtrans = "midtrans"
	GatewayStripe   = "stripe"
)

// Outcomes a gateway can report for a booking's payment.
const (
	OutcomeSettled = "settled"
	OutcomePending = "pending"
	OutcomeFailed  = "failed"
	OutcomeExpired = "expired"
)

type Customer struct {
	Name  string
	Email string
	Phone string
}

type AuthorizeRequest struct {
	// Reference is the booking id. Gateways echo it back in notifications.
	Reference   string
	Method      string
	Amount      float64
	AmountMinor int64
	Currency    string
	Description string
	Customer    Customer
	ExpiresAt   time.Time
}

type Authorization struct {
	Gateway       string
	TransactionID string
	// PaymentReference is what the customer pays against: a virtual account number or a client secret.
	PaymentReference string
	Status           string
}

type Notification struct {
	BookingID     string
	TransactionID string
	Gateway       string
	Outcome       string
}

func IsBankTransfer(method string) bool {
	switch method {
	case MethodBCA, MethodBNI, MethodBRI:
		return true
	}

	return false
}
