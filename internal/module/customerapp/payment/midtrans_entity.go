package payment

const (
	midtransBankTransferType = "bank_transfer"
)

type midtransBankTransfer struct {
	Bank string `json:"bank"`
}

type midtransTransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type midtransCustomerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

type midtransItemDetails struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	Name     string `json:"name"`
}

type midtransCustomExpiry struct {
	ExpiryDuration int64  `json:"expiry_duration"`
	Unit           string `json:"unit"`
}

type MidtransChargeRequest struct {
	PaymentType        string                     `json:"payment_type"`
	BankTransfer       midtransBankTransfer       `json:"bank_transfer"`
	TransactionDetails midtransTransactionDetails `json:"transaction_details"`
	CustomerDetails    midtransCustomerDetails    `json:"customer_details"`
	ItemDetails        []midtransItemDetails      `json:"item_details,omitempty"`
	CustomExpiry       *midtransCustomExpiry      `json:"custom_expiry,omitempty"`
}

type midtransVANumber struct {
	Bank     string `json:"bank"`
	VaNumber string `json:"va_number"`
}

type MidtransChargeResponse struct {
	StatusCode        string             `json:"status_code"`
	StatusMessage     string             `json:"status_message"`
	TransactionID     string             `json:"transaction_id"`
	OrderID           string             `json:"order_id"`
	GrossAmount       string             `json:"gross_amount"`
	Currency          string             `json:"currency"`
	PaymentType       string             `json:"payment_type"`
	TransactionStatus string             `json:"transaction_status"`
	FraudStatus       string             `json:"fraud_status"`
	VaNumbers         []midtransVANumber `json:"va_numbers"`
	ExpiryTime        string             `json:"expiry_time"`
}

// MidtransNotification is the HTTP notification midtrans posts on every transaction change.
type MidtransNotification struct {
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
}

// Outcome maps midtrans transaction statuses onto payment outcomes.
func (n MidtransNotification) Outcome() string {
	switch n.TransactionStatus {
	case "settlement":
		return OutcomeSettled
	case "capture":
		if n.FraudStatus == "challenge" {
			return OutcomePending
		}
		return OutcomeSettled
	case "pending":
		return OutcomePending
	case "deny", "cancel", "failure":
		return OutcomeFailed
	case "expire":
		return OutcomeExpired
	}

	return ""
}
