package booking

type CreateSecureBookingRequest struct {
	EventID       string `json:"event_id" validate:"required"`
	TicketID      string `json:"ticket_id" validate:"required"`
	Quantity      int64  `json:"quantity" validate:"required,min=1"`
	PaymentMethod string `json:"payment_method" validate:"oneof=bca bni bri card"`
	AttendeeName  string `json:"attendee_name" validate:"omitempty,max=100"`
	AttendeeEmail string `json:"attendee_email" validate:"omitempty,email"`
	AttendeePhone string `json:"attendee_phone" validate:"omitempty,max=20"`
}

type GetManyBookingRequest struct {
	Page          int64  `json:"page" validate:"min=1,max=10000"`
	Limit         int64  `json:"limit" validate:"min=1,max=50"`
	Status        string `json:"status" validate:"omitempty,oneof=pending confirmed cancelled expired"`
	PaymentStatus string `json:"paymentStatus" validate:"omitempty,oneof=pending processing completed failed refunded expired"`
	SortBy        string `json:"sortBy" validate:"omitempty,oneof=createdAt updatedAt totalPrice"`
	SortOrder     string `json:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

func (r GetManyBookingRequest) Filter() ListFilter {
	return ListFilter{
		Status:        Status(r.Status),
		PaymentStatus: PaymentStatus(r.PaymentStatus),
		SortBy:        r.SortBy,
		SortOrder:     r.SortOrder,
		Page:          r.Page,
		Limit:         r.Limit,
	}
}

type UpdateStatusRequest struct {
	BookingID string `json:"-" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
	Reason    string `json:"reason" validate:"omitempty,max=255"`
}
