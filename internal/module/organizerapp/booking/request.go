package booking

const (
	DefaultPage  int64 = 1
	DefaultLimit int64 = 10
	RecentLimit  int64 = 5
)

type GetManyBookingRequest struct {
	Page          int64  `json:"page" validate:"min=1,max=10000"`
	Limit         int64  `json:"limit" validate:"min=1,max=100"`
	EventID       string `json:"eventId" validate:"omitempty,max=64"`
	Status        string `json:"status" validate:"omitempty,oneof=pending confirmed cancelled expired"`
	PaymentStatus string `json:"paymentStatus" validate:"omitempty,oneof=pending processing completed failed refunded expired"`
	Search        string `json:"search" validate:"omitempty,max=100"`
	SortBy        string `json:"sortBy" validate:"omitempty,oneof=createdAt updatedAt totalPrice"`
	SortOrder     string `json:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

func (r GetManyBookingRequest) filter(organizerID string) Filter {
	return Filter{
		OrganizerID:   organizerID,
		EventID:       r.EventID,
		Status:        r.Status,
		PaymentStatus: r.PaymentStatus,
		Search:        r.Search,
		SortBy:        r.SortBy,
		SortOrder:     r.SortOrder,
		Page:          r.Page,
		Limit:         r.Limit,
		Offset:        (r.Page - 1) * r.Limit,
	}
}

type GetStatsRequest struct {
	EventID string `json:"eventId" validate:"omitempty,max=64"`
}
