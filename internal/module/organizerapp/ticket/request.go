package ticket

type CreateTicketRequest struct {
	EventID  string  `json:"-" validate:"required"`
	Tier     string  `json:"tier" validate:"required,max=50"`
	Price    float64 `json:"price" validate:"min=0"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
	Total    int64   `json:"total" validate:"required,min=1"`
}
