package response

import (
	"encoding/json"
	"net/http"
)

type RESTEnvelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Meta    interface{} `json:"meta"`
}

// PaginationMeta is attached to list responses.
type PaginationMeta struct {
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	TotalItems int64 `json:"total_items"`
	TotalPages int64 `json:"total_pages"`
}

func NewPaginationMeta(page, limit, total int64) PaginationMeta {
	pages := int64(0)
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}

	return PaginationMeta{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: pages,
	}
}

func JSON(w http.ResponseWriter, httpStatusCode int, envelope RESTEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	json.NewEncoder(w).Encode(envelope)
}
