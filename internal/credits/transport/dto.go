package transport

import "time"

type BalanceResponse struct {
	Credits int `json:"credits"`
}

type TransactionResponse struct {
	ID          string    `json:"id"`
	LeadID      *string   `json:"leadId,omitempty"`
	Amount      int       `json:"amount"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ListTransactionsQuery struct {
	Limit  int `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset int `form:"offset" validate:"omitempty,min=0"`
}
