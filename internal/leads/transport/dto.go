package transport

import "time"

type CreateLeadRequest struct {
	CompanyName string `json:"companyName" validate:"required,min=2,max=200"`
	ContactName string `json:"contactName" validate:"required,min=2,max=200"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,phone_number"`
	Description string `json:"description" validate:"required,min=10,max=5000"`
	BudgetRange string `json:"budgetRange" validate:"omitempty,max=100"`
	Timeline    string `json:"timeline" validate:"omitempty,max=100"`
	Location    string `json:"location" validate:"omitempty,max=200"`
}

type PublishLeadRequest struct {
	Price int `json:"price" validate:"required,gt=0"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

type UpdateCallStatusRequest struct {
	CallStatus string `json:"callStatus" validate:"required,oneof=not_called called unreachable"`
}

type ListLeadsQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=pending approved rejected"`
	Location string `form:"location" validate:"omitempty,max=200"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset   int    `form:"offset" validate:"omitempty,min=0"`
}

// LeadResponse is the full lead view for admins and purchasers.
type LeadResponse struct {
	ID               string     `json:"id"`
	CompanyName      string     `json:"companyName"`
	ContactName      string     `json:"contactName"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	Description      string     `json:"description"`
	BudgetRange      string     `json:"budgetRange,omitempty"`
	Timeline         string     `json:"timeline,omitempty"`
	Location         string     `json:"location,omitempty"`
	Price            int        `json:"price"`
	Status           string     `json:"status"`
	CallStatus       string     `json:"callStatus"`
	Published        bool       `json:"published"`
	PublishedAt      *time.Time `json:"publishedAt,omitempty"`
	CurrentPurchases int        `json:"currentPurchases"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// MarketLeadResponse is the redacted view shown to marketers browsing the
// marketplace. Contact details are withheld until the lead is purchased.
type MarketLeadResponse struct {
	ID               string     `json:"id"`
	CompanyName      string     `json:"companyName"`
	Description      string     `json:"description"`
	BudgetRange      string     `json:"budgetRange,omitempty"`
	Timeline         string     `json:"timeline,omitempty"`
	Location         string     `json:"location,omitempty"`
	Price            int        `json:"price"`
	CurrentPurchases int        `json:"currentPurchases"`
	MaxPurchases     int        `json:"maxPurchases"`
	Purchased        bool       `json:"purchased"`
	PublishedAt      *time.Time `json:"publishedAt,omitempty"`
}

// PurchasedLeadResponse is a full lead plus the caller's purchase details.
type PurchasedLeadResponse struct {
	LeadResponse
	PurchasedAt time.Time `json:"purchasedAt"`
	PricePaid   int       `json:"pricePaid"`
}

type PurchaseResponse struct {
	LeadID           string    `json:"leadId"`
	CreditsSpent     int       `json:"creditsSpent"`
	RemainingCredits int       `json:"remainingCredits"`
	PurchasedAt      time.Time `json:"purchasedAt"`
}

type ReconcileResponse struct {
	RepairedLeadIDs []string `json:"repairedLeadIds"`
}
