package transport

// SettingsPayload mirrors the stored matching configuration for both the
// GET response and the PUT request body.
type SettingsPayload struct {
	MinScore          float64 `json:"minScore" validate:"gte=0,lte=1"`
	MaxMatchesPerLead int     `json:"maxMatchesPerLead" validate:"gte=1"`
	ConsiderExpertise bool    `json:"considerExpertise"`
	ConsiderPortfolio bool    `json:"considerPortfolio"`
	ConsiderBudget    bool    `json:"considerBudget"`
	WeightExpertise   float64 `json:"weightExpertise" validate:"gte=0,lte=1"`
	WeightPortfolio   float64 `json:"weightPortfolio" validate:"gte=0,lte=1"`
	WeightBudget      float64 `json:"weightBudget" validate:"gte=0,lte=1"`
	WeightLocation    float64 `json:"weightLocation" validate:"gte=0,lte=1"`
}

// ProfileRequest is the marketer's own matching profile upsert.
type ProfileRequest struct {
	Expertise      []string `json:"expertise" validate:"max=20,dive,max=64"`
	PortfolioCount int      `json:"portfolioCount" validate:"gte=0"`
	BudgetBucket   string   `json:"budgetBucket" validate:"max=64"`
	Location       string   `json:"location" validate:"max=128"`
}

// ProfileResponse is the stored profile view.
type ProfileResponse struct {
	UserID         string   `json:"userId"`
	Expertise      []string `json:"expertise"`
	PortfolioCount int      `json:"portfolioCount"`
	BudgetBucket   string   `json:"budgetBucket"`
	Location       string   `json:"location"`
	UpdatedAt      string   `json:"updatedAt"`
}
