package models

// Requests for the opportunity query API. Defined in domain for consistency
// and reuse.

type RecentOpportunitiesRequest struct {
	Limit         int     `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
	MinScore      float64 `query:"min_score" json:"min_score" validate:"gte=0,lte=100"`
	Signal        string  `query:"signal" json:"signal" validate:"omitempty,oneof=BUY SELL"`
	MinConfidence float64 `query:"min_confidence" json:"min_confidence" validate:"gte=0,lte=100"`
	Since         string  `query:"since" json:"since,omitempty"`
}

type SymbolOpportunitiesRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type AnalyzeRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
}
