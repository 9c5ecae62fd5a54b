package models

// Requests for pipeline HTTP endpoints. Defined in domain for consistency and reuse.

type GenerateFeaturesRequest struct {
	Symbol string `json:"symbol" validate:"required,min=1,max=12"`
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type GenerateSignalsRequest struct {
	Symbol string `json:"symbol" validate:"required,min=1,max=12"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
}

type TableRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,min=1,max=12"`
	Date   string `param:"date" json:"date" validate:"required,datetime=2006-01-02"`
	Limit  int    `query:"limit" json:"limit" default:"10000" validate:"gte=1,lte=50000"`
}
