package pepperjam

import (
	"encoding/json"

	"prodsync/internal/sources"
)

// Envelope wraps every Pepperjam response. Errors come back as HTTP 200
// with a non-200 meta status, so the meta block is authoritative.
type Envelope struct {
	Meta struct {
		Status struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"status"`
		Pagination struct {
			TotalResults sources.FlexString `json:"total_results"`
			TotalPages   sources.FlexString `json:"total_pages"`
		} `json:"pagination"`
	} `json:"meta"`
	Data []json.RawMessage `json:"data"`
}

// Product is one publisher product creative. The feed mixes strings and
// numbers freely, hence the FlexString fields.
type Product struct {
	ID               sources.FlexString `json:"id"`
	Name             string             `json:"name"`
	DescriptionLong  string             `json:"description_long"`
	DescriptionShort string             `json:"description_short"`
	BuyURL           string             `json:"buy_url"`
	ImageURL         string             `json:"image_url"`
	Price            sources.FlexString `json:"price"`
	PriceSale        sources.FlexString `json:"price_sale"`
	CurrencySymbol   string             `json:"currency_symbol"`
	StockAvailability string            `json:"stock_availability"`
	InStock          string             `json:"in_stock"`
	ProgramID        sources.FlexString `json:"program_id"`
	ProgramName      string             `json:"program_name"`
	Categories       []struct {
		Name string `json:"name"`
	} `json:"categories"`
}
