package cj

import (
	"encoding/json"

	"prodsync/internal/sources"
)

// graphQLResponse is the standard GraphQL envelope. The catalog API returns
// 200 with an errors array on query failures, so both branches are decoded.
type graphQLResponse struct {
	Data   *queryData     `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type queryData struct {
	Products *ProductsPayload `json:"products"`
}

// ProductsPayload is the products connection. ResultList stays raw so each
// product's original payload can be carried through unchanged.
type ProductsPayload struct {
	TotalCount int               `json:"totalCount"`
	Count      int               `json:"count"`
	ResultList []json.RawMessage `json:"resultList"`
}

// Money is an amount/currency pair as CJ renders prices. Amounts arrive as
// strings or bare numbers depending on the advertiser feed.
type Money struct {
	Amount   sources.FlexString `json:"amount"`
	Currency string             `json:"currency"`
}

// Product holds the fields selected from the catalog. Shopping-fragment
// fields are flattened into the same object on the wire. IDs use FlexString
// for the same reason as Money.Amount.
type Product struct {
	ID             sources.FlexString `json:"id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Link           string             `json:"link"`
	ImageLink      string             `json:"imageLink"`
	Brand          string             `json:"brand"`
	AdvertiserID   sources.FlexString `json:"advertiserId"`
	AdvertiserName string             `json:"advertiserName"`
	Availability   string             `json:"availability"`
	Price          *Money             `json:"price"`
	SalePrice      *Money             `json:"salePrice"`
	ProductType    []string           `json:"productType"`

	GoogleProductCategory *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"googleProductCategory"`

	LinkCode *struct {
		ClickURL string `json:"clickUrl"`
	} `json:"linkCode"`
}
