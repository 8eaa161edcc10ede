package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ChangeRequest is the JSON body for POST /api/change and one element of
// POST /api/change/batch.
type ChangeRequest struct {
	AmountOwed decimal.Decimal `json:"amountOwed"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
}

// MarshalJSON writes both amounts as JSON numbers using their exact decimal
// text. The service decodes them as numbers, not strings.
func (r ChangeRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		AmountOwed json.Number `json:"amountOwed"`
		AmountPaid json.Number `json:"amountPaid"`
	}{
		AmountOwed: json.Number(r.AmountOwed.String()),
		AmountPaid: json.Number(r.AmountPaid.String()),
	})
}

// ChangeResponse is produced by the remote engine for one transaction.
type ChangeResponse struct {
	AmountOwed      decimal.Decimal `json:"amountOwed"`
	AmountPaid      decimal.Decimal `json:"amountPaid"`
	Change          decimal.Decimal `json:"change"`
	Denominations   map[string]int  `json:"denominations"`
	FormattedChange string          `json:"formattedChange"`
}
