package calculator

import (
	"cash-register-client/internal/apperr"
	"cash-register-client/internal/model"
)

const (
	MsgInvalidNumber = "Please enter valid numbers"
	MsgNegative      = "Amounts must not be negative"
	MsgPaidTooLow    = "Amount paid must be greater than or equal to amount owed"
)

// ParseAmounts turns the two amount fields into a request, enforcing
// paid >= owed >= 0. Amounts must be plain decimal notation within
// model.ParseAmount's bounds. Failures are *apperr.ValidationError.
func ParseAmounts(owedText, paidText string) (model.ChangeRequest, error) {
	owed, err := model.ParseAmount(owedText)
	if err != nil {
		return model.ChangeRequest{}, apperr.Validation(MsgInvalidNumber)
	}
	paid, err := model.ParseAmount(paidText)
	if err != nil {
		return model.ChangeRequest{}, apperr.Validation(MsgInvalidNumber)
	}

	if owed.IsNegative() || paid.IsNegative() {
		return model.ChangeRequest{}, apperr.Validation(MsgNegative)
	}
	if paid.LessThan(owed) {
		return model.ChangeRequest{}, apperr.Validation(MsgPaidTooLow)
	}

	return model.ChangeRequest{AmountOwed: owed, AmountPaid: paid}, nil
}
