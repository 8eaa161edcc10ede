package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"cash-register-client/internal/model"
)

// ParseRows reads "amountOwed,amountPaid" rows. Blank lines are skipped;
// there is no header row.
func ParseRows(r io.Reader) ([]model.ChangeRequest, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []model.ChangeRequest
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		line, _ := cr.FieldPos(0)
		if len(record) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 fields, got %d", line, len(record))
		}

		owed, err := model.ParseAmount(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid amount owed %q", line, record[0])
		}
		paid, err := model.ParseAmount(record[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid amount paid %q", line, record[1])
		}

		rows = append(rows, model.ChangeRequest{AmountOwed: owed, AmountPaid: paid})
	}

	return rows, nil
}
