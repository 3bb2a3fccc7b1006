package forecast

import (
	"encoding/json"

	"faktura/internal/core"
)

type transactionJSON struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        Kind   `json:"type"`
}

type entryJSON struct {
	Date         string            `json:"date"`
	Balance      string            `json:"balance"`
	Income       string            `json:"income"`
	Expenses     string            `json:"expenses"`
	Transactions []transactionJSON `json:"transactions"`
}

// MarshalJSON renders dates as YYYY-MM-DD and amounts with two decimals.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.toJSON())
}

func (t Transaction) toJSON() transactionJSON {
	return transactionJSON{
		Date:        core.FormatDate(t.Date),
		Description: t.Description,
		Amount:      core.FormatAmount(t.Amount),
		Type:        t.Kind,
	}
}

// MarshalJSON renders the month end as "date" with two-decimal amounts.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{
		Date:         core.FormatDate(e.MonthEnd),
		Balance:      core.FormatAmount(e.Balance),
		Income:       core.FormatAmount(e.Income),
		Expenses:     core.FormatAmount(e.Expenses),
		Transactions: make([]transactionJSON, 0, len(e.Transactions)),
	}
	for _, t := range e.Transactions {
		out.Transactions = append(out.Transactions, t.toJSON())
	}
	return json.Marshal(out)
}
