package transaction

import (
	"time"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

type transactionResponse struct {
	ID          string          `json:"id"`
	Account     account.Account `json:"account"`
	Date        string          `json:"date"`
	Amount      string          `json:"amount"`
	Description string          `json:"description"`
}

func toResponse(tx transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID().String(),
		Account:     tx.Account(),
		Date:        tx.Date().Format(time.DateOnly),
		Amount:      transaction.Round(tx.NetAmount()).StringFixed(2),
		Description: tx.Description(),
	}
}

func toResponseList(txs []*transaction.CsvTransaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
