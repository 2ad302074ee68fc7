package statement

import (
	"log"
	"strings"

	"github.com/mhorak/ibfolio/internal/apperrors"
	"github.com/mhorak/ibfolio/internal/model"
)

// Executions extracts executed orders with their broker-reported economics
// from the Trades section. Rows with unparsable quantity, price, or
// timestamp are skipped; the money columns are lenient and default to zero
// when absent or unparsable.
func Executions(sections Sections) []model.Execution {
	section := sections["Trades"]
	if section == nil {
		return nil
	}

	var executions []model.Execution
	for _, row := range section.Rows {
		if row["DataDiscriminator"] != "Order" {
			continue
		}
		symbol := row["Symbol"]
		if symbol == "" {
			continue
		}

		qty, qtyErr := parseFloat(row["Quantity"])
		price, priceErr := parseFloat(row["T. Price"])
		when, timeErr := parseDateTime(row["Date/Time"])
		if qtyErr != nil || priceErr != nil || timeErr != nil {
			log.Printf("statement: %v: skipping execution row for %q", apperrors.ErrMalformedRow, symbol)
			continue
		}

		proceeds, _ := parseFloat(row["Proceeds"])
		basis, _ := parseFloat(row["Basis"])
		realized, _ := parseFloat(row["Realized P/L"])

		executions = append(executions, model.Execution{
			Symbol:      symbol,
			Date:        when.Format("2006-01-02"),
			Time:        when.Format("15:04:05"),
			Quantity:    qty,
			Price:       price,
			Proceeds:    proceeds,
			Commission:  tradeFee(row),
			Basis:       basis,
			RealizedPnL: realized,
			Currency:    row["Currency"],
			Category:    row["Asset Category"],
			Code:        row["Code"],
		})
	}
	return executions
}

// InterestPostings extracts interest debits and credits from the Interest
// section. Per-currency subtotal rows carry "Total" in the currency column
// and are skipped.
func InterestPostings(sections Sections) []model.InterestPosting {
	section := sections["Interest"]
	if section == nil {
		return nil
	}

	var postings []model.InterestPosting
	for _, row := range section.Rows {
		currency := row["Currency"]
		if currency == "" || strings.Contains(currency, "Total") {
			continue
		}
		amount, err := parseFloat(row["Amount"])
		if err != nil {
			continue
		}
		if _, dateErr := parseDateTime(row["Date"]); dateErr != nil {
			continue
		}

		postings = append(postings, model.InterestPosting{
			Date:        row["Date"],
			Currency:    currency,
			Description: row["Description"],
			Amount:      amount,
		})
	}
	return postings
}
