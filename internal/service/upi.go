package service

import (
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
)

// BuildUPILink builds a upi://pay deep link for collecting an order payment.
// Amounts are INR with two decimal places; payee name and note are
// percent-encoded. Returns "" when the restaurant has no UPI ID configured.
func BuildUPILink(upiID, payeeName string, amount decimal.Decimal, note string) string {
	if upiID == "" {
		return ""
	}

	q := url.Values{}
	q.Set("pa", upiID)
	if payeeName != "" {
		q.Set("pn", payeeName)
	}
	q.Set("am", amount.StringFixed(2))
	q.Set("cu", "INR")
	if note != "" {
		q.Set("tn", note)
	}
	return fmt.Sprintf("upi://pay?%s", q.Encode())
}
