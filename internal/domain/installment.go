package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus tracks the payment lifecycle of one slice.
type InstallmentStatus string

const (
	InstallmentOpen    InstallmentStatus = "aberta"
	InstallmentPaid    InstallmentStatus = "paga"
	InstallmentOverdue InstallmentStatus = "vencida"
)

// Installment is one scheduled payment slice of a transaction.
type Installment struct {
	ID            int64
	TransactionID int64
	Label         string // "i/N"
	DueDate       time.Time
	Amount        decimal.Decimal
	AmountPaid    decimal.Decimal
	Balance       decimal.Decimal
	Status        InstallmentStatus
}

// BuildInstallments splits total into count equal slices two decimal
// places wide, due dates 30 days apart starting at firstDue. The last
// slice absorbs the division remainder so the slices always sum back
// to total exactly.
func BuildInstallments(total decimal.Decimal, count int, firstDue time.Time) []Installment {
	if count < 1 {
		count = 1
	}

	each := total.Div(decimal.NewFromInt(int64(count))).RoundDown(2)
	out := make([]Installment, 0, count)
	for i := 1; i <= count; i++ {
		amount := each
		if i == count {
			amount = total.Sub(each.Mul(decimal.NewFromInt(int64(count - 1))))
		}
		out = append(out, Installment{
			Label:      fmt.Sprintf("%d/%d", i, count),
			DueDate:    firstDue.AddDate(0, 0, 30*(i-1)),
			Amount:     amount,
			AmountPaid: decimal.Zero,
			Balance:    amount,
			Status:     InstallmentOpen,
		})
	}
	return out
}
