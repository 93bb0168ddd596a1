package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBuildInstallments(t *testing.T) {
	firstDue := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		total       string
		count       int
		wantAmounts []string
	}{
		{
			name:        "single installment",
			total:       "1500.50",
			count:       1,
			wantAmounts: []string{"1500.50"},
		},
		{
			name:        "even split",
			total:       "300.00",
			count:       3,
			wantAmounts: []string{"100.00", "100.00", "100.00"},
		},
		{
			name:        "remainder goes to last",
			total:       "100.00",
			count:       3,
			wantAmounts: []string{"33.33", "33.33", "33.34"},
		},
		{
			name:        "zero count treated as one",
			total:       "50.00",
			count:       0,
			wantAmounts: []string{"50.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			got := BuildInstallments(total, tt.count, firstDue)

			if len(got) != len(tt.wantAmounts) {
				t.Fatalf("expected %d installments, got %d", len(tt.wantAmounts), len(got))
			}

			sum := decimal.Zero
			for i, inst := range got {
				if inst.Amount.StringFixed(2) != tt.wantAmounts[i] {
					t.Errorf("installment %d: expected amount %s, got %s",
						i+1, tt.wantAmounts[i], inst.Amount.StringFixed(2))
				}
				sum = sum.Add(inst.Amount)
			}

			if !sum.Equal(total) {
				t.Errorf("installments sum to %s, expected %s", sum, total)
			}
		})
	}
}

func TestBuildInstallments_LabelsAndDates(t *testing.T) {
	firstDue := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	got := BuildInstallments(decimal.RequireFromString("900.00"), 3, firstDue)

	wantLabels := []string{"1/3", "2/3", "3/3"}
	for i, inst := range got {
		if inst.Label != wantLabels[i] {
			t.Errorf("installment %d: expected label %s, got %s", i+1, wantLabels[i], inst.Label)
		}

		wantDue := firstDue.AddDate(0, 0, 30*i)
		if !inst.DueDate.Equal(wantDue) {
			t.Errorf("installment %d: expected due date %s, got %s",
				i+1, wantDue.Format("2006-01-02"), inst.DueDate.Format("2006-01-02"))
		}

		if !inst.AmountPaid.IsZero() {
			t.Errorf("installment %d: expected zero paid amount, got %s", i+1, inst.AmountPaid)
		}
		if !inst.Balance.Equal(inst.Amount) {
			t.Errorf("installment %d: expected balance %s, got %s", i+1, inst.Amount, inst.Balance)
		}
		if inst.Status != InstallmentOpen {
			t.Errorf("installment %d: expected open status, got %s", i+1, inst.Status)
		}
	}
}

func TestOpenInstallments(t *testing.T) {
	tx := Transaction{
		Installments: []Installment{
			{Status: InstallmentOpen},
			{Status: InstallmentPaid},
			{Status: InstallmentOpen},
		},
	}
	if got := tx.OpenInstallments(); got != 2 {
		t.Errorf("expected 2 open installments, got %d", got)
	}
}
