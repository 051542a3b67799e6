package estimation

import (
	"errors"
	"testing"
)

func standardTemplate() []MilestoneSpec {
	return []MilestoneSpec{
		{Name: "Deposit", Percentage: 40, TriggerStatus: "scheduled"},
		{Name: "Material Delivery", Percentage: 50, TriggerStatus: "materials_ordered"},
		{Name: "Final Payment", Percentage: 10, TriggerStatus: "completed"},
	}
}

func TestBuildSchedule(t *testing.T) {
	milestones, err := BuildSchedule(18500, standardTemplate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []float64{7400, 9250, 1850}
	for i, m := range milestones {
		if m.Amount != expected[i] {
			t.Errorf("milestone %q amount = %v, expected %v", m.Name, m.Amount, expected[i])
		}
		if m.Invoiced {
			t.Errorf("milestone %q should start uninvoiced", m.Name)
		}
	}

	// Odd contract amounts round half-up per milestone.
	milestones, err = BuildSchedule(10001.25, standardTemplate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if milestones[0].Amount != 4000.50 {
		t.Errorf("deposit = %v, expected 4000.50", milestones[0].Amount)
	}
}

func TestBuildScheduleValidation(t *testing.T) {
	if _, err := BuildSchedule(-1, standardTemplate()); err == nil {
		t.Error("expected error for negative contract amount")
	}
	if _, err := BuildSchedule(1000, nil); err == nil {
		t.Error("expected error for empty template")
	}
	var ve *ValidationError
	_, err := BuildSchedule(1000, []MilestoneSpec{{Name: "bad", Percentage: -5}})
	if !errors.As(err, &ve) {
		t.Errorf("error = %T, expected *ValidationError", err)
	}
}

func TestRecalculateAmountsSkipsInvoiced(t *testing.T) {
	milestones, err := BuildSchedule(10000, standardTemplate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Deposit already invoiced: its amount is locked.
	milestones[0].Invoiced = true

	updated, err := RecalculateAmounts(milestones, 12000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated[0].Amount != 4000 {
		t.Errorf("invoiced milestone amount = %v, expected untouched 4000", updated[0].Amount)
	}
	if updated[1].Amount != 6000 || updated[2].Amount != 1200 {
		t.Errorf("recalculated amounts = %v/%v, expected 6000/1200", updated[1].Amount, updated[2].Amount)
	}
	// Percentages and triggers never change.
	if updated[1].Percentage != 50 || updated[1].TriggerStatus != "materials_ordered" {
		t.Errorf("milestone identity changed during recalculation: %+v", updated[1])
	}
	// Input slice is not mutated.
	if milestones[1].Amount != 5000 {
		t.Errorf("input slice mutated: %v", milestones[1].Amount)
	}
}

func TestMatchInvoice(t *testing.T) {
	invoices := []InvoiceRef{
		{ID: "inv-1", Name: "Deposit - JOB-2031"},
		{ID: "inv-2", Name: "Final Payment - JOB-2031"},
	}

	// The trigger fired twice for the same milestone: the second pass finds
	// the invoice created by the first and re-links instead of duplicating.
	if got := MatchInvoice(invoices, "Deposit"); got == nil || got.ID != "inv-1" {
		t.Errorf("MatchInvoice(Deposit) = %+v, expected inv-1", got)
	}
	if got := MatchInvoice(invoices, "Material Delivery"); got != nil {
		t.Errorf("MatchInvoice(Material Delivery) = %+v, expected nil", got)
	}
	if got := MatchInvoice(nil, "Deposit"); got != nil {
		t.Errorf("MatchInvoice on empty list = %+v, expected nil", got)
	}
}
