package estimation

import "strings"

// MilestoneSpec is one tuple of a billing template: a named percentage of the
// contract due when the job reaches trigger status. Percentages conventionally
// sum to 100 but that is not enforced here.
type MilestoneSpec struct {
	Name          string  `json:"name"`
	Percentage    float64 `json:"percentage"`
	TriggerStatus string  `json:"trigger_status"`
}

// Milestone is a computed billing milestone for a specific job.
type Milestone struct {
	Name          string  `json:"name"`
	Percentage    float64 `json:"percentage"`
	TriggerStatus string  `json:"trigger_status"`
	Amount        float64 `json:"amount"`
	Invoiced      bool    `json:"invoiced"`
}

// BuildSchedule expands a template against a contract amount.
func BuildSchedule(contractAmount float64, template []MilestoneSpec) ([]Milestone, error) {
	if contractAmount < 0 {
		return nil, &ValidationError{Field: "contract_amount", Message: "must be non-negative"}
	}
	if len(template) == 0 {
		return nil, &ValidationError{Field: "template", Message: "must have at least one milestone"}
	}
	milestones := make([]Milestone, 0, len(template))
	for _, spec := range template {
		if spec.Percentage < 0 {
			return nil, &ValidationError{Field: "percentage", Message: "must be non-negative"}
		}
		milestones = append(milestones, Milestone{
			Name:          spec.Name,
			Percentage:    spec.Percentage,
			TriggerStatus: spec.TriggerStatus,
			Amount:        Round2(contractAmount * spec.Percentage / 100),
		})
	}
	return milestones, nil
}

// RecalculateAmounts reprices existing milestones against a new contract
// amount. Percentages and triggers are immutable, and a milestone that
// already has an invoice is locked: changing its amount after billing would
// desynchronize the books, so it keeps the old figure.
func RecalculateAmounts(milestones []Milestone, newContractAmount float64) ([]Milestone, error) {
	if newContractAmount < 0 {
		return nil, &ValidationError{Field: "contract_amount", Message: "must be non-negative"}
	}
	out := make([]Milestone, len(milestones))
	copy(out, milestones)
	for i := range out {
		if out[i].Invoiced {
			continue
		}
		out[i].Amount = Round2(newContractAmount * out[i].Percentage / 100)
	}
	return out, nil
}

// InvoiceRef is the minimal invoice view the idempotency check needs.
type InvoiceRef struct {
	ID   string
	Name string
}

// MatchInvoice finds an existing invoice for a milestone by name prefix.
// The auto-invoicing trigger uses this so a retried job-status event re-links
// the invoice it already created instead of creating a duplicate.
func MatchInvoice(invoices []InvoiceRef, milestoneName string) *InvoiceRef {
	for i := range invoices {
		if strings.HasPrefix(invoices[i].Name, milestoneName) {
			return &invoices[i]
		}
	}
	return nil
}
