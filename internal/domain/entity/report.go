package entity

import "time"

// Ações possíveis de um passo de provisionamento.
const (
	ActionCreated     = "created"
	ActionUpdated     = "updated"
	ActionExists      = "exists"
	ActionWouldCreate = "would-create"
	ActionWouldUpdate = "would-update"
	ActionSkipped     = "skipped"
	ActionFailed      = "failed"
)

// ResourceOutcome representa o resultado de um passo check-then-create.
type ResourceOutcome struct {
	Phase  string `json:"phase"`
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Arn    string `json:"arn,omitempty"`
	Action string `json:"action"`
	Detail string `json:"detail,omitempty"`
}

// Mutated informa se o passo alterou (ou alteraria) algum recurso remoto.
func (o ResourceOutcome) Mutated() bool {
	switch o.Action {
	case ActionCreated, ActionUpdated, ActionWouldCreate, ActionWouldUpdate:
		return true
	}
	return false
}

// ProvisionReport agrega os resultados de uma fase para exibição e export.
type ProvisionReport struct {
	Profile     string            `json:"profile"`
	AccountID   string            `json:"account_id"`
	Region      string            `json:"region"`
	Phase       string            `json:"phase"`
	GeneratedAt time.Time         `json:"generated_at"`
	DryRun      bool              `json:"dry_run"`
	Outcomes    []ResourceOutcome `json:"outcomes"`
	Errors      []string          `json:"errors,omitempty"`
}

// Changed conta quantos passos alteraram (ou alterariam) recursos.
func (r *ProvisionReport) Changed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Mutated() {
			n++
		}
	}
	return n
}
