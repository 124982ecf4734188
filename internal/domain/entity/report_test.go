package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceOutcomeMutated(t *testing.T) {
	assert.True(t, ResourceOutcome{Action: ActionCreated}.Mutated())
	assert.True(t, ResourceOutcome{Action: ActionUpdated}.Mutated())
	assert.True(t, ResourceOutcome{Action: ActionWouldCreate}.Mutated())
	assert.True(t, ResourceOutcome{Action: ActionWouldUpdate}.Mutated())
	assert.False(t, ResourceOutcome{Action: ActionExists}.Mutated())
	assert.False(t, ResourceOutcome{Action: ActionSkipped}.Mutated())
}

func TestProvisionReportChanged(t *testing.T) {
	report := &ProvisionReport{
		Outcomes: []ResourceOutcome{
			{Action: ActionCreated},
			{Action: ActionExists},
			{Action: ActionWouldUpdate},
		},
	}
	assert.Equal(t, 2, report.Changed())
}
