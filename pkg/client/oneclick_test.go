package client

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/grinry/rwallet/pkg/types"
)

func TestProgressStatus(t *testing.T) {
	tests := []struct {
		status string
		want   string
		final  bool
	}{
		{"SUCCESS", types.SwapSucceeded, true},
		{"completed", types.SwapSucceeded, true},
		{"FAILED", types.SwapFailed, true},
		{"REFUNDED", types.SwapRefunded, true},
		{"PENDING_DEPOSIT", types.SwapPending, false},
		{"INCOMPLETE_DEPOSIT", types.SwapPending, false},
		{"PROCESSING", types.SwapPending, false},
		{"", types.SwapPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			progress := types.SwapProgress{Status: progressStatus(tt.status)}
			assert.Equal(t, tt.want, progress.Status)
			assert.Equal(t, tt.final, progress.Final())
		})
	}
}

func TestOneClickDepositLimits(t *testing.T) {
	c := NewOneClickClient("token", "")
	assert.Equal(t, "0.01", c.sample.String())

	c.WithDepositLimits(decimal.Zero, decimal.RequireFromString("0.002"))
	assert.Equal(t, "0.01", c.sample.String(), "non-positive sample keeps the default")
	assert.Equal(t, "0.002", c.minDeposit.String())

	c.WithDepositLimits(decimal.RequireFromString("0.5"), decimal.Zero)
	assert.Equal(t, "0.5", c.sample.String())
}
