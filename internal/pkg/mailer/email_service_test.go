package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		minor    int64
		currency string
		want     string
	}{
		{minor: 2390, currency: "USD", want: "23.90 USD"},
		{minor: 5, currency: "EUR", want: "0.05 EUR"},
		{minor: 100000, currency: "IDR", want: "1000.00 IDR"},
		{minor: 1500, currency: "JPY", want: "1500 JPY"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.minor, tt.currency))
		})
	}
}

func TestRenderRefundUpdate(t *testing.T) {
	body, err := RenderRefundUpdate(RefundUpdate{
		CustomerName: "Dana <script>",
		OrderNumber:  "ORD-1001",
		Status:       "completed",
		Amount:       2390,
		Currency:     "USD",
		Message:      "Funds arrive in 3-5 days.",
	})
	require.NoError(t, err)

	assert.Contains(t, body, "ORD-1001")
	assert.Contains(t, body, "23.90 USD")
	assert.Contains(t, body, "Funds arrive in 3-5 days.")
	assert.NotContains(t, body, "<script>")
}
