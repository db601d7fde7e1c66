package bootstrap

import (
	"path/filepath"
	"testing"

	"refund-lifecycle-be/internal/config"
	"refund-lifecycle-be/pkg/refund"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGateway(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.GatewayConfig
		wantName string
		wantErr  string
	}{
		{name: "default is sandbox", cfg: config.GatewayConfig{}, wantName: "sandbox"},
		{name: "midtrans needs a key", cfg: config.GatewayConfig{Provider: "midtrans"}, wantErr: "MIDTRANS_SERVER_KEY"},
		{name: "midtrans", cfg: config.GatewayConfig{Provider: "midtrans", MidtransServerKey: "SB-Mid-server-x", MidtransEnv: "sandbox"}, wantName: "midtrans"},
		{name: "stripe needs a key", cfg: config.GatewayConfig{Provider: "stripe"}, wantErr: "STRIPE_SECRET_KEY"},
		{name: "stripe", cfg: config.GatewayConfig{Provider: "stripe", StripeSecretKey: "sk_test_x"}, wantName: "stripe"},
		{name: "unknown provider", cfg: config.GatewayConfig{Provider: "paypal"}, wantErr: "unknown GATEWAY_PROVIDER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGateway(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, g.Name())
		})
	}
}

func TestOpenStores(t *testing.T) {
	_, err := OpenStores(&config.Config{Database: config.DatabaseConfig{Driver: "postgres"}})
	assert.ErrorContains(t, err, "DB_CONNECTION_STRING")

	_, err = OpenStores(&config.Config{Database: config.DatabaseConfig{Driver: "mongo"}})
	assert.ErrorContains(t, err, "unknown STORE_DRIVER")

	stores, err := OpenStores(&config.Config{Database: config.DatabaseConfig{Driver: "bolt", BoltPath: filepath.Join(t.TempDir(), "refunds.db")}})
	require.NoError(t, err)
	assert.NotNil(t, stores.Refunds)
	assert.NotNil(t, stores.Production)
	assert.NoError(t, stores.Close())
}

func TestNewEngineNormalizesThresholds(t *testing.T) {
	engine := NewEngine(config.RefundConfig{AutoThreshold: 120, AnnotateThreshold: 130, SmallAmountLimit: 50, AbuseLimit: 3})
	assert.Equal(t, refund.Thresholds{Auto: 100, Annotate: 100}, engine.Thresholds())

	engine = NewEngine(config.RefundConfig{AutoThreshold: 85, AnnotateThreshold: 40})
	assert.Equal(t, refund.Thresholds{Auto: 85, Annotate: 40}, engine.Thresholds())
	assert.NotEmpty(t, engine.Rules())
}
