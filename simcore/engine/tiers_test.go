package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  TierConfig
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			config:  DefaultTierConfig(),
			wantErr: false,
		},
		{
			name: "empty scheme",
			config: TierConfig{
				Economic:   nil,
				Population: DefaultTierConfig().Population,
			},
			wantErr: true,
		},
		{
			name: "first threshold not zero",
			config: TierConfig{
				Economic: []TierBoundary{
					{Name: "Low", Threshold: 100},
					{Name: "High", Threshold: 200},
				},
				Population: DefaultTierConfig().Population,
			},
			wantErr: true,
		},
		{
			name: "non-increasing thresholds",
			config: TierConfig{
				Economic: []TierBoundary{
					{Name: "Low", Threshold: 0},
					{Name: "Mid", Threshold: 5000},
					{Name: "High", Threshold: 5000},
				},
				Population: DefaultTierConfig().Population,
			},
			wantErr: true,
		},
		{
			name: "decreasing thresholds",
			config: TierConfig{
				Economic: DefaultTierConfig().Economic,
				Population: []TierBoundary{
					{Name: "Big", Threshold: 0},
					{Name: "Small", Threshold: -5},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrTierBoundaries)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tc := DefaultTierConfig()

	tests := []struct {
		name         string
		population   float64
		gdpPerCapita float64
		wantEconomic string
		wantPop      string
	}{
		{"zero everything", 0, 0, "Impoverished", "Micro"},
		{"exact boundary is inclusive", 1_000_000, 5_000, "Developing", "Small"},
		{"just below boundary", 999_999, 4_999.99, "Impoverished", "Micro"},
		{"mid range", 25_000_000, 30_000, "Healthy", "Medium"},
		{"beyond highest threshold", 500_000_000, 1_000_000, "Extravagant", "Massive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			economic, pop := tc.Classify(tt.population, tt.gdpPerCapita)
			assert.Equal(t, tt.wantEconomic, economic)
			assert.Equal(t, tt.wantPop, pop)
		})
	}
}

// Every non-negative pair must classify into exactly one tier per scheme.
func TestClassifyTotality(t *testing.T) {
	tc := DefaultTierConfig()

	values := []float64{0, 0.001, 1, 4_999, 5_000, 54_999, 55_000, 1e12}
	for _, pop := range values {
		for _, gdp := range values {
			economic, population := tc.Classify(pop, gdp)
			assert.NotEmpty(t, economic)
			assert.NotEmpty(t, population)
		}
	}
}
