package station

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTrust(t *testing.T) {
	history := make([]PriceRecord, 6)
	for i := range history {
		history[i] = PriceRecord{FuelType: FuelGas, RecordedAt: time.Now()}
	}

	tests := []struct {
		name  string
		setup func(t *testing.T, s *Station)
		want  float64
	}{
		{
			name:  "pending change only",
			setup: func(t *testing.T, s *Station) { s.PendingChanges = []*PendingChange{NewPendingChange(FuelGas, mustPrice(t, "7"))} },
			want:  5.0,
		},
		{
			name:  "no pending changes",
			setup: func(t *testing.T, s *Station) {},
			want:  6.0,
		},
		{
			name: "cheap gas",
			setup: func(t *testing.T, s *Station) {
				require.NoError(t, s.UpdatePrice(FuelGas, mustPrice(t, "5.99")))
			},
			want: 6.5,
		},
		{
			name: "gas at the threshold is not cheap",
			setup: func(t *testing.T, s *Station) {
				require.NoError(t, s.UpdatePrice(FuelGas, mustPrice(t, "6.00")))
			},
			want: 6.0,
		},
		{
			name: "two fuels",
			setup: func(t *testing.T, s *Station) {
				require.NoError(t, s.UpdatePrice(FuelGas, mustPrice(t, "6.50")))
				require.NoError(t, s.UpdatePrice(FuelDiesel, mustPrice(t, "6.10")))
			},
			want: 6.5,
		},
		{
			name: "everything clamps to ten",
			setup: func(t *testing.T, s *Station) {
				s.IsVerified = true
				s.History = history
				require.NoError(t, s.UpdatePrice(FuelGas, mustPrice(t, "5.50")))
				require.NoError(t, s.UpdatePrice(FuelEthanol, mustPrice(t, "3.90")))
			},
			want: 10.0,
		},
		{
			name: "verified with history",
			setup: func(t *testing.T, s *Station) {
				s.IsVerified = true
				s.History = history
				s.PendingChanges = []*PendingChange{NewPendingChange(FuelGas, mustPrice(t, "7"))}
			},
			want: 9.0,
		},
		{
			name: "five history entries are not enough",
			setup: func(t *testing.T, s *Station) {
				s.History = history[:5]
			},
			want: 6.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("st-1", "Posto", nil)
			tt.setup(t, s)
			before := s.TrustScore

			assert.Equal(t, tt.want, CalculateTrust(s))
			assert.Equal(t, before, s.TrustScore)
		})
	}
}

func TestFormatTrust(t *testing.T) {
	assert.Equal(t, "10.0", FormatTrust(10))
	assert.Equal(t, "6.5", FormatTrust(6.5))
}
