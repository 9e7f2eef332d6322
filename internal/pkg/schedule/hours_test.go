package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuebook/internal/domain"
)

func TestValidateHours(t *testing.T) {
	daytime := domain.OpeningHours{Open: clk(8, 0), Close: clk(22, 0)}
	overnight := domain.OpeningHours{Open: clk(18, 0), Close: clk(2, 0)}
	untilMidnight := domain.OpeningHours{Open: clk(8, 0), Close: domain.Midnight}

	tests := []struct {
		name       string
		hours      domain.OpeningHours
		start, end domain.Clock
		wantErr    error
	}{
		{"inside daytime hours", daytime, clk(10, 0), clk(11, 0), nil},
		{"ends at closing", daytime, clk(21, 0), clk(22, 0), nil},
		{"starts before opening", daytime, clk(7, 0), clk(9, 0), domain.ErrOutOfHours},
		{"ends after closing", daytime, clk(21, 0), clk(23, 0), domain.ErrOutOfHours},
		{"start after end", daytime, clk(12, 0), clk(11, 0), domain.ErrRange},
		{"empty range", daytime, clk(12, 0), clk(12, 0), domain.ErrRange},

		{"overnight evening slot", overnight, clk(19, 0), clk(20, 0), nil},
		{"overnight slot ending at midnight", overnight, clk(23, 0), domain.Midnight, nil},
		{"overnight early morning slot", overnight, clk(0, 0), clk(1, 0), nil},
		{"overnight slot exceeding close", overnight, clk(1, 0), clk(3, 0), domain.ErrOutOfHours},
		{"overnight slot crossing midnight", overnight, clk(23, 0), clk(1, 0), nil},
		{"overnight crossing slot past close", overnight, clk(23, 0), clk(3, 0), domain.ErrOutOfHours},
		{"overnight afternoon slot", overnight, clk(14, 0), clk(15, 0), domain.ErrOutOfHours},

		{"midnight close last slot", untilMidnight, clk(23, 0), domain.Midnight, nil},
		{"midnight close late start", untilMidnight, clk(23, 30), domain.Midnight, domain.ErrOutOfHours},
		{"midnight close before opening", untilMidnight, clk(6, 0), clk(7, 0), domain.ErrOutOfHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHours(tt.hours, tt.start, tt.end)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateHours_OutOfHoursIsRangeError(t *testing.T) {
	err := ValidateHours(domain.OpeningHours{Open: clk(18, 0), Close: clk(2, 0)}, clk(1, 0), clk(3, 0))
	require.Error(t, err)

	var ooh *domain.OutOfHoursError
	require.ErrorAs(t, err, &ooh)
	assert.Equal(t, clk(2, 0), ooh.Close)
	assert.ErrorIs(t, err, domain.ErrRange)
}
