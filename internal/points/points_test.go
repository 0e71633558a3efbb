package points_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"uniBlocAPI/internal/points"
)

func TestForAttempt(t *testing.T) {
	tests := map[string]struct {
		maxPoints int
		attempt   int
		want      int
	}{
		"first attempt is full value":   {100, 1, 100},
		"second attempt loses 5%":      {100, 2, 95},
		"third attempt loses 10%":      {100, 3, 90},
		"fourth attempt loses 15%":     {100, 4, 85},
		"fifth attempt loses 20%":      {100, 5, 80},
		"sixth attempt reuses fifth":   {100, 6, 80},
		"tenth attempt reuses fifth":   {100, 10, 80},
		"uneven maximum rounds up":     {94, 4, 80}, // 94*0.85 = 79.9
		"uneven maximum rounds down":   {33, 5, 26}, // 33*0.80 = 26.4
		"small boulder floors at one":  {1, 5, 1},
		"zero attempt scores nothing":  {100, 0, 0},
		"negative attempt scores zero": {100, -3, 0},
		"zero max scores nothing":      {0, 1, 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tt.want, points.ForAttempt(tt.maxPoints, tt.attempt))
		})
	}
}

func TestForAttemptMonotonicity(t *testing.T) {
	for _, maxPoints := range []int{1, 2, 7, 50, 100, 137, 1000} {
		prev := points.ForAttempt(maxPoints, 1)
		for n := 2; n <= points.MaxCountedAttempts; n++ {
			cur := points.ForAttempt(maxPoints, n)
			require.LessOrEqual(t, cur, prev, "max=%d attempt=%d", maxPoints, n)
			require.GreaterOrEqual(t, cur, 1, "max=%d attempt=%d", maxPoints, n)
			prev = cur
		}
	}
}

func TestNewSchedule(t *testing.T) {
	s := points.NewSchedule(100, 25)

	require.Equal(t, points.Schedule{
		ForFirst:  100,
		ForSecond: 95,
		ForThird:  90,
		ForFourth: 85,
		ForFifth:  80,
		ForZone:   25,
	}, s)
}

func TestScheduleForSendCount(t *testing.T) {
	s := points.NewSchedule(100, 25)

	require.Equal(t, 0, s.ForSendCount(0))
	require.Equal(t, 100, s.ForSendCount(1))
	require.Equal(t, 95, s.ForSendCount(2))
	require.Equal(t, 90, s.ForSendCount(3))
	require.Equal(t, 85, s.ForSendCount(4))
	require.Equal(t, 80, s.ForSendCount(5))
	// beyond the fifth attempt there is no further decay
	require.Equal(t, 80, s.ForSendCount(6))
	require.Equal(t, 80, s.ForSendCount(12))
}
