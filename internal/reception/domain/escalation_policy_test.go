package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLevelFor_Boundaries(t *testing.T) {
	tests := []struct {
		minutes int
		want    int
	}{
		{0, 0},
		{1, 0},
		{14, 0},
		{15, 1},
		{30, 1},
		{59, 1},
		{60, 2},
		{120, 2},
		{179, 2},
		{180, 3},
		{1440, 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.minutes), "minutes=%d", tt.minutes)
	}
}

func TestLevelFor_MonotonicallyNonDecreasing(t *testing.T) {
	prev := LevelFor(0)
	for m := 1; m <= 400; m++ {
		level := LevelFor(m)
		assert.GreaterOrEqual(t, level, prev, "level regressed at minute %d", m)
		prev = level
	}
}

func TestShouldAutoHandoff(t *testing.T) {
	tests := []struct {
		name   string
		level  int
		status Status
		want   bool
	}{
		{"pending below threshold", 1, StatusPending, false},
		{"pending at threshold", 2, StatusPending, true},
		{"options sent at threshold", 2, StatusOptionsSent, true},
		{"pending above threshold", 3, StatusPending, true},
		{"already handed off", 3, StatusHandoff, false},
		{"confirmed is terminal", 3, StatusConfirmed, false},
		{"closed is terminal", 3, StatusClosed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldAutoHandoff(tt.level, tt.status))
		})
	}
}

func TestClampLevel(t *testing.T) {
	assert.Equal(t, 0, ClampLevel(-3))
	assert.Equal(t, 0, ClampLevel(0))
	assert.Equal(t, 3, ClampLevel(3))
	assert.Equal(t, 5, ClampLevel(5))
	assert.Equal(t, 5, ClampLevel(42))
}

func TestNormalizeLevel_GarbageInput(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int
	}{
		{"int", 2, 2},
		{"int64", int64(3), 3},
		{"json float", float64(1), 1},
		{"overflow float", float64(99), 5},
		{"negative float", float64(-7), 0},
		{"NaN", math.NaN(), 0},
		{"positive Inf", math.Inf(1), 0},
		{"negative Inf", math.Inf(-1), 0},
		{"string", "high", 0},
		{"nil", nil, 0},
		{"map", map[string]any{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLevel(tt.input))
		})
	}
}

func TestOverdueMinutes(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, OverdueMinutes(now, now), "just due reports one minute")
	assert.Equal(t, 1, OverdueMinutes(now, now.Add(-30*time.Second)))
	assert.Equal(t, 1, OverdueMinutes(now, now.Add(-90*time.Second)), "floors to whole minutes")
	assert.Equal(t, 65, OverdueMinutes(now, now.Add(-65*time.Minute)))
	assert.Equal(t, 1, OverdueMinutes(now, now.Add(time.Hour)), "future deadline never goes negative")
}
