package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tempah/internal/domains/booking/model"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from model.Status
		to   model.Status
		want bool
	}{
		{name: "pending to confirmed", from: model.StatusPending, to: model.StatusConfirmed, want: true},
		{name: "pending to cancelled", from: model.StatusPending, to: model.StatusCancelled, want: true},
		{name: "pending to in progress", from: model.StatusPending, to: model.StatusInProgress, want: false},
		{name: "pending to completed", from: model.StatusPending, to: model.StatusCompleted, want: false},
		{name: "confirmed to in progress", from: model.StatusConfirmed, to: model.StatusInProgress, want: true},
		{name: "confirmed to cancelled", from: model.StatusConfirmed, to: model.StatusCancelled, want: true},
		{name: "confirmed to completed", from: model.StatusConfirmed, to: model.StatusCompleted, want: false},
		{name: "in progress to completed", from: model.StatusInProgress, to: model.StatusCompleted, want: true},
		{name: "in progress to cancelled", from: model.StatusInProgress, to: model.StatusCancelled, want: true},
		{name: "completed to cancelled", from: model.StatusCompleted, to: model.StatusCancelled, want: false},
		{name: "cancelled to confirmed", from: model.StatusCancelled, to: model.StatusConfirmed, want: false},
		{name: "completed is dead end", from: model.StatusCompleted, to: model.StatusPending, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, model.StatusCompleted.Terminal())
	assert.True(t, model.StatusCancelled.Terminal())
	assert.False(t, model.StatusPending.Terminal())
	assert.False(t, model.StatusConfirmed.Terminal())
	assert.False(t, model.StatusInProgress.Terminal())
	assert.False(t, model.Status("UNKNOWN").Terminal())
}

func TestActorRole_Valid(t *testing.T) {
	assert.True(t, model.RoleCustomer.Valid())
	assert.True(t, model.RoleProvider.Valid())
	assert.True(t, model.RoleAdmin.Valid())
	assert.True(t, model.RoleSystem.Valid())
	assert.False(t, model.ActorRole("GUEST").Valid())
}

func TestComputePunctuality(t *testing.T) {
	scheduled := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	tolerance := 5 * time.Minute

	tests := []struct {
		name      string
		actual    time.Time
		want      model.Punctuality
		wantDelay int
	}{
		{name: "exactly on time", actual: scheduled, want: model.PunctualityOnTime, wantDelay: 0},
		{name: "three minutes late is on time", actual: scheduled.Add(3 * time.Minute), want: model.PunctualityOnTime, wantDelay: 0},
		{name: "five minutes late is on time", actual: scheduled.Add(5 * time.Minute), want: model.PunctualityOnTime, wantDelay: 0},
		{name: "four minutes early is on time", actual: scheduled.Add(-4 * time.Minute), want: model.PunctualityOnTime, wantDelay: 0},
		{name: "ten minutes early", actual: scheduled.Add(-10 * time.Minute), want: model.PunctualityEarly, wantDelay: 0},
		{name: "twenty minutes late", actual: scheduled.Add(20 * time.Minute), want: model.PunctualityLate, wantDelay: 20},
		{name: "six minutes late", actual: scheduled.Add(6 * time.Minute), want: model.PunctualityLate, wantDelay: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, delay := model.ComputePunctuality(scheduled, tt.actual, tolerance)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantDelay, delay)
		})
	}
}

func TestDurationMinutes(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 60, model.DurationMinutes(start, start.Add(time.Hour)))
	assert.Equal(t, 90, model.DurationMinutes(start, start.Add(90*time.Minute)))
	assert.Equal(t, 0, model.DurationMinutes(start, start.Add(-time.Minute)))
}

func TestApplyAdjustment(t *testing.T) {
	assert.InDelta(t, 100.0, model.ApplyAdjustment(100, nil), 0.001)

	discount := -15.0
	assert.InDelta(t, 85.0, model.ApplyAdjustment(100, &discount), 0.001)

	surcharge := 25.5
	assert.InDelta(t, 125.5, model.ApplyAdjustment(100, &surcharge), 0.001)
}

func TestOverlaps(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd time.Time
		want                           bool
	}{
		{name: "partial overlap", aStart: at(9, 0), aEnd: at(10, 0), bStart: at(9, 30), bEnd: at(10, 30), want: true},
		{name: "contained", aStart: at(9, 0), aEnd: at(11, 0), bStart: at(9, 30), bEnd: at(10, 0), want: true},
		{name: "identical", aStart: at(9, 0), aEnd: at(10, 0), bStart: at(9, 0), bEnd: at(10, 0), want: true},
		{name: "adjacent does not overlap", aStart: at(9, 0), aEnd: at(10, 0), bStart: at(10, 0), bEnd: at(11, 0), want: false},
		{name: "disjoint", aStart: at(9, 0), aEnd: at(10, 0), bStart: at(13, 0), bEnd: at(14, 0), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			assert.Equal(t, tt.want, model.Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}
