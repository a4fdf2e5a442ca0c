package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"recycle-guide/internal/domain/entity"
)

func TestDecide_RecycledAboveThreshold(t *testing.T) {
	box := &entity.Rect{X: 10, Y: 10, Width: 40, Height: 40}
	state := Decide([]entity.Detection{
		{Label: "recycled", Confidence: 0.85, Region: box},
	}, DefaultThresholds())

	require.Equal(t, entity.StepDone, state.Step)
	require.Equal(t, entity.Rect{X: 10, Y: 10, Width: 40, Height: 40}, *state.Highlight)
}

func TestDecide_RecycledWinsOverOthers(t *testing.T) {
	box := &entity.Rect{X: 1, Y: 2, Width: 3, Height: 4}
	state := Decide([]entity.Detection{
		{Label: "on-position", Confidence: 0.99},
		{Label: "bottle", Confidence: 1},
		{Label: "recycled", Confidence: 0.81, Region: box},
	}, DefaultThresholds())

	require.Equal(t, entity.StepDone, state.Step)
	require.Equal(t, *box, *state.Highlight)
}

func TestDecide_OnPosition(t *testing.T) {
	state := Decide([]entity.Detection{
		{Label: "on-position", Confidence: 0.6},
	}, DefaultThresholds())

	require.Equal(t, entity.StepPosition, state.Step)
	require.Nil(t, state.Highlight)
}

func TestDecide_RecycledBelowThresholdFallsBackToPosition(t *testing.T) {
	state := Decide([]entity.Detection{
		{Label: "recycled", Confidence: 0.8, Region: &entity.Rect{}},
		{Label: "on-position", Confidence: 0.51},
	}, DefaultThresholds())

	require.Equal(t, entity.StepPosition, state.Step)
	require.Nil(t, state.Highlight)
}

func TestDecide_Align(t *testing.T) {
	cases := map[string][]entity.Detection{
		"empty":            nil,
		"below thresholds": {{Label: "recycled", Confidence: 0.5}, {Label: "on-position", Confidence: 0.5}},
		"unknown labels":   {{Label: "cup", Confidence: 0.99}},
	}

	for name, detections := range cases {
		t.Run(name, func(t *testing.T) {
			state := Decide(detections, DefaultThresholds())
			require.Equal(t, entity.StepAlign, state.Step)
			require.Nil(t, state.Highlight)
		})
	}
}

func TestDecide_Idempotent(t *testing.T) {
	detections := []entity.Detection{
		{Label: "recycled", Confidence: 0.9, Region: &entity.Rect{X: 5, Y: 5, Width: 5, Height: 5}},
	}
	first := Decide(detections, DefaultThresholds())
	second := Decide(detections, DefaultThresholds())

	require.True(t, first.Equal(second))
	require.NotSame(t, detections[0].Region, first.Highlight)
}

func TestDecide_CustomThresholds(t *testing.T) {
	state := Decide([]entity.Detection{
		{Label: "on-position", Confidence: 0.6},
	}, Thresholds{Done: 0.8, Position: 0.7})

	require.Equal(t, entity.StepAlign, state.Step)
}

func TestDecide_RecycledWithoutRegion(t *testing.T) {
	state := Decide([]entity.Detection{
		{Label: "recycled", Confidence: 0.9},
	}, DefaultThresholds())

	require.Equal(t, entity.StepDone, state.Step)
	require.Nil(t, state.Highlight)
}
