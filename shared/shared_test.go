package shared

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultThresholdsAreValid(t *testing.T) {
	th := DefaultThresholds()

	assert := assert.New(t)
	assert.Equal(0.4, th.Onset)
	assert.Equal(0.5, th.Silence)
	assert.NoError(th.Validate())
}

func TestThresholdBoundsAreInclusive(t *testing.T) {
	assert.NoError(t, Thresholds{Onset: MinThreshold, Silence: MaxThreshold}.Validate())
}

func TestThresholdOutOfRange(t *testing.T) {
	cases := []Thresholds{
		{Onset: 0.05, Silence: 0.5},
		{Onset: 0.4, Silence: 0.95},
		{Onset: 0, Silence: 1},
	}
	for _, th := range cases {
		err := th.Validate()
		if !errors.Is(err, ErrThresholdRange) {
			t.Errorf("expected range error for %+v, got %v", th, err)
		}
	}
}

func TestStatusText(t *testing.T) {
	b, err := Failed.MarshalText()

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal("failed", string(b))
	assert.Equal("skipped", Skipped.String())
}

func TestStatusUnmarshal(t *testing.T) {
	var s Status
	assert := assert.New(t)
	assert.NoError(s.UnmarshalText([]byte("skipped")))
	assert.Equal(Skipped, s)
	assert.Error(s.UnmarshalText([]byte("pending")))
}

func TestThresholdNaN(t *testing.T) {
	assert := assert.New(t)
	assert.ErrorIs(Thresholds{Onset: math.NaN(), Silence: 0.5}.Validate(), ErrThresholdRange)
	assert.ErrorIs(Thresholds{Onset: 0.4, Silence: math.NaN()}.Validate(), ErrThresholdRange)
}
