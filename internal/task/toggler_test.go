package task

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denis-beurive/cion-rpi/internal/gpio"
	"github.com/denis-beurive/cion-rpi/internal/gpio/sim"
	"github.com/denis-beurive/cion-rpi/internal/lines"
)

func TestTogglerAlternation(t *testing.T) {
	chip := sim.NewChip()
	reg := lines.NewRegistry(chip)

	toggler := &Toggler{Offset: 16, Tag: "green", Period: 0, Count: 5}
	require.NoError(t, toggler.Run(reg))

	// Five cycles 0,1,0,1,0 then the final forced 0 before release.
	assert.Equal(t, []int{0, 1, 0, 1, 0, 0}, chip.Values(16))
	assert.False(t, chip.Claimed(16))
	assert.Equal(t, 1, chip.InputRequests(16))
}

func TestTogglerScenarioThreeCycles(t *testing.T) {
	chip := sim.NewChip()
	reg := lines.NewRegistry(chip)

	toggler := &Toggler{Offset: 16, Tag: "green", Period: time.Millisecond, Count: 3}
	require.NoError(t, toggler.Run(reg))

	assert.Equal(t, []int{0, 1, 0, 0}, chip.Values(16))
}

func TestTogglerWaitsFullPeriodOnInterruption(t *testing.T) {
	chip := sim.NewChip()
	reg := lines.NewRegistry(chip)

	const period = 40 * time.Millisecond
	toggler := &Toggler{Offset: 16, Tag: "green", Period: period, Count: 2}

	// Sleep only a quarter of what was asked for, like a wait interrupted
	// by a signal. The toggler must keep waiting for the remainder.
	interruptions := 0
	toggler.SetSleep(func(d time.Duration) {
		interruptions++
		time.Sleep(d / 4)
	})

	start := time.Now()
	require.NoError(t, toggler.Run(reg))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 2*period)
	assert.Greater(t, interruptions, 2)
}

func TestTogglerAcquisitionFailureIsFatal(t *testing.T) {
	chip := sim.NewChip()
	reg := lines.NewRegistry(chip)
	chip.FailAcquire(16, errors.New("device or resource busy"))

	toggler := &Toggler{Offset: 16, Tag: "green", Period: 0, Count: 5}
	err := toggler.Run(reg)

	var acqErr *gpio.AcquisitionError
	require.True(t, errors.As(err, &acqErr))
	assert.Equal(t, "green", acqErr.Consumer)
	assert.Empty(t, chip.Values(16))
	assert.NoError(t, reg.ReleaseAll())
}

func TestTogglerZeroCycles(t *testing.T) {
	chip := sim.NewChip()
	reg := lines.NewRegistry(chip)

	toggler := &Toggler{Offset: 16, Tag: "green", Period: 0, Count: 0}
	require.NoError(t, toggler.Run(reg))

	// Only the final forced 0; the line still ends up released as input.
	assert.Equal(t, []int{0}, chip.Values(16))
	assert.False(t, chip.Claimed(16))
	assert.Equal(t, 1, chip.InputRequests(16))
}
