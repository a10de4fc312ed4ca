package rig

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denis-beurive/cion-rpi/internal/gpio/sim"
	"github.com/denis-beurive/cion-rpi/internal/lines"
	"github.com/denis-beurive/cion-rpi/internal/task"
)

type funcTask struct {
	name string
	run  func(*lines.Registry) error
}

func (t *funcTask) Name() string                  { return t.name }
func (t *funcTask) Run(reg *lines.Registry) error { return t.run(reg) }

func TestRunAllTasksComplete(t *testing.T) {
	chip := sim.NewChip()
	r := NewWithChip(chip, []int{16, 17})

	green := &task.Toggler{Offset: 16, Tag: "green", Period: 0, Count: 3}
	red := &task.Toggler{Offset: 17, Tag: "red", Period: 0, Count: 2}

	require.NoError(t, r.Run(green, red))
	assert.Equal(t, []int{0, 1, 0, 0}, chip.Values(16))
	assert.Equal(t, []int{0, 1, 0}, chip.Values(17))

	require.NoError(t, r.Cleanup())
	assert.Equal(t, 1, chip.CloseCount())
}

func TestRunFirstErrorWins(t *testing.T) {
	chip := sim.NewChip()
	r := NewWithChip(chip, nil)

	boom := &funcTask{name: "receiver", run: func(*lines.Registry) error {
		return errors.New("cannot set the line's mode to input")
	}}
	slow := &funcTask{name: "issuer", run: func(*lines.Registry) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	}}

	start := time.Now()
	err := r.Run(boom, slow)
	require.Error(t, err)
	// The failing task is named in the diagnostic and the rig does not
	// wait for the slow task to finish its cycles.
	assert.True(t, strings.HasPrefix(err.Error(), "receiver:"), err.Error())
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestCleanupIsIdempotent(t *testing.T) {
	chip := sim.NewChip()
	r := NewWithChip(chip, []int{16, 21})

	require.NoError(t, r.Cleanup())
	require.NoError(t, r.Cleanup())
	assert.Equal(t, 1, chip.CloseCount())
}

func TestCleanupResetsLinesToInput(t *testing.T) {
	chip := sim.NewChip()
	r := NewWithChip(chip, []int{16, 17, 21})

	require.NoError(t, r.Cleanup())
	for _, offset := range []int{16, 17, 21} {
		assert.Equal(t, 1, chip.InputRequests(offset), "offset %d", offset)
		assert.False(t, chip.Claimed(offset))
	}
}

func TestCleanupForceReleasesLeftovers(t *testing.T) {
	chip := sim.NewChip()
	r := NewWithChip(chip, []int{16})

	// A task that failed mid-run without releasing its line.
	_, err := r.Registry().AcquireOutput(16, "green", 0)
	require.NoError(t, err)

	require.NoError(t, r.Cleanup())
	assert.False(t, chip.Claimed(16))
	// The leftover release plus the input-mode reset.
	assert.Equal(t, 1, chip.InputRequests(16))
	assert.Equal(t, 1, chip.CloseCount())
}

func TestCleanupBestEffortOnResetFailure(t *testing.T) {
	chip := sim.NewChip()
	r := NewWithChip(chip, []int{16, 17})
	chip.FailAcquire(16, errors.New("device or resource busy"))

	err := r.Cleanup()
	require.Error(t, err)
	// The failure on 16 did not prevent resetting 17 or closing the chip.
	assert.Equal(t, 1, chip.InputRequests(17))
	assert.Equal(t, 1, chip.CloseCount())
}

func TestPinFallbacks(t *testing.T) {
	dotEnv := map[string]string{"GREEN_LED_PIN": "23", "RED_LED_PIN": "oops"}
	assert.Equal(t, 23, Pin(dotEnv, "GREEN_LED_PIN", 17))
	assert.Equal(t, 16, Pin(dotEnv, "RED_LED_PIN", 16))
	assert.Equal(t, 21, Pin(dotEnv, "RECEIVER_PIN", 21))
	assert.Equal(t, "gpiochip0", ChipName(dotEnv))
	assert.Equal(t, "gpiochip2", ChipName(map[string]string{"CHIP_NAME": "gpiochip2"}))
}
