// Blinks two LEDs concurrently: each toggler drives its own line at its own
// period while the chip handle is shared read-only between them.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/denis-beurive/cion-rpi/internal/log"
	"github.com/denis-beurive/cion-rpi/internal/rig"
	"github.com/denis-beurive/cion-rpi/internal/task"
)

func run(args []string) int {
	if os.Getenv("DEBUG") != "" {
		log.EnableDebug()
	}
	// Handle externally generated OS exit signals
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	dotEnv := rig.ReadEnv()
	greenPin := rig.Pin(dotEnv, "GREEN_LED_PIN", 17)
	redPin := rig.Pin(dotEnv, "RED_LED_PIN", 16)

	r, err := rig.New(rig.ChipName(dotEnv), []int{greenPin, redPin})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}
	defer r.Cleanup()

	green := &task.Toggler{
		Offset: greenPin,
		Tag:    "green",
		Period: 500 * time.Millisecond,
		Count:  50,
	}
	red := &task.Toggler{
		Offset: redPin,
		Tag:    "red",
		Period: time.Second / 3,
		Count:  50,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run(green, red)
	}()

	select {
	case sig := <-sigCh:
		fmt.Fprintf(os.Stderr, "ERROR: received signal: %v\n", sig)
		return 1
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			return 1
		}
	}
	log.Println("Exiting successfully")
	return 0
}

func main() {
	os.Exit(run(os.Args))
}
