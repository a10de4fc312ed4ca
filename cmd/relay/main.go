// Runs an issuer and a receiver side by side: the issuer toggles one line
// once per second while the receiver watches it for edges and mirrors each
// transition onto a LED line by flipping it.
//
// Wire the issuer pin (default GPIO 16) to the receiver pin (default
// GPIO 21) with a jumper; the LED sits on the controller pin (default
// GPIO 17).
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
	issuerPin := rig.Pin(dotEnv, "ISSUER_PIN", 16)
	receiverPin := rig.Pin(dotEnv, "RECEIVER_PIN", 21)
	controllerPin := rig.Pin(dotEnv, "CONTROLLER_PIN", 17)

	r, err := rig.New(rig.ChipName(dotEnv), []int{issuerPin, receiverPin, controllerPin})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}
	defer r.Cleanup()

	issuer := &task.Toggler{
		Offset: issuerPin,
		Tag:    "issuer",
		Period: time.Second,
		Count:  20,
	}
	receiver := &task.Relay{
		InOffset:  receiverPin,
		OutOffset: controllerPin,
		InTag:     "receiver",
		OutTag:    "controller",
		Count:     10,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run(issuer, receiver)
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
