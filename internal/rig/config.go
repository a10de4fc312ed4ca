package rig

import (
	"strconv"

	"github.com/joho/godotenv"

	"github.com/denis-beurive/cion-rpi/internal/log"
)

// ReadEnv loads the .env file from the working directory. A missing file is
// not an error: every setting has a compiled-in default.
func ReadEnv() map[string]string {
	dotEnv, err := godotenv.Read()
	if err != nil {
		log.Debugf("no .env file, using defaults: %v", err)
		return map[string]string{}
	}
	return dotEnv
}

// Pin looks a line id up in the environment map, falling back to the given
// default when the key is absent or malformed.
func Pin(dotEnv map[string]string, key string, fallback int) int {
	val, ok := dotEnv[key]
	if !ok {
		return fallback
	}
	pin, err := strconv.Atoi(val)
	if err != nil {
		log.Warnf("bad value %q for %s in .env, using %d", val, key, fallback)
		return fallback
	}
	log.Printf("Found pin %d for %s in .env ...\n", pin, key)
	return pin
}

// ChipName returns the chip to open, CHIP_NAME or gpiochip0.
func ChipName(dotEnv map[string]string) string {
	if name, ok := dotEnv["CHIP_NAME"]; ok {
		return name
	}
	return "gpiochip0"
}
