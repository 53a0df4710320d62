// Command solfa is an ear-training metronome and exercise player.
//
// Usage:
//
//	solfa [flags] <command> [args]
//
// Commands:
//
//	metronome - play a click track until interrupted
//	exercise  - generate or play an interval, chord or progression
//	render    - write a metronome or exercise to a WAV file
//	config    - show or change saved preferences
//
// Configuration:
//
//	Preferences live in ~/.solfa/config.yaml.
package main

import (
	"fmt"
	"os"

	"github.com/cbegin/solfa-go/cmd/solfa/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
