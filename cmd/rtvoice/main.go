// Command rtvoice talks to a realtime voice model from the terminal.
//
// Usage:
//
//	rtvoice [flags] <command> [args]
//
// Commands:
//
//	talk     - Start a full-duplex voice session with the default devices
//	serve    - Run the credential backend that mints session tokens
//	devices  - List audio devices
//	config   - Manage contexts and service configuration
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/cmd/rtvoice/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
