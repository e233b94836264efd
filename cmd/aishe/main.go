// AISHE command-line client.
//
// Configuration comes from the environment (see pkg/config); flags on the
// root command override it:
//
//	aishe ask "What is Go?"          ask a question, cache-first
//	aishe health                     query the server's health endpoint
//	aishe cache flush                drop every cached answer
//	aishe serve                      run the health-probing sidecar
package main

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/abdhe/aishe-client/pkg/aishe"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errorHint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(1)
	}
}

// errorHint returns operator guidance for failures that mean the server is
// not up.
func errorHint(err error) string {
	var opErr *net.OpError
	switch {
	case errors.Is(err, aishe.ErrUnreachable):
		return "The AISHE server did not answer in time. Make sure it is running (e.g. in Docker on port 8000) or raise --timeout."
	case errors.As(err, &opErr):
		return "Could not connect to the AISHE server. Make sure the server is running in Docker."
	}
	return ""
}
