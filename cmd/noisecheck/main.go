// Command noisecheck runs the correlation and dv/v toolkit on synthetic
// data and reports whether the known answers come back.
//
// Usage:
//
//	noisecheck [--config file.yaml] [--debug] <command> [flags]
//
// Examples:
//
//	noisecheck dvv --dvv -0.2
//	noisecheck dvv --method stretching --method mwcs --pairs 8
//	noisecheck ccf --shift 2.5 --hours 1
package main

import "os"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
