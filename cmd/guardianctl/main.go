// Package main implements guardianctl, the operator tool for the BlockID
// Guardian anchor chain. It opens the chain directly, so run it against a
// copy (or a stopped server): LevelDB allows one process at a time.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
