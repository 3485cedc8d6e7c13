// Command czitool is a small reference consumer of the czi library,
// exercising the reader, writer, and accessor packages from the command
// line. It is a demo binary, not part of the library's public contract.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "czitool: %v\n", err)
		os.Exit(1)
	}
}
