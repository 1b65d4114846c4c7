// Command aiesim runs demonstration programs on a simulated tile array.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/aiesim/aiesim/cmd"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
