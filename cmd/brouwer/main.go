package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/brouwer-lang/brouwer/cmd"
)

func main() {
	os.Exit(run(cmd.Execute, os.Stderr))
}

// run executes the command line and maps its outcome to an exit status.
// A panic is reported with its stack and exits with cmd.ExitPanic.
func run(execute func() error, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "panic: %v\n%s", r, debug.Stack())
			code = cmd.ExitPanic
		}
	}()

	err := execute()
	if err != nil && !cmd.Silent(err) {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return cmd.ExitCode(err)
}
