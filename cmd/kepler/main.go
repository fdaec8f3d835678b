// Command kepler is the terminal entry point: it parses the command line,
// builds and runs a television.Television, and maps the result onto an
// exit code, the same shape cmd/peco/peco.go's main() follows (parse ->
// defer os.Exit(st) -> recover a panic into an error status).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/kepler-cli/kepler/cliopts"
	"github.com/kepler-cli/kepler/television"
)

func main() {
	os.Exit(run())
}

func run() (st int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "kepler: %v\n", r)
			st = 2
		}
	}()

	opts := &cliopts.Options{}
	opts.ListChannels.Stdout = os.Stdout
	opts.Init.Stdout = os.Stdout

	parser := flags.NewParser(opts, flags.Default)
	parser.SubcommandsOptional = true

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		return 2
	}

	if parser.Active != nil {
		return 0
	}

	if err := opts.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	tv := television.New(opts)
	ctx := context.Background()
	if err := tv.Setup(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	code, err := tv.Run(ctx)
	if err != nil && code == television.ExitError {
		fmt.Fprintln(os.Stderr, err)
	}
	return code
}
