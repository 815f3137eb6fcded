package commands

import (
	"BiomassLedger/internal/config"
	"context"
	"errors"
	"fmt"
)

// Коды завершения процесса.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Dispatch выполняет команду из args и возвращает код завершения.
// args: аргументы после глобальных флагов (flag.Args()).
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	name := args[0]
	if name == "help" || isHelpFlag(name) {
		return help(args[1:])
	}

	c, ok := Get(name)
	if !ok {
		fmt.Fprintf(Err, "Unknown command: %s\n\n", name)
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	// lscli import -h
	for _, a := range args[1:] {
		if isHelpFlag(a) {
			fmt.Fprint(Out, formatUsage(c))
			return ExitOK
		}
	}

	err := c.Run(ctx, cfg, args[1:])
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		fmt.Fprint(Err, formatUsage(c))
		return ExitUsage
	default:
		Logger.Errorw("command failed", "command", c.Name(), "error", err)
		fmt.Fprintf(Err, "%s error: %v\n", c.Name(), err)
		return ExitFailure
	}
}

// help: lscli help [command]
func help(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitOK
	}
	c, ok := Get(args[0])
	if !ok {
		fmt.Fprintf(Err, "Unknown command: %s\n\n", args[0])
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}
	fmt.Fprint(Out, formatUsage(c))
	return ExitOK
}

func isHelpFlag(a string) bool {
	return a == "-h" || a == "--help" || a == "-help"
}
