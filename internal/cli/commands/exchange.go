package commands

import (
	"BiomassLedger/internal/config"
	"BiomassLedger/internal/exchange"
	"context"
	"fmt"
)

type importCmd struct{}

func (importCmd) Name() string        { return "import" }
func (importCmd) Description() string { return "Load tabular files from a directory (all or nothing)" }
func (importCmd) Usage() string       { return "import <dir>" }
func (importCmd) Group() Group        { return GroupExchange }

func (importCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	e, closeFn, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	stats, err := e.exchange.Import(ctx, args[0])
	if err != nil {
		return err
	}
	printStats(stats, "Imported")
	return nil
}

type exportCmd struct{}

func (exportCmd) Name() string        { return "export" }
func (exportCmd) Description() string { return "Write the whole store as tabular files" }
func (exportCmd) Usage() string       { return "export <dir>" }
func (exportCmd) Group() Group        { return GroupExchange }

func (exportCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	e, closeFn, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	stats, err := e.exchange.Export(ctx, args[0])
	if err != nil {
		return err
	}
	printStats(stats, "Exported")
	return nil
}

func printStats(s exchange.Stats, verb string) {
	fmt.Fprintf(Out, "%s: %d identities, %d customers, %d materials, %d records, %d documents\n",
		verb, s.Identities, s.Customers, s.Materials, s.Records, s.Artifacts)
}

func init() {
	RegisterCmd(importCmd{})
	RegisterCmd(exportCmd{})
}
