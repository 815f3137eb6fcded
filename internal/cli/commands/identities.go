package commands

import (
	"BiomassLedger/internal/config"
	"BiomassLedger/internal/model"
	"context"
	"fmt"
	"time"
)

// listCmd список заявок с заданным статусом.
type listCmd struct {
	name   string
	status model.Status
	list   func(ctx context.Context, e *env) ([]model.Identity, error)
}

func (c listCmd) Name() string        { return c.name }
func (c listCmd) Description() string { return fmt.Sprintf("List %s identities", c.status) }
func (c listCmd) Usage() string       { return c.name }
func (c listCmd) Group() Group        { return GroupIdentities }

func (c listCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	e, closeFn, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	list, err := c.list(ctx, e)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "No identities")
		return nil
	}
	for _, id := range list {
		fmt.Fprintf(Out, "%-32s %-9s %s\n", id.Email, id.Status, id.CreatedAt.UTC().Format(time.DateOnly))
	}
	return nil
}

// actionCmd действие администратора над одной учётной записью.
type actionCmd struct {
	name, desc, done string
	run              func(ctx context.Context, e *env, email string) error
}

func (c actionCmd) Name() string        { return c.name }
func (c actionCmd) Description() string { return c.desc }
func (c actionCmd) Usage() string       { return c.name + " <email>" }
func (c actionCmd) Group() Group        { return GroupIdentities }

func (c actionCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return ErrUsage
	}
	e, closeFn, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := c.run(ctx, e, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(Out, "%s: %s\n", c.done, model.NormalizeEmail(args[0]))
	return nil
}

func init() {
	RegisterCmd(listCmd{
		name:   "pending",
		status: model.StatusPending,
		list: func(ctx context.Context, e *env) ([]model.Identity, error) {
			return e.approval.ListPending(ctx, e.admin)
		},
	})
	RegisterCmd(listCmd{
		name:   "approved",
		status: model.StatusApproved,
		list: func(ctx context.Context, e *env) ([]model.Identity, error) {
			return e.approval.ListApproved(ctx, e.admin)
		},
	})
	RegisterCmd(actionCmd{
		name: "approve",
		desc: "Approve a pending registration and notify the supplier",
		done: "Approved",
		run: func(ctx context.Context, e *env, email string) error {
			return e.approval.Approve(ctx, email)
		},
	})
	RegisterCmd(actionCmd{
		name: "reject",
		desc: "Reject (remove) a pending registration",
		done: "Rejected",
		run: func(ctx context.Context, e *env, email string) error {
			return e.approval.Reject(ctx, email)
		},
	})
	RegisterCmd(actionCmd{
		name: "delete",
		desc: "Delete an identity with its catalog and ledger",
		done: "Deleted",
		run: func(ctx context.Context, e *env, email string) error {
			return e.approval.Delete(ctx, e.admin, email)
		},
	})
}
