package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/vbx/internal/app/snapshotlist"
)

// SnapshotListCommand lists the snapshot tree of a machine.
type SnapshotListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	nameOrID string
	format   string
}

// NewSnapshotListCommand returns the snapshot list command.
func NewSnapshotListCommand(rootCmd *RootCommand, snapshotCmd *kingpin.CmdClause) *SnapshotListCommand {
	c := &SnapshotListCommand{rootCmd: rootCmd}

	c.Cmd = snapshotCmd.Command("list", "List the snapshots of a machine.")
	c.Cmd.Arg("name-or-id", "Machine name or UUID.").Required().StringVar(&c.nameOrID)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c SnapshotListCommand) Name() string { return c.Cmd.FullCommand() }

func (c SnapshotListCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, h, err := c.rootCmd.connect(ctx)
	if err != nil {
		return err
	}
	defer h.Close()
	defer client.Close()

	svc, err := snapshotlist.NewService(snapshotlist.ServiceConfig{
		Client: client,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	snapshots, err := svc.Run(ctx, snapshotlist.Request{NameOrID: c.nameOrID})
	if err != nil {
		return fmt.Errorf("could not list snapshots: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintSnapshotList(snapshots); err != nil {
		return fmt.Errorf("could not print snapshot list: %w", err)
	}

	return nil
}
