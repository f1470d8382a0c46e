package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/vbx/internal/app/snapshotremove"
)

// SnapshotRmCommand removes a snapshot.
type SnapshotRmCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	nameOrID         string
	snapshotNameOrID string
	recursive        bool
}

// NewSnapshotRmCommand returns the snapshot rm command.
func NewSnapshotRmCommand(rootCmd *RootCommand, snapshotCmd *kingpin.CmdClause) *SnapshotRmCommand {
	c := &SnapshotRmCommand{rootCmd: rootCmd}

	c.Cmd = snapshotCmd.Command("rm", "Remove a snapshot.")
	c.Cmd.Arg("name-or-id", "Machine name or UUID.").Required().StringVar(&c.nameOrID)
	c.Cmd.Arg("snapshot", "Snapshot name or UUID.").Required().StringVar(&c.snapshotNameOrID)
	c.Cmd.Flag("recursive", "Remove the children snapshots too.").BoolVar(&c.recursive)

	return c
}

func (c SnapshotRmCommand) Name() string { return c.Cmd.FullCommand() }

func (c SnapshotRmCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, h, err := c.rootCmd.connect(ctx)
	if err != nil {
		return err
	}
	defer h.Close()
	defer client.Close()

	svc, err := snapshotremove.NewService(snapshotremove.ServiceConfig{
		Client: client,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	snapshot, err := svc.Run(ctx, snapshotremove.Request{
		NameOrID:         c.nameOrID,
		SnapshotNameOrID: c.snapshotNameOrID,
		Recursive:        c.recursive,
	})
	if err != nil {
		return fmt.Errorf("could not remove snapshot: %w", err)
	}

	msg := fmt.Sprintf("Removed snapshot: %s (%s)", snapshot.Name, snapshot.ID)
	if err := newPrinter(formatTable, c.rootCmd.Stdout).PrintMessage(msg); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
