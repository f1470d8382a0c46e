package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/vbx/internal/app/snapshotrestore"
)

// SnapshotRestoreCommand restores a machine to a snapshot.
type SnapshotRestoreCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	nameOrID         string
	snapshotNameOrID string
}

// NewSnapshotRestoreCommand returns the snapshot restore command.
func NewSnapshotRestoreCommand(rootCmd *RootCommand, snapshotCmd *kingpin.CmdClause) *SnapshotRestoreCommand {
	c := &SnapshotRestoreCommand{rootCmd: rootCmd}

	c.Cmd = snapshotCmd.Command("restore", "Restore a powered off machine to a snapshot.")
	c.Cmd.Arg("name-or-id", "Machine name or UUID.").Required().StringVar(&c.nameOrID)
	c.Cmd.Arg("snapshot", "Snapshot name or UUID.").Required().StringVar(&c.snapshotNameOrID)

	return c
}

func (c SnapshotRestoreCommand) Name() string { return c.Cmd.FullCommand() }

func (c SnapshotRestoreCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, h, err := c.rootCmd.connect(ctx)
	if err != nil {
		return err
	}
	defer h.Close()
	defer client.Close()

	svc, err := snapshotrestore.NewService(snapshotrestore.ServiceConfig{
		Client: client,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	m, err := svc.Run(ctx, snapshotrestore.Request{
		NameOrID:         c.nameOrID,
		SnapshotNameOrID: c.snapshotNameOrID,
	})
	if err != nil {
		return fmt.Errorf("could not restore snapshot: %w", err)
	}

	msg := fmt.Sprintf("Restored machine %s to snapshot %s (state: %s)", m.Name, c.snapshotNameOrID, m.State)
	if err := newPrinter(formatTable, c.rootCmd.Stdout).PrintMessage(msg); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
