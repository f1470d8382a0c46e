package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/vbx/internal/app/snapshotcreate"
)

// SnapshotCreateCommand takes snapshots of machines.
type SnapshotCreateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	nameOrID     string
	snapshotName string
	description  string
	pause        bool
}

// NewSnapshotCreateCommand returns the snapshot create command.
func NewSnapshotCreateCommand(rootCmd *RootCommand, snapshotCmd *kingpin.CmdClause) *SnapshotCreateCommand {
	c := &SnapshotCreateCommand{rootCmd: rootCmd}

	c.Cmd = snapshotCmd.Command("create", "Take a snapshot of a machine.")
	c.Cmd.Arg("name-or-id", "Machine name or UUID.").Required().StringVar(&c.nameOrID)
	c.Cmd.Arg("snapshot-name", "Optional snapshot name ([a-zA-Z0-9 ._-]).").StringVar(&c.snapshotName)
	c.Cmd.Flag("description", "Snapshot description.").StringVar(&c.description)
	c.Cmd.Flag("pause", "Pause a running machine while the snapshot is taken.").BoolVar(&c.pause)

	return c
}

func (c SnapshotCreateCommand) Name() string { return c.Cmd.FullCommand() }

func (c SnapshotCreateCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, h, err := c.rootCmd.connect(ctx)
	if err != nil {
		return err
	}
	defer h.Close()
	defer client.Close()

	svc, err := snapshotcreate.NewService(snapshotcreate.ServiceConfig{
		Client: client,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	snapshot, err := svc.Run(ctx, snapshotcreate.Request{
		NameOrID:     c.nameOrID,
		SnapshotName: c.snapshotName,
		Description:  c.description,
		Pause:        c.pause,
	})
	if err != nil {
		return fmt.Errorf("could not create snapshot: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Snapshot created successfully!\n")
	fmt.Fprintf(c.rootCmd.Stdout, "  ID:       %s\n", snapshot.ID)
	fmt.Fprintf(c.rootCmd.Stdout, "  Name:     %s\n", snapshot.Name)
	fmt.Fprintf(c.rootCmd.Stdout, "  Machine:  %s\n", snapshot.MachineID)
	fmt.Fprintf(c.rootCmd.Stdout, "  Online:   %t\n", snapshot.Online)

	return nil
}
