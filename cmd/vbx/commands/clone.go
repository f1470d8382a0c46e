package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/vbx/internal/app/clone"
	"github.com/slok/vbx/internal/model"
)

var cloneModes = map[string]model.CloneMode{
	"machine":  model.CloneModeMachineState,
	"children": model.CloneModeMachineAndChildStates,
	"all":      model.CloneModeAllStates,
}

type CloneCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	nameOrID      string
	targetName    string
	mode          string
	keepDiskNames bool
}

// NewCloneCommand returns the clone command.
func NewCloneCommand(rootCmd *RootCommand, app *kingpin.Application) *CloneCommand {
	c := &CloneCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("clone", "Clone a machine into a new registered machine.")
	c.Cmd.Arg("name-or-id", "Source machine name or UUID.").Required().StringVar(&c.nameOrID)
	c.Cmd.Arg("target-name", "New machine name ([a-zA-Z0-9 ._-]).").Required().StringVar(&c.targetName)
	c.Cmd.Flag("mode", "Snapshots to copy (machine, children, all).").Default("machine").EnumVar(&c.mode, "machine", "children", "all")
	c.Cmd.Flag("keep-disk-names", "Keep the source disk file names.").BoolVar(&c.keepDiskNames)

	return c
}

func (c CloneCommand) Name() string { return c.Cmd.FullCommand() }

func (c CloneCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, h, err := c.rootCmd.connect(ctx)
	if err != nil {
		return err
	}
	defer h.Close()
	defer client.Close()

	svc, err := clone.NewService(clone.ServiceConfig{
		Client: client,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	m, err := svc.Run(ctx, clone.Request{
		NameOrID:      c.nameOrID,
		TargetName:    c.targetName,
		Mode:          cloneModes[c.mode],
		KeepDiskNames: c.keepDiskNames,
	})
	if err != nil {
		return fmt.Errorf("could not clone machine: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Machine cloned successfully!\n")
	fmt.Fprintf(c.rootCmd.Stdout, "  ID:         %s\n", m.ID)
	fmt.Fprintf(c.rootCmd.Stdout, "  Name:       %s\n", m.Name)
	fmt.Fprintf(c.rootCmd.Stdout, "  Snapshots:  %d\n", m.SnapshotCount)
	for _, media := range m.Media {
		fmt.Fprintf(c.rootCmd.Stdout, "  Disk:       %s\n", media)
	}

	return nil
}
