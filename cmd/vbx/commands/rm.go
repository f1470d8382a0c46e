package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/vbx/internal/app/remove"
	"github.com/slok/vbx/internal/model"
)

const (
	cleanupUnregister = "unregister"
	cleanupDetach     = "detach"
	cleanupDisks      = "disks"
	cleanupFull       = "full"
)

var cleanupModes = map[string]model.CleanupMode{
	cleanupUnregister: model.CleanupModeUnregisterOnly,
	cleanupDetach:     model.CleanupModeDetachAllReturnNone,
	cleanupDisks:      model.CleanupModeDetachAllReturnHardDisksOnly,
	cleanupFull:       model.CleanupModeFull,
}

type RemoveCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	nameOrID string
	cleanup  string
}

// NewRemoveCommand returns the remove command.
func NewRemoveCommand(rootCmd *RootCommand, app *kingpin.Application) *RemoveCommand {
	c := &RemoveCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("rm", "Unregister and delete a machine.")
	c.Cmd.Arg("name-or-id", "Machine name or UUID.").Required().StringVar(&c.nameOrID)
	c.Cmd.Flag("cleanup", "What is detached and deleted with the machine.").Default(cleanupFull).
		EnumVar(&c.cleanup, cleanupUnregister, cleanupDetach, cleanupDisks, cleanupFull)

	return c
}

func (c RemoveCommand) Name() string { return c.Cmd.FullCommand() }

func (c RemoveCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, h, err := c.rootCmd.connect(ctx)
	if err != nil {
		return err
	}
	defer h.Close()
	defer client.Close()

	svc, err := remove.NewService(remove.ServiceConfig{
		Client: client,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	m, err := svc.Run(ctx, remove.Request{
		NameOrID: c.nameOrID,
		Mode:     cleanupModes[c.cleanup],
	})
	if err != nil {
		return fmt.Errorf("could not remove machine: %w", err)
	}

	msg := fmt.Sprintf("Removed machine: %s", m.Name)
	if err := newPrinter(formatTable, c.rootCmd.Stdout).PrintMessage(msg); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
