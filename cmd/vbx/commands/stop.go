package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/vbx/internal/app/stop"
)

// StopCommand powers off a running machine.
type StopCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	nameOrID string
}

// NewStopCommand returns the stop command.
func NewStopCommand(rootCmd *RootCommand, app *kingpin.Application) *StopCommand {
	c := &StopCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("stop", "Power off a running machine.")
	c.Cmd.Arg("name-or-id", "Machine name or UUID.").Required().StringVar(&c.nameOrID)

	return c
}

func (c StopCommand) Name() string { return c.Cmd.FullCommand() }

func (c StopCommand) Run(ctx context.Context) error {
	client, h, err := c.rootCmd.connect(ctx)
	if err != nil {
		return err
	}
	defer h.Close()
	defer client.Close()

	svc, err := stop.NewService(stop.ServiceConfig{
		Client: client,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	m, err := svc.Run(ctx, stop.Request{NameOrID: c.nameOrID})
	if err != nil {
		return fmt.Errorf("could not stop machine: %w", err)
	}

	if err := newPrinter(formatTable, c.rootCmd.Stdout).PrintMessage(fmt.Sprintf("Stopped machine %s", m.Name)); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
