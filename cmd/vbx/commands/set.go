package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/vbx/internal/app/modify"
)

// SetCommand changes the settings of a powered off machine.
type SetCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	nameOrID    string
	name        string
	description string
	memoryMB    uint32
	cpus        uint32
}

// NewSetCommand returns the set command.
func NewSetCommand(rootCmd *RootCommand, app *kingpin.Application) *SetCommand {
	c := &SetCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("set", "Change machine settings.")
	c.Cmd.Arg("name-or-id", "Machine name or UUID.").Required().StringVar(&c.nameOrID)
	c.Cmd.Flag("name", "New machine name ([a-zA-Z0-9 ._-]).").StringVar(&c.name)
	c.Cmd.Flag("description", "New machine description.").StringVar(&c.description)
	c.Cmd.Flag("memory", "Memory size in MB.").Uint32Var(&c.memoryMB)
	c.Cmd.Flag("cpus", "Number of virtual CPUs.").Uint32Var(&c.cpus)

	return c
}

func (c SetCommand) Name() string { return c.Cmd.FullCommand() }

func (c SetCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	req := modify.Request{NameOrID: c.nameOrID}
	if c.name != "" {
		req.Name = &c.name
	}
	if c.description != "" {
		req.Description = &c.description
	}
	if c.memoryMB != 0 {
		req.MemoryMB = &c.memoryMB
	}
	if c.cpus != 0 {
		req.CPUCount = &c.cpus
	}

	client, h, err := c.rootCmd.connect(ctx)
	if err != nil {
		return err
	}
	defer h.Close()
	defer client.Close()

	svc, err := modify.NewService(modify.ServiceConfig{
		Client: client,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	m, err := svc.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("could not change machine settings: %w", err)
	}

	msg := fmt.Sprintf("Updated machine: %s (memory: %d MB, cpus: %d)", m.Name, m.MemoryMB, m.CPUCount)
	if err := newPrinter(formatTable, c.rootCmd.Stdout).PrintMessage(msg); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
