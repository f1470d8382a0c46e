package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/vbx/internal/app/list"
	"github.com/slok/vbx/internal/model"
)

type ListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	stateFilter string
	format      string
}

// NewListCommand returns the list command.
func NewListCommand(rootCmd *RootCommand, app *kingpin.Application) *ListCommand {
	c := &ListCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("list", "List all registered machines.")
	c.Cmd.Flag("state", "Filter by machine state (powered-off, saved, aborted, running, paused...).").StringVar(&c.stateFilter)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c ListCommand) Name() string { return c.Cmd.FullCommand() }

func (c ListCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	var stateFilter *model.MachineState
	if c.stateFilter != "" {
		state, err := parseMachineState(c.stateFilter)
		if err != nil {
			return err
		}
		stateFilter = &state
	}

	client, h, err := c.rootCmd.connect(ctx)
	if err != nil {
		return err
	}
	defer h.Close()
	defer client.Close()

	svc, err := list.NewService(list.ServiceConfig{
		Client: client,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	machines, err := svc.Run(ctx, list.Request{
		StateFilter: stateFilter,
	})
	if err != nil {
		return fmt.Errorf("could not list machines: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintList(machines); err != nil {
		return fmt.Errorf("could not print list: %w", err)
	}

	return nil
}

var filterableStates = []model.MachineState{
	model.MachineStatePoweredOff,
	model.MachineStateSaved,
	model.MachineStateAborted,
	model.MachineStateRunning,
	model.MachineStatePaused,
	model.MachineStateStuck,
}

func parseMachineState(s string) (model.MachineState, error) {
	state := model.MachineState(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range filterableStates {
		if st == state {
			return state, nil
		}
	}

	names := make([]string, 0, len(filterableStates))
	for _, st := range filterableStates {
		names = append(names, string(st))
	}
	return "", fmt.Errorf("invalid state filter: %s (must be: %s)", s, strings.Join(names, ", "))
}
