package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/vbx/internal/app/extradata"
)

// ExtraDataSetCommand sets machine extra data keys.
type ExtraDataSetCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	nameOrID string
	key      string
	value    string
}

// NewExtraDataSetCommand returns the extradata set command.
func NewExtraDataSetCommand(rootCmd *RootCommand, extraDataCmd *kingpin.CmdClause) *ExtraDataSetCommand {
	c := &ExtraDataSetCommand{rootCmd: rootCmd}

	c.Cmd = extraDataCmd.Command("set", "Set a machine extra data key, an empty value removes it.")
	c.Cmd.Arg("name-or-id", "Machine name or UUID.").Required().StringVar(&c.nameOrID)
	c.Cmd.Arg("key", "Extra data key.").Required().StringVar(&c.key)
	c.Cmd.Arg("value", "Extra data value.").StringVar(&c.value)

	return c
}

func (c ExtraDataSetCommand) Name() string { return c.Cmd.FullCommand() }

func (c ExtraDataSetCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, h, err := c.rootCmd.connect(ctx)
	if err != nil {
		return err
	}
	defer h.Close()
	defer client.Close()

	svc, err := extradata.NewService(extradata.ServiceConfig{
		Client: client,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	previous, err := svc.Run(ctx, extradata.Request{
		NameOrID: c.nameOrID,
		Key:      c.key,
		Value:    c.value,
	})
	if err != nil {
		return fmt.Errorf("could not set extra data: %w", err)
	}

	var msg string
	switch {
	case c.value == "":
		msg = fmt.Sprintf("Removed %s", c.key)
	case previous == "":
		msg = fmt.Sprintf("Set %s=%s", c.key, c.value)
	default:
		msg = fmt.Sprintf("Set %s=%s (was %s)", c.key, c.value, previous)
	}
	if err := newPrinter(formatTable, c.rootCmd.Stdout).PrintMessage(msg); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
