package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/vbx/internal/app/doctor"
	"github.com/slok/vbx/internal/model"
)

type DoctorCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewDoctorCommand returns the doctor command.
func NewDoctorCommand(rootCmd *RootCommand, app *kingpin.Application) *DoctorCommand {
	c := &DoctorCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("doctor", "Run preflight checks against the installed SDK.")
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c DoctorCommand) Name() string { return c.Cmd.FullCommand() }

func (c DoctorCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Doctor reports the version gate verdict, so it doesn't connect through it.
	h, err := c.rootCmd.newHypervisor(ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	svc, err := doctor.NewService(doctor.ServiceConfig{
		API:    h.sdk,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	results := svc.Run(ctx)

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintChecks(results); err != nil {
		return fmt.Errorf("could not print checks: %w", err)
	}

	if sum := model.SummarizeChecks(results); sum.Failed() {
		return fmt.Errorf("preflight checks failed with %d error(s)", sum.Errors)
	}

	return nil
}
