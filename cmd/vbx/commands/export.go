package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/vbx/internal/app/export"
	"github.com/slok/vbx/internal/conventions"
)

type ExportCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	nameOrID  string
	path      string
	overwrite bool
}

// NewExportCommand returns the export command.
func NewExportCommand(rootCmd *RootCommand, app *kingpin.Application) *ExportCommand {
	c := &ExportCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("export", "Export a machine and its snapshot tree to an appliance file.")
	c.Cmd.Arg("name-or-id", "Machine name or UUID.").Required().StringVar(&c.nameOrID)
	c.Cmd.Arg("path", "Destination file, under the data directory exports by default.").StringVar(&c.path)
	c.Cmd.Flag("overwrite", "Replace an existing destination file.").BoolVar(&c.overwrite)

	return c
}

func (c ExportCommand) Name() string { return c.Cmd.FullCommand() }

func (c ExportCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	path := c.path
	if path == "" {
		path = conventions.ExportPath(homedir.HomeDir(), c.nameOrID)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("could not create exports directory: %w", err)
		}
	}

	client, h, err := c.rootCmd.connect(ctx)
	if err != nil {
		return err
	}
	defer h.Close()
	defer client.Close()

	svc, err := export.NewService(export.ServiceConfig{
		Client: client,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	path, err = svc.Run(ctx, export.Request{
		NameOrID:  c.nameOrID,
		Path:      path,
		Overwrite: c.overwrite,
	})
	if err != nil {
		return fmt.Errorf("could not export machine: %w", err)
	}

	msg := fmt.Sprintf("Exported machine %s to %s", c.nameOrID, path)
	if err := newPrinter(formatTable, c.rootCmd.Stdout).PrintMessage(msg); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
