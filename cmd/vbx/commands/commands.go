package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/vbx/internal/conventions"
	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/printer"
	"github.com/slok/vbx/internal/raw/sim"
	storageio "github.com/slok/vbx/internal/storage/io"
	"github.com/slok/vbx/internal/storage/sqlite"
	"github.com/slok/vbx/internal/vbox"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	DBPath     string
	// SDKVersion is the installed SDK version the hypervisor reports, the compiled line when empty.
	SDKVersion string
	// InventoryPath is an optional YAML inventory registered before running the command.
	InventoryPath string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDBPath := conventions.DBPath(homedir.HomeDir())
	app.Flag("db-path", "Path to the SQLite database file of the hypervisor inventory.").Envar("VBX_DB_PATH").Default(defaultDBPath).StringVar(&c.DBPath)
	app.Flag("sdk-version", "Installed SDK version reported by the hypervisor (e.g. 7.1.4).").StringVar(&c.SDKVersion)
	app.Flag("inventory", "YAML inventory of machines to register before running the command.").StringVar(&c.InventoryPath)

	return c
}

// hypervisor is the SDK a command works against, with its inventory storage.
type hypervisor struct {
	sdk  *sim.SDK
	repo *sqlite.Repository
}

func (h hypervisor) Close() error { return h.repo.Close() }

// newHypervisor opens the inventory storage, creates the SDK on it and registers
// the inventory file machines if any.
func (c RootCommand) newHypervisor(ctx context.Context) (*hypervisor, error) {
	logger := c.Logger

	var version model.Version
	if c.SDKVersion != "" {
		v, err := model.ParseVersion(c.SDKVersion)
		if err != nil {
			return nil, fmt.Errorf("invalid sdk version: %w", err)
		}
		version = v
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.DBPath,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	sdk, err := sim.NewSDK(sim.SDKConfig{
		Repository: repo,
		Version:    version,
		Logger:     logger,
	})
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("could not create sdk: %w", err)
	}

	if c.InventoryPath != "" {
		inv, err := loadInventory(ctx, c.InventoryPath)
		if err != nil {
			repo.Close()
			return nil, err
		}

		n, err := sdk.Seed(ctx, inv)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("could not register inventory: %w", err)
		}
		logger.Infof("Registered %d machines from inventory", n)
	}

	return &hypervisor{sdk: sdk, repo: repo}, nil
}

// connect returns a gated client to the hypervisor. The caller closes both.
func (c RootCommand) connect(ctx context.Context) (*vbox.Client, *hypervisor, error) {
	h, err := c.newHypervisor(ctx)
	if err != nil {
		return nil, nil, err
	}

	client, err := vbox.Connect(vbox.ClientConfig{
		API:    h.sdk,
		Logger: c.Logger,
	})
	if err != nil {
		h.Close()
		return nil, nil, fmt.Errorf("could not connect: %w", err)
	}

	return client, h, nil
}

func loadInventory(ctx context.Context, path string) (model.Inventory, error) {
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return model.Inventory{}, fmt.Errorf("could not resolve inventory path: %w", err)
		}
		path = absPath
	}

	repo := storageio.NewInventoryYAMLRepository(os.DirFS("/"))
	inv, err := repo.GetInventory(ctx, path[1:])
	if err != nil {
		return model.Inventory{}, fmt.Errorf("could not load inventory: %w", err)
	}

	return inv, nil
}

func newPrinter(format string, w io.Writer) printer.Printer {
	if format == formatJSON {
		return printer.NewJSONPrinter(w)
	}
	return printer.NewTablePrinter(w)
}
