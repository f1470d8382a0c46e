package lib_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/slok/vbx/pkg/lib"
)

const exampleInventory = `
machines:
  - name: web-1
    os_type: Ubuntu_64
    memory_mb: 2048
    cpus: 2
    snapshots:
      - name: base
  - name: db-1
    os_type: Debian_64
    state: running
    memory_mb: 4096
    cpus: 4
`

// newExampleClient connects to a hypervisor inventory on a temp directory with
// the example machines registered.
func newExampleClient(ctx context.Context, dir string) *lib.Client {
	inv, err := lib.DecodeInventory([]byte(exampleInventory))
	if err != nil {
		panic(err)
	}

	client, err := lib.Connect(ctx, lib.Config{
		DBPath:    filepath.Join(dir, "vbx.db"),
		Inventory: &inv,
	})
	if err != nil {
		panic(err)
	}

	return client
}

// Example_listMachines shows how to list the registered machines.
func Example_listMachines() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "vbx-example-list-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	client := newExampleClient(ctx, dir)
	defer client.Close()

	machines, err := client.VirtualBox().Machines()
	if err != nil {
		panic(err)
	}

	for _, m := range machines {
		info, err := m.Info()
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s: %s (%d MiB, %d CPUs)\n", info.Name, info.State, info.MemoryMB, info.CPUCount)
		_ = m.Close()
	}

	// Output:
	// db-1: running (4096 MiB, 4 CPUs)
	// web-1: powered-off (2048 MiB, 2 CPUs)
}

// ExampleMutableMachine shows how to change machine settings under an exclusive lock.
func ExampleMutableMachine() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "vbx-example-modify-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	client := newExampleClient(ctx, dir)
	defer client.Close()

	lock, err := client.NewSessionLock()
	if err != nil {
		panic(err)
	}
	defer lock.Close()

	m, err := lock.LockExclusive("web-1")
	if err != nil {
		panic(err)
	}

	if err := m.SetMemorySize(4096); err != nil {
		panic(err)
	}
	if err := m.SaveSettings(); err != nil {
		panic(err)
	}
	if err := lock.Unlock(); err != nil {
		panic(err)
	}

	fmt.Println("Lock:", lock.State())

	machine, err := client.VirtualBox().FindMachine("web-1")
	if err != nil {
		panic(err)
	}
	defer machine.Close()

	info, err := machine.Info()
	if err != nil {
		panic(err)
	}
	fmt.Printf("Memory: %d MiB\n", info.MemoryMB)

	// Output:
	// Lock: unlocked
	// Memory: 4096 MiB
}

// ExampleSharedMachine_PowerDown shows how to power off a running machine.
func ExampleSharedMachine_PowerDown() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "vbx-example-stop-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	client := newExampleClient(ctx, dir)
	defer client.Close()

	lock, err := client.NewSessionLock()
	if err != nil {
		panic(err)
	}
	defer lock.Close()

	m, err := lock.LockShared("db-1")
	if err != nil {
		panic(err)
	}

	p, err := m.PowerDown()
	if err != nil {
		panic(err)
	}
	defer p.Close()

	st, err := p.Await(ctx, time.Millisecond)
	if err != nil {
		panic(err)
	}
	fmt.Println("Operation:", st.Status)

	state, err := m.State()
	if err != nil {
		panic(err)
	}
	fmt.Println("Machine:", state)

	// Output:
	// Operation: succeeded
	// Machine: powered-off
}

// Example_errors shows how to match the SDK errors.
func Example_errors() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "vbx-example-errors-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	client := newExampleClient(ctx, dir)
	_, err = client.VirtualBox().FindMachine("missing")
	fmt.Println("Not found:", errors.Is(err, lib.ErrNotFound))
	_ = client.Close()

	// A hypervisor of an unsupported SDK version is rejected before any other call.
	_, err = lib.Connect(ctx, lib.Config{
		DBPath:     filepath.Join(dir, "vbx.db"),
		SDKVersion: "5.2.44",
	})
	fmt.Println("Version mismatch:", errors.Is(err, lib.ErrVersionMismatch))

	var merr *lib.VersionMismatchError
	if errors.As(err, &merr) {
		fmt.Println("Found:", merr.Found)
	}

	// Output:
	// Not found: true
	// Version mismatch: true
	// Found: 5.2.44
}
