// Package lib provides a Go SDK for managing hypervisor machines programmatically.
//
// Every connection goes through the version gate: the binary is built for one
// SDK line (the vbox_v7_1, vbox_v7_0 and vbox_v6_1 build tags, v7_1 by default)
// and refuses to talk to a hypervisor of any other major.minor version.
//
// # Quick Start
//
//	client, err := lib.Connect(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	machines, _ := client.VirtualBox().Machines()
//	for _, m := range machines {
//	    info, _ := m.Info()
//	    fmt.Println(info.Name, info.State)
//	    m.Close()
//	}
//
// # Locking
//
// Machine settings can only be changed under an exclusive lock, and runtime
// operations like powering down need a shared one. A [SessionLock] holds at most
// one machine at a time:
//
//	lock, _ := client.NewSessionLock()
//	defer lock.Close()
//
//	m, _ := lock.LockExclusive("web-1")
//	m.SetMemorySize(4096)
//	m.SaveSettings()
//	lock.Unlock()
//
// Views returned by a lock fail with [ErrLockReleased] once the lock is released.
//
// # Operations
//
// Long running operations return a [Progress]. Wait for it with a context:
//
//	m, _ := lock.LockShared("db-1")
//	p, _ := m.PowerDown()
//	defer p.Close()
//	st, err := p.Await(ctx, 100*time.Millisecond)
//
// # Health Checks
//
// [Doctor] runs the preflight checks without the version gate, so it also
// explains why [Connect] rejects a hypervisor:
//
//	results, _ := lib.Doctor(ctx, lib.Config{})
//	for _, r := range results {
//	    fmt.Printf("%s: %s (%s)\n", r.ID, r.Message, r.Status)
//	}
//
// # Error Handling
//
// Errors can be inspected with [errors.Is]:
//
//   - [ErrVersionMismatch]: The installed SDK doesn't match the compiled line.
//   - [ErrNotFound]: The machine or snapshot does not exist.
//   - [ErrAlreadyLocked]: Another session holds the machine lock.
//   - [ErrLockReleased]: A locked view was used after its lock was released.
//   - [ErrNotCancelable]: The operation can't be canceled.
//
// Hypervisor errors not mapped to any of them are returned as [ForeignError].
//
// # Testing
//
// Use a temporary database path and register an inventory to write tests
// without a real hypervisor:
//
//	inv, _ := lib.DecodeInventory(inventoryYAML)
//	client, _ := lib.Connect(ctx, lib.Config{
//	    DBPath:    filepath.Join(t.TempDir(), "vbx.db"),
//	    Inventory: &inv,
//	})
//	defer client.Close()
//
// # Thread Safety
//
// Objects are safe for concurrent use, but a [SessionLock] and the views it
// returns serialize their calls.
package lib
