// Package vboxtest provides clients connected to a seeded simulated SDK for tests.
package vboxtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw/sim"
	"github.com/slok/vbx/internal/vbox"
)

const (
	// WebID is the ID of the powered off "web-1" machine of Inventory.
	WebID = "5d3e4c1a-7f0b-4c52-9a1e-2b8f6d9c0a11"
	// DBID is the ID of the running "db-1" machine of Inventory.
	DBID = "6e4f5d2b-8a1c-4d63-ab2f-3c9a7e0d1b22"
)

// T0 is the creation time of the Inventory objects.
var T0 = time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)

// Inventory returns two machines, "web-1" powered off with the "base" -> "configured"
// snapshot chain and "db-1" running without snapshots.
func Inventory() model.Inventory {
	return model.Inventory{
		Machines: []model.MachineInfo{
			{
				ID: WebID, Name: "web-1", OSTypeID: "Ubuntu_64", State: model.MachineStatePoweredOff,
				MemoryMB: 2048, CPUCount: 2, Media: []string{"/vms/web-1/disk.vdi"},
				ExtraData: map[string]string{"owner": "ops"}, CurrentSnapshotID: "snap-2", LastStateChange: T0,
			},
			{
				ID: DBID, Name: "db-1", OSTypeID: "Debian_64", State: model.MachineStateRunning,
				MemoryMB: 4096, CPUCount: 4, ExtraData: map[string]string{}, LastStateChange: T0,
			},
		},
		Snapshots: []model.SnapshotInfo{
			{ID: "snap-1", Name: "base", MachineID: WebID, CreatedAt: T0},
			{ID: "snap-2", Name: "configured", MachineID: WebID, ParentID: "snap-1", CreatedAt: T0.Add(time.Hour)},
		},
	}
}

// NewSDK returns a simulated SDK created with cfg and seeded with inv.
func NewSDK(t testing.TB, cfg sim.SDKConfig, inv model.Inventory) *sim.SDK {
	t.Helper()

	sdk, err := sim.NewSDK(cfg)
	require.NoError(t, err)
	_, err = sdk.Seed(context.Background(), inv)
	require.NoError(t, err)

	return sdk
}

// NewClient returns a client connected to a simulated SDK created with cfg and
// seeded with inv. The client is closed when the test ends.
func NewClient(t testing.TB, cfg sim.SDKConfig, inv model.Inventory) (*vbox.Client, *sim.SDK) {
	t.Helper()

	sdk := NewSDK(t, cfg, inv)

	c, err := vbox.Connect(vbox.ClientConfig{API: sdk})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, sdk
}
