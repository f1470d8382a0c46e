package raw

import (
	"fmt"

	"github.com/slok/vbx/internal/model"
)

// unknownSlots is the number of IUnknown slots (QueryInterface, AddRef, Release)
// that precede the methods of every interface.
const unknownSlots = 3

// gap is a vtable slot whose method is not wrapped.
const gap = MethodUnknown

// Line is a supported SDK release line: its version and vtable layout.
type Line struct {
	// Name is the line identifier, also used as build tag suffix (vbox_<name>).
	Name string
	// Version is the SDK version the layout was generated from.
	// Only major and minor are relevant.
	Version model.Version
	// APIVersion is the SDK API version number (major*1000 + minor).
	APIVersion uint32
	// Slots is the vtable layout of the line.
	Slots SlotTable
}

func (l Line) String() string { return fmt.Sprintf("%s (%s)", l.Name, l.Version.MajorMinor()) }

// newSlotTable assigns vtable slots in layout order for every interface.
func newSlotTable(layouts map[Kind][]Method) SlotTable {
	t := SlotTable{}
	for _, layout := range layouts {
		for i, m := range layout {
			if m == gap {
				continue
			}
			t[m] = Slot(unknownSlots + i)
		}
	}
	return t
}

var clientLayout = []Method{
	MethodClientGetVirtualBox,
	MethodClientGetSession,
	gap, // getEventSource.
}

// consoleLayout returns the IConsole layout of a line with the given number of
// attribute getters before the methods.
func consoleLayout(attributes int) []Method {
	return append(make([]Method, attributes),
		gap, gap, gap, gap, gap, // powerUp, powerUpPaused, reset, resume, pause.
		MethodConsolePowerDown,
	)
}

// LineV7_1 is the VirtualBox 7.1 line.
var LineV7_1 = Line{
	Name:       "v7_1",
	Version:    model.Version{Major: 7, Minor: 1},
	APIVersion: 7001,
	Slots: newSlotTable(map[Kind][]Method{
		KindVirtualBoxClient: clientLayout,
		KindVirtualBox: {
			MethodVirtualBoxGetVersion, gap, MethodVirtualBoxGetRevision, gap, MethodVirtualBoxGetAPIVersion,
			gap, gap, gap, MethodVirtualBoxGetMachines, gap, gap, gap, gap, gap, gap, gap,
			gap, gap, gap, gap, gap, gap, gap, gap, gap, gap, gap,
			MethodVirtualBoxCreateMachine, gap, MethodVirtualBoxRegisterMachine, MethodVirtualBoxFindMachine,
			gap, gap, gap, gap, gap, gap, gap, gap, gap, gap, gap, MethodVirtualBoxFindProgressByID,
		},
		KindSession: {
			MethodSessionGetState, gap, gap, MethodSessionGetMachine, MethodSessionGetConsole,
		},
		KindMachine: {
			gap, gap, gap, gap, // getParent, getIcon, getAccessible, getAccessError.
			MethodMachineGetName, MethodMachineSetName, MethodMachineGetDescription, MethodMachineSetDescription,
			MethodMachineGetID, gap, gap, MethodMachineGetOSTypeID, gap,
			gap, gap, // getPlatform, getFirmwareSettings.
			MethodMachineGetCPUCount, MethodMachineSetCPUCount, gap, gap,
			MethodMachineGetMemorySize, MethodMachineSetMemorySize, gap, gap, gap, gap, gap, gap,
			MethodMachineGetMedia, gap, gap, gap, gap, gap, gap, gap,
			MethodMachineGetSessionState, gap, gap, gap,
			MethodMachineGetState, MethodMachineGetLastStateChange, gap, gap,
			MethodMachineGetCurrentSnapshot, MethodMachineGetSnapshotCount, gap, gap,
			gap, gap, gap, gap, gap, gap, gap, gap, gap, gap,
			MethodMachineSaveSettings, MethodMachineDiscardSettings, MethodMachineUnregister, MethodMachineDeleteConfig,
			MethodMachineExportTo, MethodMachineFindSnapshot, gap, gap,
			MethodMachineGetExtraDataKeys, MethodMachineGetExtraData, MethodMachineSetExtraData,
			gap, gap, gap, gap, MethodMachineCloneTo, gap, gap,
			MethodMachineTakeSnapshot, MethodMachineDeleteSnapshot, MethodMachineDeleteSnapshotAndAllChildren,
			gap, MethodMachineRestoreSnapshot,
		},
		KindSnapshot: {
			MethodSnapshotGetID, MethodSnapshotGetName, gap, MethodSnapshotGetDescription, gap,
			MethodSnapshotGetTimeStamp, MethodSnapshotGetOnline, gap, MethodSnapshotGetParent, MethodSnapshotGetChildren,
		},
		KindMedium: {
			MethodMediumGetID, gap, gap, gap, MethodMediumGetLocation,
		},
		KindConsole: consoleLayout(16),
		KindProgress: {
			MethodProgressGetID, MethodProgressGetDescription, gap, gap, gap, gap, gap, gap, gap, gap, gap,
			MethodProgressGetErrorText,
		},
	}),
}

// LineV7_0 is the VirtualBox 7.0 line.
var LineV7_0 = Line{
	Name:       "v7_0",
	Version:    model.Version{Major: 7, Minor: 0},
	APIVersion: 7000,
	Slots: newSlotTable(map[Kind][]Method{
		KindVirtualBoxClient: clientLayout,
		KindVirtualBox: {
			MethodVirtualBoxGetVersion, gap, MethodVirtualBoxGetRevision, gap, MethodVirtualBoxGetAPIVersion,
			gap, gap, gap, MethodVirtualBoxGetMachines, gap, gap, gap, gap, gap, gap, gap,
			gap, gap, gap, gap, gap, gap, gap, gap, gap, gap,
			MethodVirtualBoxCreateMachine, gap, MethodVirtualBoxRegisterMachine, MethodVirtualBoxFindMachine,
			gap, gap, gap, gap, gap, gap, gap, gap, gap, gap, MethodVirtualBoxFindProgressByID,
		},
		KindSession: {
			MethodSessionGetState, gap, gap, MethodSessionGetMachine, MethodSessionGetConsole,
		},
		KindMachine: {
			gap, gap, gap, gap,
			MethodMachineGetName, MethodMachineSetName, MethodMachineGetDescription, MethodMachineSetDescription,
			MethodMachineGetID, gap, gap, MethodMachineGetOSTypeID, gap,
			gap, gap, gap, // getHardwareVersion, getHardwareUUID, getCPUProfile.
			MethodMachineGetCPUCount, MethodMachineSetCPUCount, gap, gap,
			MethodMachineGetMemorySize, MethodMachineSetMemorySize, gap, gap, gap, gap,
			MethodMachineGetMedia, gap, gap, gap, gap, gap, gap, gap, gap,
			MethodMachineGetSessionState, gap, gap, gap,
			MethodMachineGetState, MethodMachineGetLastStateChange, gap, gap,
			MethodMachineGetCurrentSnapshot, MethodMachineGetSnapshotCount, gap, gap,
			gap, gap, gap, gap, gap, gap, gap, gap,
			MethodMachineSaveSettings, MethodMachineDiscardSettings, MethodMachineUnregister, MethodMachineDeleteConfig,
			MethodMachineExportTo, MethodMachineFindSnapshot, gap, gap,
			MethodMachineGetExtraDataKeys, MethodMachineGetExtraData, MethodMachineSetExtraData,
			gap, gap, gap, MethodMachineCloneTo, gap, gap,
			MethodMachineTakeSnapshot, MethodMachineDeleteSnapshot, MethodMachineDeleteSnapshotAndAllChildren,
			gap, MethodMachineRestoreSnapshot,
		},
		KindSnapshot: {
			MethodSnapshotGetID, MethodSnapshotGetName, MethodSnapshotGetDescription,
			MethodSnapshotGetTimeStamp, MethodSnapshotGetOnline, gap, MethodSnapshotGetParent, MethodSnapshotGetChildren,
		},
		KindMedium: {
			MethodMediumGetID, gap, gap, MethodMediumGetLocation,
		},
		KindConsole: consoleLayout(16),
		KindProgress: {
			MethodProgressGetID, MethodProgressGetDescription, gap, gap, gap, gap, gap, gap, gap, gap, gap,
			MethodProgressGetErrorText,
		},
	}),
}

// LineV6_1 is the VirtualBox 6.1 line. It lacks IVirtualBox::findProgressById.
var LineV6_1 = Line{
	Name:       "v6_1",
	Version:    model.Version{Major: 6, Minor: 1},
	APIVersion: 6001,
	Slots: newSlotTable(map[Kind][]Method{
		KindVirtualBoxClient: clientLayout,
		KindVirtualBox: {
			MethodVirtualBoxGetVersion, gap, MethodVirtualBoxGetRevision, gap, MethodVirtualBoxGetAPIVersion,
			gap, gap, MethodVirtualBoxGetMachines, gap, gap, gap, gap, gap, gap, gap,
			gap, gap, gap, gap, gap, gap, gap, gap,
			MethodVirtualBoxCreateMachine, gap, MethodVirtualBoxRegisterMachine, MethodVirtualBoxFindMachine,
		},
		KindSession: {
			MethodSessionGetState, gap, MethodSessionGetMachine, MethodSessionGetConsole,
		},
		KindMachine: {
			gap, gap, gap, gap,
			MethodMachineGetName, MethodMachineSetName, MethodMachineGetDescription, MethodMachineSetDescription,
			MethodMachineGetID, gap, MethodMachineGetOSTypeID, gap, gap, gap,
			MethodMachineGetCPUCount, MethodMachineSetCPUCount, gap, gap, gap,
			MethodMachineGetMemorySize, MethodMachineSetMemorySize, gap, gap, gap,
			MethodMachineGetMedia, gap, gap, gap, gap, gap, gap, gap, gap, gap, gap,
			MethodMachineGetSessionState, gap, gap,
			MethodMachineGetState, MethodMachineGetLastStateChange, gap,
			MethodMachineGetCurrentSnapshot, MethodMachineGetSnapshotCount, gap,
			gap, gap, gap, gap, gap, gap,
			MethodMachineSaveSettings, MethodMachineDiscardSettings, MethodMachineUnregister, MethodMachineDeleteConfig,
			MethodMachineExportTo, MethodMachineFindSnapshot, gap,
			MethodMachineGetExtraDataKeys, MethodMachineGetExtraData, MethodMachineSetExtraData,
			gap, gap, MethodMachineCloneTo, gap,
			MethodMachineTakeSnapshot, MethodMachineDeleteSnapshot, MethodMachineDeleteSnapshotAndAllChildren,
			gap, gap, MethodMachineRestoreSnapshot,
		},
		KindSnapshot: {
			MethodSnapshotGetID, MethodSnapshotGetName, MethodSnapshotGetDescription,
			MethodSnapshotGetTimeStamp, MethodSnapshotGetOnline, MethodSnapshotGetParent, MethodSnapshotGetChildren,
		},
		KindMedium: {
			MethodMediumGetID, gap, MethodMediumGetLocation,
		},
		KindConsole: consoleLayout(15),
		KindProgress: {
			MethodProgressGetID, MethodProgressGetDescription, gap, gap, gap, gap, gap, gap, gap, gap,
			MethodProgressGetErrorText,
		},
	}),
}

// Lines returns all the supported lines, highest first.
func Lines() []Line {
	return []Line{LineV7_1, LineV7_0, LineV6_1}
}

// LineFor returns the supported line for a version major.minor.
func LineFor(v model.Version) (Line, bool) {
	for _, l := range Lines() {
		if l.Version.Compatible(v) {
			return l, true
		}
	}
	return Line{}, false
}

// Current returns the line the binary was compiled for. It is selected with the
// vbox_v7_1, vbox_v7_0 and vbox_v6_1 build tags, the highest wins and 7.1 is
// used when none is set.
func Current() Line { return current }
