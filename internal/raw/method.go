package raw

// Method is a logical foreign method. The vtable slot where each method
// lives depends on the SDK line.
type Method int

const (
	MethodUnknown Method = iota

	MethodClientGetVirtualBox
	MethodClientGetSession

	MethodVirtualBoxGetVersion
	MethodVirtualBoxGetRevision
	MethodVirtualBoxGetAPIVersion
	MethodVirtualBoxGetMachines
	MethodVirtualBoxFindMachine
	MethodVirtualBoxCreateMachine
	MethodVirtualBoxRegisterMachine
	MethodVirtualBoxFindProgressByID

	MethodSessionGetState
	MethodSessionGetMachine
	MethodSessionGetConsole

	MethodConsolePowerDown

	MethodMachineGetID
	MethodMachineGetName
	MethodMachineSetName
	MethodMachineGetDescription
	MethodMachineSetDescription
	MethodMachineGetOSTypeID
	MethodMachineGetState
	MethodMachineGetSessionState
	MethodMachineGetLastStateChange
	MethodMachineGetMemorySize
	MethodMachineSetMemorySize
	MethodMachineGetCPUCount
	MethodMachineSetCPUCount
	MethodMachineGetSnapshotCount
	MethodMachineGetCurrentSnapshot
	MethodMachineGetMedia
	MethodMachineGetExtraDataKeys
	MethodMachineGetExtraData
	MethodMachineSetExtraData
	MethodMachineSaveSettings
	MethodMachineDiscardSettings
	MethodMachineUnregister
	MethodMachineDeleteConfig
	MethodMachineCloneTo
	MethodMachineExportTo
	MethodMachineFindSnapshot
	MethodMachineTakeSnapshot
	MethodMachineDeleteSnapshot
	MethodMachineDeleteSnapshotAndAllChildren
	MethodMachineRestoreSnapshot

	MethodSnapshotGetID
	MethodSnapshotGetName
	MethodSnapshotGetDescription
	MethodSnapshotGetTimeStamp
	MethodSnapshotGetOnline
	MethodSnapshotGetParent
	MethodSnapshotGetChildren

	MethodMediumGetID
	MethodMediumGetLocation

	MethodProgressGetID
	MethodProgressGetDescription
	MethodProgressGetErrorText
)

var methodNames = map[Method]string{
	MethodClientGetVirtualBox: "IVirtualBoxClient::getVirtualBox",
	MethodClientGetSession:    "IVirtualBoxClient::getSession",

	MethodVirtualBoxGetVersion:       "IVirtualBox::getVersion",
	MethodVirtualBoxGetRevision:      "IVirtualBox::getRevision",
	MethodVirtualBoxGetAPIVersion:    "IVirtualBox::getAPIVersion",
	MethodVirtualBoxGetMachines:      "IVirtualBox::getMachines",
	MethodVirtualBoxFindMachine:      "IVirtualBox::findMachine",
	MethodVirtualBoxCreateMachine:    "IVirtualBox::createMachine",
	MethodVirtualBoxRegisterMachine:  "IVirtualBox::registerMachine",
	MethodVirtualBoxFindProgressByID: "IVirtualBox::findProgressById",

	MethodSessionGetState:   "ISession::getState",
	MethodSessionGetMachine: "ISession::getMachine",
	MethodSessionGetConsole: "ISession::getConsole",

	MethodConsolePowerDown: "IConsole::powerDown",

	MethodMachineGetID:                        "IMachine::getId",
	MethodMachineGetName:                      "IMachine::getName",
	MethodMachineSetName:                      "IMachine::setName",
	MethodMachineGetDescription:               "IMachine::getDescription",
	MethodMachineSetDescription:               "IMachine::setDescription",
	MethodMachineGetOSTypeID:                  "IMachine::getOSTypeId",
	MethodMachineGetState:                     "IMachine::getState",
	MethodMachineGetSessionState:              "IMachine::getSessionState",
	MethodMachineGetLastStateChange:           "IMachine::getLastStateChange",
	MethodMachineGetMemorySize:                "IMachine::getMemorySize",
	MethodMachineSetMemorySize:                "IMachine::setMemorySize",
	MethodMachineGetCPUCount:                  "IMachine::getCPUCount",
	MethodMachineSetCPUCount:                  "IMachine::setCPUCount",
	MethodMachineGetSnapshotCount:             "IMachine::getSnapshotCount",
	MethodMachineGetCurrentSnapshot:           "IMachine::getCurrentSnapshot",
	MethodMachineGetMedia:                     "IMachine::getMedia",
	MethodMachineGetExtraDataKeys:             "IMachine::getExtraDataKeys",
	MethodMachineGetExtraData:                 "IMachine::getExtraData",
	MethodMachineSetExtraData:                 "IMachine::setExtraData",
	MethodMachineSaveSettings:                 "IMachine::saveSettings",
	MethodMachineDiscardSettings:              "IMachine::discardSettings",
	MethodMachineUnregister:                   "IMachine::unregister",
	MethodMachineDeleteConfig:                 "IMachine::deleteConfig",
	MethodMachineCloneTo:                      "IMachine::cloneTo",
	MethodMachineExportTo:                     "IMachine::exportTo",
	MethodMachineFindSnapshot:                 "IMachine::findSnapshot",
	MethodMachineTakeSnapshot:                 "IMachine::takeSnapshot",
	MethodMachineDeleteSnapshot:               "IMachine::deleteSnapshot",
	MethodMachineDeleteSnapshotAndAllChildren: "IMachine::deleteSnapshotAndAllChildren",
	MethodMachineRestoreSnapshot:              "IMachine::restoreSnapshot",

	MethodSnapshotGetID:          "ISnapshot::getId",
	MethodSnapshotGetName:        "ISnapshot::getName",
	MethodSnapshotGetDescription: "ISnapshot::getDescription",
	MethodSnapshotGetTimeStamp:   "ISnapshot::getTimeStamp",
	MethodSnapshotGetOnline:      "ISnapshot::getOnline",
	MethodSnapshotGetParent:      "ISnapshot::getParent",
	MethodSnapshotGetChildren:    "ISnapshot::getChildren",

	MethodMediumGetID:       "IMedium::getId",
	MethodMediumGetLocation: "IMedium::getLocation",

	MethodProgressGetID:          "IProgress::getId",
	MethodProgressGetDescription: "IProgress::getDescription",
	MethodProgressGetErrorText:   "IProgress::getErrorInfo",
}

var methodKinds = map[Method]Kind{
	MethodClientGetVirtualBox: KindVirtualBoxClient,
	MethodClientGetSession:    KindVirtualBoxClient,

	MethodVirtualBoxGetVersion:       KindVirtualBox,
	MethodVirtualBoxGetRevision:      KindVirtualBox,
	MethodVirtualBoxGetAPIVersion:    KindVirtualBox,
	MethodVirtualBoxGetMachines:      KindVirtualBox,
	MethodVirtualBoxFindMachine:      KindVirtualBox,
	MethodVirtualBoxCreateMachine:    KindVirtualBox,
	MethodVirtualBoxRegisterMachine:  KindVirtualBox,
	MethodVirtualBoxFindProgressByID: KindVirtualBox,

	MethodSessionGetState:   KindSession,
	MethodSessionGetMachine: KindSession,
	MethodSessionGetConsole: KindSession,

	MethodConsolePowerDown: KindConsole,

	MethodSnapshotGetID:          KindSnapshot,
	MethodSnapshotGetName:        KindSnapshot,
	MethodSnapshotGetDescription: KindSnapshot,
	MethodSnapshotGetTimeStamp:   KindSnapshot,
	MethodSnapshotGetOnline:      KindSnapshot,
	MethodSnapshotGetParent:      KindSnapshot,
	MethodSnapshotGetChildren:    KindSnapshot,

	MethodMediumGetID:       KindMedium,
	MethodMediumGetLocation: KindMedium,

	MethodProgressGetID:          KindProgress,
	MethodProgressGetDescription: KindProgress,
	MethodProgressGetErrorText:   KindProgress,
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return "unknown"
}

// Kind returns the interface the method belongs to.
func (m Method) Kind() Kind {
	if k, ok := methodKinds[m]; ok {
		return k
	}
	if m >= MethodMachineGetID && m <= MethodMachineRestoreSnapshot {
		return KindMachine
	}
	return KindUnknown
}

// Slot is the vtable index of a method in one SDK line.
type Slot int

// SlotTable maps the logical methods to their vtable slot.
type SlotTable map[Method]Slot

// Lookup returns the slot of a method, false when the line lacks it.
func (t SlotTable) Lookup(m Method) (Slot, bool) {
	s, ok := t[m]
	return s, ok
}

// Method returns the method at a slot of an interface, the reverse lookup of Lookup.
func (t SlotTable) Method(kind Kind, slot Slot) (Method, bool) {
	for m, s := range t {
		if s == slot && m.Kind() == kind {
			return m, true
		}
	}
	return MethodUnknown, false
}
