package primitives

// table lists every operation with its argument count, receiver included.
var table = []Primitive{
	{"_OSSIA_InstantiateDevice", 2, instantiateDevice},
	{"_OSSIA_ExposeOSCQueryServer", 3, exposeOSCQueryServer},
	{"_OSSIA_ExposeOSCQueryMirror", 2, exposeOSCQueryMirror},
	{"_OSSIA_ExposeMinuit", 4, exposeMinuit},
	{"_OSSIA_ExposeOSC", 4, exposeOSC},

	{"_OSSIA_InstantiateParameter", 9, instantiateParameter},
	{"_OSSIA_InstantiateNode", 3, instantiateNode},

	{"_OSSIA_NodeGetName", 1, nodeGetName},
	{"_OSSIA_NodeGetChildrenNames", 1, nodeGetChildrenNames},
	{"_OSSIA_NodeGetFullPath", 1, nodeGetFullPath},
	{"_OSSIA_NodeGetDisabled", 1, nodeGetDisabled},
	{"_OSSIA_NodeGetHidden", 1, nodeGetHidden},
	{"_OSSIA_NodeGetMuted", 1, nodeGetMuted},
	{"_OSSIA_NodeGetDescription", 1, nodeGetDescription},
	{"_OSSIA_NodeGetTags", 1, nodeGetTags},
	{"_OSSIA_NodeGetZombie", 1, nodeGetZombie},
	{"_OSSIA_NodeGetMirror", 3, nodeGetMirror},

	{"_OSSIA_NodeSetName", 2, nodeSetName},
	{"_OSSIA_NodeSetDisabled", 2, nodeSetDisabled},
	{"_OSSIA_NodeSetHidden", 2, nodeSetHidden},
	{"_OSSIA_NodeSetMuted", 2, nodeSetMuted},
	{"_OSSIA_NodeSetDescription", 2, nodeSetDescription},
	{"_OSSIA_NodeSetTags", 2, nodeSetTags},

	{"_OSSIA_ParameterSetValue", 2, parameterSetValue},
	{"_OSSIA_ParameterSetCallback", 1, parameterSetCallback},
	{"_OSSIA_ParameterRemoveCallback", 1, parameterRemoveCallback},
	{"_OSSIA_ParameterSetAccessMode", 2, parameterSetAccessMode},
	{"_OSSIA_ParameterSetDomain", 2, parameterSetDomain},
	{"_OSSIA_ParameterSetBoundingMode", 2, parameterSetBoundingMode},
	{"_OSSIA_ParameterSetRepetitionFilter", 2, parameterSetRepetitionFilter},
	{"_OSSIA_ParameterSetUnit", 2, parameterSetUnit},
	{"_OSSIA_ParameterSetPriority", 2, parameterSetPriority},
	{"_OSSIA_ParameterSetCritical", 2, parameterSetCritical},

	{"_OSSIA_ParameterGetValue", 1, parameterGetValue},
	{"_OSSIA_ParameterGetAccessMode", 1, parameterGetAccessMode},
	{"_OSSIA_ParameterGetDomain", 1, parameterGetDomain},
	{"_OSSIA_ParameterGetBoundingMode", 1, parameterGetBoundingMode},
	{"_OSSIA_ParameterGetRepetitionFilter", 1, parameterGetRepetitionFilter},
	{"_OSSIA_ParameterGetUnit", 1, parameterGetUnit},
	{"_OSSIA_ParameterGetPriority", 1, parameterGetPriority},
	{"_OSSIA_ParameterGetCritical", 1, parameterGetCritical},

	{"_OSSIA_PresetLoad", 2, presetLoad},
	{"_OSSIA_PresetSave", 2, presetSave},

	{"_OSSIA_FreeDevice", 1, freeDevice},
}
