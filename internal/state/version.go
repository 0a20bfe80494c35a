package state

// Version constants for the serialized envelope and the engine.
const (
	// SchemaVersion is the envelope version written by Encode and required by Decode.
	SchemaVersion = 1

	// EngineVersion is the simulation engine version.
	EngineVersion = "0.1.0"
)
