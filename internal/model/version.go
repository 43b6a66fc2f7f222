package model

// Version constants for the persisted schema and engine.
const (
	// SchemaVersion is the persisted record layout version.
	SchemaVersion = "1"

	// EngineVersion is the forum engine version.
	EngineVersion = "0.1.0"
)
