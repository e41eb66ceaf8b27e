package ir

// Version constants for the value model and engine.
const (
	// IRVersion is the value model version, mixed into every fingerprint.
	IRVersion = "1"

	// EngineVersion is the rule engine version.
	EngineVersion = "0.1.0"
)
