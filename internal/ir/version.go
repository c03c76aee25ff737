package ir

// Version constants for report documents and the engine.
const (
	// ReportVersion is the report document schema version.
	ReportVersion = "1"

	// EngineVersion is the summa engine version.
	EngineVersion = "0.1.0"
)
