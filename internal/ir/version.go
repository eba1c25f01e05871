package ir

// Version constants for the IR schema and the validator.
const (
	// IRVersion is the typed-tree schema version carried in fingerprints.
	IRVersion = "1"

	// ValidatorVersion is the verbcheck validator version.
	ValidatorVersion = "0.1.0"
)
