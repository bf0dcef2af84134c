package types

// Environment contract injected into every launched shell. This is the
// only channel by which the launched process learns how to report back.
const (
	EnvSessionID   = "TERMHIVE_SESSION_ID"
	EnvCallbackURL = "TERMHIVE_CALLBACK_URL"
	EnvSessionName = "TERMHIVE_SESSION_NAME"
	EnvRoot        = "TERMHIVE_ROOT"
	EnvToken       = "TERMHIVE_TOKEN"
)
