package pipeline

// InputError means the run had no usable input. It is raised before any
// stage executes.
type InputError struct {
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return "pipeline: input: " + e.Reason + ": " + e.Err.Error()
	}
	return "pipeline: input: " + e.Reason
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// ConfigError means the scoring model is malformed or incomplete. It is
// raised by NewEngine, before any record is processed.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "pipeline: config: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
