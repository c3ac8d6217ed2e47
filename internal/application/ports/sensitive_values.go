package ports

// SensitiveValueProvider tracks values that must never reach script output,
// reports or error messages, such as resolved archive passwords.
type SensitiveValueProvider interface {
	// Track registers a sensitive value to be redacted.
	Track(value string)

	// AllValues returns all tracked sensitive values.
	AllValues() []string
}

// ValueRedactor scrubs secrets from decoded values such as metadata
// properties and trait values before they reach a report.
type ValueRedactor interface {
	RedactValue(data any) any
}

// SecretResolver resolves named secrets referenced from the system config.
// Implementations track resolved values for redaction.
type SecretResolver interface {
	Resolve(name string) (string, error)
}
