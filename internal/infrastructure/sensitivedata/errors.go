package sensitivedata

import (
	"errors"

	"github.com/assetkit-dev/assetkit/internal/application/ports"
)

// SafeError returns err with every tracked value redacted from its message.
// The original error is returned when nothing needed redaction, preserving
// its type for errors.As.
func SafeError(err error, provider ports.SensitiveValueProvider) error {
	if err == nil || provider == nil {
		return err
	}

	msg := err.Error()
	redacted := scrub(msg, provider.AllValues())
	if redacted == msg {
		return err
	}
	return errors.New(redacted)
}
