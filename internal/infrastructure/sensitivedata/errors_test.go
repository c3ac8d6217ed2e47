package sensitivedata_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/assetkit-dev/assetkit/internal/infrastructure/sensitivedata"
)

var errSentinel = errors.New("sentinel")

func TestSafeError(t *testing.T) {
	t.Parallel()
	p := sensitivedata.NewProvider()
	p.Track("s3cr3t")

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, sensitivedata.SafeError(nil, p))
	})

	t.Run("untouched error keeps its identity", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("open archive: %w", errSentinel)
		got := sensitivedata.SafeError(err, p)
		assert.Same(t, err, got)
		assert.ErrorIs(t, got, errSentinel)
	})

	t.Run("secret is redacted", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("key service rejected s3cr3t: %w", errSentinel)
		got := sensitivedata.SafeError(err, p)
		assert.EqualError(t, got, "key service rejected [REDACTED]: sentinel")
	})

	t.Run("nil provider", func(t *testing.T) {
		t.Parallel()
		err := errors.New("s3cr3t")
		assert.Same(t, err, sensitivedata.SafeError(err, nil))
	})
}
