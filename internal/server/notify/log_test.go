package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier_HidesSecretsUnlessRevealed(t *testing.T) {
	ctx := context.Background()

	quiet := &recordingLogger{}
	require.NoError(t, NewLogNotifier(quiet, false).SendVerification(ctx, "a@x.io", "123456"))
	require.NoError(t, NewLogNotifier(quiet, false).SendPasswordReset(ctx, "a@x.io", "http://x/reset-password/tok"))
	for _, e := range quiet.snapshot() {
		assert.NotContains(t, e.args, "123456")
		assert.NotContains(t, e.args, "http://x/reset-password/tok")
	}

	loud := &recordingLogger{}
	require.NoError(t, NewLogNotifier(loud, true).SendVerification(ctx, "a@x.io", "123456"))
	entries := loud.snapshot()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].args, "123456")
}

func TestLogNotifier_ResetSuccess(t *testing.T) {
	log := &recordingLogger{}
	require.NoError(t, NewLogNotifier(log, false).SendResetSuccess(context.Background(), "a@x.io"))
	entries := log.snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, "reset success email", entries[0].msg)
}
