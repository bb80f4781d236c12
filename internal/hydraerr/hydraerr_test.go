package hydraerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_NilCauseBehavesLikeNew(t *testing.T) {
	err := Wrap(KindGit, "no head", nil)
	assert.Equal(t, "git: no head", err.Error())
}

func TestWrap_FormatsCause(t *testing.T) {
	cause := errors.New("exit status 128")
	err := Wrap(KindGit, "rev-parse failed", cause)
	assert.Equal(t, "git: rev-parse failed: exit status 128", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIs_FindsKindThroughWrapping(t *testing.T) {
	base := New(KindWorktree, "allocate failed")
	wrapped := fmt.Errorf("supervisor: %w", base)
	assert.True(t, Is(wrapped, KindWorktree))
	assert.False(t, Is(wrapped, KindGit))
}

func TestIs_FalseForPlainError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), KindConfig))
}

func TestIs_FalseForNil(t *testing.T) {
	assert.False(t, Is(nil, KindConfig))
}

func TestToIpcError_MapsKnownKinds(t *testing.T) {
	cfgErr := New(KindConfig, "bad toml")
	ipc := ToIpcError(cfgErr)
	require.NotNil(t, ipc)
	assert.Equal(t, "validation_error", ipc.Code)

	adapterErr := New(KindAdapter, "binary missing")
	ipc = ToIpcError(adapterErr)
	require.NotNil(t, ipc)
	assert.Equal(t, "adapter_error", ipc.Code)

	scoringErr := New(KindScoring, "no baseline")
	ipc = ToIpcError(scoringErr)
	require.NotNil(t, ipc)
	assert.Equal(t, "internal_error", ipc.Code)
}

func TestToIpcError_NonHydraErrDefaultsToInternal(t *testing.T) {
	ipc := ToIpcError(errors.New("boom"))
	require.NotNil(t, ipc)
	assert.Equal(t, "internal_error", ipc.Code)
	assert.Equal(t, "boom", ipc.Message)
}

func TestToIpcError_Nil(t *testing.T) {
	assert.Nil(t, ToIpcError(nil))
}

func TestToIpcError_UnwrapsThroughFmtWrapping(t *testing.T) {
	base := New(KindProcess, "killed")
	wrapped := fmt.Errorf("supervisor: %w", base)
	ipc := ToIpcError(wrapped)
	require.NotNil(t, ipc)
	assert.Equal(t, "internal_error", ipc.Code)
}
