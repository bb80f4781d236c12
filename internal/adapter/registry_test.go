package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	key  string
	tier Tier
}

func (s stubAdapter) Key() string  { return s.key }
func (s stubAdapter) Tier() Tier   { return s.tier }
func (s stubAdapter) Probe(ctx context.Context) (ProbeResult, error) {
	return ProbeResult{AdapterKey: s.key, Tier: s.tier}, nil
}
func (s stubAdapter) BuildCommand(req SpawnRequest) (BuiltCommand, error) {
	return BuiltCommand{Program: s.key}, nil
}
func (s stubAdapter) ParseLine(line string) (AgentEvent, bool) { return AgentEvent{}, false }
func (s stubAdapter) ParseRaw(chunk []byte) []AgentEvent       { return nil }

func TestRegister_GetRoundTrip(t *testing.T) {
	Register("stub-rt", func() Adapter { return stubAdapter{key: "stub-rt", tier: Tier1} })

	a, err := Get("stub-rt")
	require.NoError(t, err)
	assert.Equal(t, "stub-rt", a.Key())
	assert.Equal(t, Tier1, a.Tier())
}

func TestGet_UnknownKeyReturnsAdapterError(t *testing.T) {
	_, err := Get("does-not-exist-xyz")
	require.Error(t, err)
	var adapterErr *Error
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, ErrNotImplemented, adapterErr.Kind)
}

func TestResolve_RejectsExperimentalByDefault(t *testing.T) {
	Register("stub-experimental", func() Adapter { return stubAdapter{key: "stub-experimental", tier: Experimental} })

	_, err := Resolve("stub-experimental", false)
	require.Error(t, err)

	a, err := Resolve("stub-experimental", true)
	require.NoError(t, err)
	assert.Equal(t, "stub-experimental", a.Key())
}

func TestResolve_AlwaysAllowsTier1(t *testing.T) {
	Register("stub-tier1", func() Adapter { return stubAdapter{key: "stub-tier1", tier: Tier1} })

	a, err := Resolve("stub-tier1", false)
	require.NoError(t, err)
	assert.Equal(t, "stub-tier1", a.Key())
}

func TestList_IsSorted(t *testing.T) {
	Register("stub-zzz", func() Adapter { return stubAdapter{key: "stub-zzz", tier: Tier1} })
	Register("stub-aaa", func() Adapter { return stubAdapter{key: "stub-aaa", tier: Tier1} })

	keys := List()
	require.NotEmpty(t, keys)
	for i := 1; i < len(keys); i++ {
		assert.LessOrEqual(t, keys[i-1], keys[i])
	}
}

func TestDetectStatus_IsAvailable(t *testing.T) {
	assert.True(t, StatusReady.IsAvailable())
	assert.True(t, StatusExperimentalReady.IsAvailable())
	assert.False(t, StatusBlocked.IsAvailable())
	assert.False(t, StatusExperimentalBlocked.IsAvailable())
	assert.False(t, StatusMissing.IsAvailable())
}
