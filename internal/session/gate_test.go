package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGateLoggedOutByDefault(t *testing.T) {
	g, err := NewGate(StaticPassword(DefaultPassword), NewMemoryFlags())
	require.NoError(t, err)

	assert.Equal(t, LoggedOut, g.State())
	assert.False(t, g.LoggedIn())
}

func TestNewGateRestoresFlag(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  State
	}{
		{"true flag logs in", "true", LoggedIn},
		{"other value stays out", "yes", LoggedOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := NewMemoryFlags()
			require.NoError(t, flags.Set(FlagKey, tt.value))

			g, err := NewGate(StaticPassword(DefaultPassword), flags)
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.State())
		})
	}
}

func TestChallengeSuccess(t *testing.T) {
	flags := NewMemoryFlags()
	g, err := NewGate(StaticPassword(DefaultPassword), flags)
	require.NoError(t, err)
	g.OpenPrompt()

	ok, err := g.Challenge("nope")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = g.Challenge("admin123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, g.LoggedIn())
	assert.False(t, g.PromptOpen())
	assert.Empty(t, g.Error())

	v, found, err := flags.Get(FlagKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "true", v)
}

func TestChallengeMismatchKeepsError(t *testing.T) {
	g, err := NewGate(StaticPassword(DefaultPassword), NewMemoryFlags())
	require.NoError(t, err)
	g.OpenPrompt()

	ok, err := g.Challenge("Admin123")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, LoggedOut, g.State())
	assert.True(t, g.PromptOpen())
	assert.Equal(t, WrongPasswordMessage, g.Error())

	g.CancelPrompt()
	assert.Empty(t, g.Error())
	assert.False(t, g.PromptOpen())
}

func TestSessionSurvivesRestart(t *testing.T) {
	flags := NewFileFlags(t.TempDir() + "/state.yaml")

	g, err := NewGate(StaticPassword(DefaultPassword), flags)
	require.NoError(t, err)
	ok, err := g.Challenge("admin123")
	require.NoError(t, err)
	require.True(t, ok)

	restarted, err := NewGate(StaticPassword(DefaultPassword), NewFileFlags(flags.path))
	require.NoError(t, err)
	assert.Equal(t, LoggedIn, restarted.State())
}

func TestLogoutClearsFlag(t *testing.T) {
	flags := NewMemoryFlags()
	require.NoError(t, flags.Set(FlagKey, "true"))
	g, err := NewGate(StaticPassword(DefaultPassword), flags)
	require.NoError(t, err)
	require.True(t, g.LoggedIn())

	require.NoError(t, g.Logout())
	assert.Equal(t, LoggedOut, g.State())

	_, found, err := flags.Get(FlagKey)
	require.NoError(t, err)
	assert.False(t, found)

	restarted, err := NewGate(StaticPassword(DefaultPassword), flags)
	require.NoError(t, err)
	assert.Equal(t, LoggedOut, restarted.State())
}

type brokenFlags struct{ *MemoryFlags }

func (brokenFlags) Get(string) (string, bool, error) { return "", false, errors.New("disk gone") }
func (brokenFlags) Set(string, string) error         { return errors.New("disk gone") }

func TestGateFlagErrors(t *testing.T) {
	g, err := NewGate(StaticPassword(DefaultPassword), brokenFlags{NewMemoryFlags()})
	require.Error(t, err)
	require.NotNil(t, g)
	assert.Equal(t, LoggedOut, g.State())

	ok, err := g.Challenge(DefaultPassword)
	assert.True(t, ok)
	assert.Error(t, err)
	assert.True(t, g.LoggedIn())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "logged_in", LoggedIn.String())
	assert.Equal(t, "logged_out", LoggedOut.String())
}
