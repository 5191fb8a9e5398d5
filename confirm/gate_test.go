package confirm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deleteUsersRequest() Request {
	return Request{
		Title:             "Delete rows",
		Message:           "This will delete ALL rows in \"users\".",
		ConfirmWord:       "users",
		ConfirmButtonText: "Delete rows",
	}
}

func TestConfirmRequiresExactWord(t *testing.T) {
	g := New()
	p, err := g.Begin(deleteUsersRequest())
	require.NoError(t, err)

	// Nothing typed: control disabled, Confirm is a no-op.
	assert.False(t, g.ConfirmEnabled())
	assert.False(t, g.Confirm())

	// Partial and case-variant input stay disabled.
	for _, input := range []string{"user", "USERS", "users ", " users", "userz"} {
		g.Type(input)
		assert.False(t, g.ConfirmEnabled(), "input %q should not enable confirm", input)
		assert.False(t, g.Confirm(), "input %q should not settle", input)
	}

	// Exact match enables; diverging again re-disables.
	g.Type("users")
	assert.True(t, g.ConfirmEnabled())
	g.Type("users2")
	assert.False(t, g.ConfirmEnabled())

	g.Type("users")
	require.True(t, g.Confirm())
	assert.True(t, p.Wait())
}

func TestCancelAlwaysResolvesFalse(t *testing.T) {
	g := New()

	// Cancel with matching input still resolves false.
	p, err := g.Begin(deleteUsersRequest())
	require.NoError(t, err)
	g.Type("users")
	require.True(t, g.ConfirmEnabled())
	require.True(t, g.Cancel())
	assert.False(t, p.Wait())

	// Cancel with no pending request reports false.
	assert.False(t, g.Cancel())
}

func TestRequestBlocksUntilSettled(t *testing.T) {
	g := New()

	outcome := make(chan bool, 1)
	installed := make(chan struct{})
	go func() {
		// Begin installs synchronously; signal before blocking in Wait.
		p, err := g.Begin(deleteUsersRequest())
		if err != nil {
			outcome <- false
			return
		}
		close(installed)
		outcome <- p.Wait()
	}()

	<-installed
	select {
	case <-outcome:
		t.Fatal("request settled before any terminal user action")
	case <-time.After(20 * time.Millisecond):
	}

	g.Type("users")
	require.True(t, g.Confirm())

	select {
	case got := <-outcome:
		assert.True(t, got)
	case <-time.After(time.Second):
		t.Fatal("request did not settle after confirm")
	}
}

func TestSingleFlight(t *testing.T) {
	g := New()
	p, err := g.Begin(deleteUsersRequest())
	require.NoError(t, err)

	_, err = g.Begin(Request{ConfirmWord: "other"})
	assert.ErrorIs(t, err, ErrConfirmationPending)

	// The original request is unaffected by the rejected Begin.
	g.Type("users")
	require.True(t, g.Confirm())
	assert.True(t, p.Wait())
}

func TestReentryResetsState(t *testing.T) {
	g := New()

	p, err := g.Begin(deleteUsersRequest())
	require.NoError(t, err)
	g.Type("users")
	require.True(t, g.Confirm())
	require.True(t, p.Wait())

	// Same confirm word again: the typed input must not carry over.
	p, err = g.Begin(deleteUsersRequest())
	require.NoError(t, err)
	assert.False(t, g.ConfirmEnabled(), "typed input leaked from previous cycle")
	assert.False(t, g.Confirm())

	// And Current reflects the new prompt content.
	other := Request{Title: "Delete account", ConfirmWord: "alice"}
	require.True(t, g.Cancel())
	assert.False(t, p.Wait())

	_, err = g.Begin(other)
	require.NoError(t, err)
	cur, ok := g.Current()
	require.True(t, ok)
	assert.Equal(t, other, cur)
	g.Cancel()
}

func TestCurrentEmptyGate(t *testing.T) {
	g := New()
	_, ok := g.Current()
	assert.False(t, ok)
	g.Type("anything") // ignored without a pending request
	assert.False(t, g.ConfirmEnabled())
}
