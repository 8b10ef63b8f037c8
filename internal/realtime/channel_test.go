package realtime

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannel_Session_Lifecycle(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	channel := NewChannel(registry, discardLogger(), ChannelOptions{BufferSize: 4})

	// Given a fresh connection
	s := channel.Connect()
	req.Equal(StateAnonymous, s.State())
	req.NotEmpty(s.ID())
	req.Empty(registry.SessionsFor(1))

	// When it joins
	req.NoError(channel.Join(s, 1))

	// Then it is identified and bound
	req.Equal(StateIdentified, s.State())
	req.Equal([]*Session{s}, registry.SessionsFor(1))

	// When it joins as a second user, the binding is additive
	req.NoError(channel.Join(s, 2))
	req.Equal([]uint{1, 2}, s.Users())
	req.Equal([]*Session{s}, registry.SessionsFor(2))

	// When it disconnects, every binding goes away
	channel.Disconnect(s)
	req.Equal(StateClosed, s.State())
	req.Empty(registry.SessionsFor(1))
	req.Empty(registry.SessionsFor(2))

	// And closed is terminal
	req.ErrorIs(channel.Join(s, 1), ErrSessionClosed)
	req.Empty(registry.SessionsFor(1))
	channel.Disconnect(s)
	req.Equal(StateClosed, s.State())
}

func TestChannel_Join_Rejects_Zero_User(t *testing.T) {
	req := require.New(t)
	channel := NewChannel(NewRegistry(), discardLogger(), ChannelOptions{})
	s := channel.Connect()

	req.ErrorIs(channel.Join(s, 0), ErrInvalidUser)
	req.Equal(StateAnonymous, s.State())
}

func TestSession_Push(t *testing.T) {
	req := require.New(t)
	channel := NewChannel(NewRegistry(), discardLogger(), ChannelOptions{BufferSize: 2})
	s := channel.Connect()

	// Given a buffer of two frames
	req.NoError(s.Push([]byte("a")))
	req.NoError(s.Push([]byte("b")))

	// When a third frame arrives before the writer drains
	// Then it is rejected instead of blocking
	req.ErrorIs(s.Push([]byte("c")), ErrSessionBackpressure)
	req.Equal([]byte("a"), <-s.Outbound())
	req.NoError(s.Push([]byte("c")))

	// And a closed session refuses pushes
	channel.Disconnect(s)
	req.ErrorIs(s.Push([]byte("d")), ErrSessionClosed)
	<-s.Done()
}

func TestChannel_Join_Racing_Disconnect_Leaves_No_Binding(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	channel := NewChannel(registry, discardLogger(), ChannelOptions{})

	for i := 0; i < 200; i++ {
		s := channel.Connect()
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = channel.Join(s, 7)
		}()
		go func() {
			defer wg.Done()
			channel.Disconnect(s)
		}()
		wg.Wait()
		req.Equal(StateClosed, s.State())
	}
	req.Empty(registry.SessionsFor(7))
	req.Equal(RegistryStats{}, registry.Stats())
}

func TestSessionState_String(t *testing.T) {
	req := require.New(t)
	req.Equal("anonymous", StateAnonymous.String())
	req.Equal("identified", StateIdentified.String())
	req.Equal("closed", StateClosed.String())
	req.True(strings.HasPrefix(SessionState(9).String(), "unknown"))
}
