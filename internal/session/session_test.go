package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bh-premnath-git/bhui-sub000/internal/formstate"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

func newForm(t *testing.T) *formstate.Form {
	t.Helper()
	n, err := schema.Parse([]byte(`{"properties": {"name": {"type": "string"}}}`))
	require.NoError(t, err)
	f, err := formstate.New(formstate.Config{Schema: n})
	require.NoError(t, err)
	return f
}

func TestManager_CreateGetRemove(t *testing.T) {
	m := NewManager(time.Hour, time.Hour)
	s := m.Create("reader", newForm(t))

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "reader", s.Schema)
	assert.Same(t, s, m.Get(s.ID))
	assert.Equal(t, 1, m.Len())

	m.Remove(s.ID)
	assert.Nil(t, m.Get(s.ID))
	assert.Nil(t, m.Get("unknown"))
}

func TestManager_ExpiredAndIdle(t *testing.T) {
	m := NewManager(time.Hour, time.Minute)
	idle := m.Create("a", newForm(t))
	idle.mu.Lock()
	idle.lastActiveAt = time.Now().Add(-2 * time.Minute)
	idle.mu.Unlock()

	expired := m.Create("b", newForm(t))
	expired.CreatedAt = time.Now().Add(-2 * time.Hour)

	fresh := m.Create("c", newForm(t))

	assert.Nil(t, m.Get(idle.ID))
	assert.Equal(t, 1, m.Cleanup())
	assert.Equal(t, 1, m.Len())
	assert.NotNil(t, m.Get(fresh.ID))
}

func TestSession_FormChangesCountAsActivity(t *testing.T) {
	s := NewSession("reader", newForm(t))
	s.mu.Lock()
	s.lastActiveAt = time.Now().Add(-time.Hour)
	s.mu.Unlock()
	require.True(t, s.IsIdle(time.Minute))

	require.NoError(t, s.Form().Set("name", "job"))
	assert.False(t, s.IsIdle(time.Minute))
}

func TestManager_Run(t *testing.T) {
	m := NewManager(time.Hour, time.Minute)
	s := m.Create("a", newForm(t))
	s.mu.Lock()
	s.lastActiveAt = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
