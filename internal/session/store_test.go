package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifc-analysis/backend/internal/models"
)

func TestStoreCreateGetDelete(t *testing.T) {
	s := NewStore(time.Hour)

	id := s.Create()
	require.NotEmpty(t, id)

	sess, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, models.JobStatusIdle, sess.JobStatus)

	assert.True(t, s.Delete(id))
	assert.False(t, s.Delete(id))

	_, ok = s.Get(id)
	assert.False(t, ok)
}

func TestStoreGetUnknown(t *testing.T) {
	s := NewStore(time.Hour)
	_, ok := s.Get("no-such-session")
	assert.False(t, ok)
}

func TestStoreUpdateMergesFields(t *testing.T) {
	s := NewStore(time.Hour)
	id := s.Create()

	ok := s.Update(id, func(sess *models.Session) {
		sess.Filename = "VG076-GAS-COB01.ifc"
		sess.JobStatus = models.JobStatusQueued
	})
	require.True(t, ok)

	// A second update touching a different field must leave the first intact.
	s.Update(id, func(sess *models.Session) {
		sess.JobProgress = 42
	})

	sess, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "VG076-GAS-COB01.ifc", sess.Filename)
	assert.Equal(t, models.JobStatusQueued, sess.JobStatus)
	assert.Equal(t, 42, sess.JobProgress)
}

func TestStoreUpdateUnknown(t *testing.T) {
	s := NewStore(time.Hour)
	ok := s.Update("missing", func(sess *models.Session) {
		sess.Filename = "x"
	})
	assert.False(t, ok)
}

func TestStoreExpiryOnGet(t *testing.T) {
	s := NewStore(10 * time.Millisecond)
	id := s.Create()

	time.Sleep(30 * time.Millisecond)

	_, ok := s.Get(id)
	assert.False(t, ok, "expired session must not be returned")
	assert.Equal(t, 0, s.Len(), "expired session must be removed on access")
}

func TestStoreSweeperRemovesExpired(t *testing.T) {
	s := NewStore(10 * time.Millisecond)
	s.Create()
	s.Create()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.StartSweeper(ctx, 5*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for s.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 0, s.Len())
}

func TestStoreConcurrentUpdates(t *testing.T) {
	s := NewStore(time.Hour)
	id := s.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(id, func(sess *models.Session) {
				sess.JobProgress++
			})
		}()
	}
	wg.Wait()

	sess, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, 50, sess.JobProgress)
}
