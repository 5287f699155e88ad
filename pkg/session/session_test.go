package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	user  User
	err   error
}

func (f *fakeFetcher) Profile(ctx context.Context, token string) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.user, f.err
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"  Bearer   abc123  ", "abc123"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, BearerToken(tt.header))
		})
	}
}

func TestSessionWithoutTokenNeverFetches(t *testing.T) {
	f := &fakeFetcher{user: User{"name": "Ada"}}
	s := FromAuthorization("", f)

	assert.False(t, s.Authenticated())
	assert.Nil(t, s.User(context.Background()))
	assert.Equal(t, 0, f.calls)
}

func TestSessionFetchesOnce(t *testing.T) {
	f := &fakeFetcher{user: User{"name": "Ada"}}
	s := FromAuthorization("Bearer tok", f)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "Ada", s.User(context.Background())["name"])
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, "tok", s.Token())
}

func TestSessionFetchFailureYieldsNoUser(t *testing.T) {
	f := &fakeFetcher{err: errors.New("connection refused")}
	s := New("tok", f)

	assert.True(t, s.Authenticated())
	assert.Nil(t, s.User(context.Background()))
	assert.Nil(t, s.User(context.Background()))
	assert.Equal(t, 1, f.calls)
}

func TestNilSession(t *testing.T) {
	var s *Session
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User(context.Background()))
}
