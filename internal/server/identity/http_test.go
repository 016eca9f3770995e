package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPResolver_Found(t *testing.T) {
	var gotPath, gotAccept string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 42,
			"username": "Bob_Smith",
			"password": "$2a$10$hash",
			"firstname": "Bob",
			"lastname": "Smith",
			"email": "bob@example.com",
			"status": "ACTIVE",
			"roles": ["ROLE_USER", "ROLE_ADMIN"]
		}`))
	}))
	defer ts.Close()

	r := NewHTTPResolver(ts.URL+"/", time.Second)
	u, err := r.GetUserByUsername(context.Background(), "Bob_Smith")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/users/username/Bob_Smith", gotPath)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "42", u.ID)
	assert.Equal(t, "Bob_Smith", u.Username)
	assert.Equal(t, "$2a$10$hash", u.PasswordHash)
	assert.Equal(t, "Bob", u.Firstname)
	assert.Equal(t, "Smith", u.Lastname)
	assert.Equal(t, "bob@example.com", u.Email)
	assert.Equal(t, "ACTIVE", u.Status)
	assert.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, u.Roles)
}

func TestHTTPResolver_StringID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"7f0c","username":"alice","firstname":"A","lastname":"B"}`))
	}))
	defer ts.Close()

	u, err := NewHTTPResolver(ts.URL, time.Second).GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "7f0c", u.ID)
}

func TestHTTPResolver_EscapesUsername(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, _ = NewHTTPResolver(ts.URL, time.Second).GetUserByUsername(context.Background(), "a/b c")
	assert.Equal(t, "/api/v1/users/username/a%2Fb%20c", gotPath)
}

func TestHTTPResolver_NotFound(t *testing.T) {
	t.Run("404", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()

		_, err := NewHTTPResolver(ts.URL, time.Second).GetUserByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("empty object", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer ts.Close()

		_, err := NewHTTPResolver(ts.URL, time.Second).GetUserByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestHTTPResolver_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("kaput"))
		}))
		defer ts.Close()

		_, err := NewHTTPResolver(ts.URL, time.Second).GetUserByUsername(context.Background(), "bob")
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrorNotFound)
		assert.Contains(t, err.Error(), "500")
		assert.Contains(t, err.Error(), "kaput")
	})

	t.Run("bad json", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id": [}`))
		}))
		defer ts.Close()

		_, err := NewHTTPResolver(ts.URL, time.Second).GetUserByUsername(context.Background(), "bob")
		assert.Error(t, err)
	})

	t.Run("unreachable", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		addr := ts.URL
		ts.Close()

		_, err := NewHTTPResolver(addr, time.Second).GetUserByUsername(context.Background(), "bob")
		assert.Error(t, err)
	})

	t.Run("context cancelled", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer ts.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := NewHTTPResolver(ts.URL, 0).GetUserByUsername(ctx, "bob")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
