package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	id, name, party string
	err             error
	seen            string
}

func (f *fakeValidator) ValidateToken(token string) (string, string, string, error) {
	f.seen = token
	return f.id, f.name, f.party, f.err
}

func newProtected(v TokenValidator) (http.Handler, *http.Request) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := r.Context().Value(ParticipantKey).(string)
		party, _ := r.Context().Value(PartyKey).(string)
		w.Header().Set("X-Id", id)
		w.Header().Set("X-Party", party)
	})
	return NewAuthMiddleware(v).Handle(next), httptest.NewRequest(http.MethodGet, "/ws", nil)
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("accepts bearer header and injects identity", func(t *testing.T) {
		v := &fakeValidator{id: "v1", name: "Shop One", party: "Vendor"}
		handler, req := newProtected(v)
		req.Header.Set("Authorization", "Bearer tok123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "tok123", v.seen)
		assert.Equal(t, "v1", rec.Header().Get("X-Id"))
		assert.Equal(t, "Vendor", rec.Header().Get("X-Party"))
	})

	t.Run("falls back to query param for websocket upgrades", func(t *testing.T) {
		v := &fakeValidator{id: "a1", name: "Agent", party: "Agent"}
		handler, _ := newProtected(v)
		req := httptest.NewRequest(http.MethodGet, "/ws?token=qtok", nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "qtok", v.seen)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		handler, req := newProtected(&fakeValidator{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects invalid token", func(t *testing.T) {
		v := &fakeValidator{err: errors.New("expired")}
		handler, req := newProtected(v)
		req.Header.Set("Authorization", "Bearer bad")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
