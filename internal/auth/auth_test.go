package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-saturdays/internal/config"
)

func TestHashToken(t *testing.T) {
	hash, err := HashToken("s3cret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"), hash)

	hash2, err := HashToken("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2, "salts must differ")

	_, err = HashToken("")
	assert.EqualError(t, err, config.ErrTokenEmpty)
}

func TestVerifyToken(t *testing.T) {
	hash, err := HashToken("s3cret")
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		hash    string
		want    bool
		wantErr bool
	}{
		{"Correct token", "s3cret", hash, true, false},
		{"Wrong token", "other", hash, false, false},
		{"Invalid format", "s3cret", "invalid", false, true},
		{"Wrong algorithm", "s3cret", "$bcrypt$v=1$m=65536,t=1,p=4$c2FsdA$aGFzaA", false, true},
		{"Bad parameters", "s3cret", "$argon2id$v=19$garbage$c2FsdA$aGFzaA", false, true},
		{"Bad salt", "s3cret", "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerifyToken(tt.token, tt.hash)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequireBearer(t *testing.T) {
	hash, err := HashToken("s3cret")
	require.NoError(t, err)

	reject := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		hash   string
		header string
		want   int
	}{
		{"Valid token", hash, "Bearer s3cret", http.StatusNoContent},
		{"Wrong token", hash, "Bearer nope", http.StatusUnauthorized},
		{"Missing header", hash, "", http.StatusUnauthorized},
		{"Basic scheme", hash, "Basic czNjcmV0", http.StatusUnauthorized},
		{"Corrupt hash", "$argon2id$broken", "Bearer s3cret", http.StatusUnauthorized},
		{"Dev mode", "", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewVerifier(tt.hash).RequireBearer(reject)(ok)

			req := httptest.NewRequest(http.MethodGet, config.RouteSaturdays, nil)
			if tt.header != "" {
				req.Header.Set(config.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, config.BearerRealm, rec.Header().Get(config.HeaderWWWAuthenticate))
			}
		})
	}
}

func TestVerifier_Enabled(t *testing.T) {
	assert.False(t, NewVerifier("").Enabled())
	assert.True(t, NewVerifier("$argon2id$x").Enabled())
}
