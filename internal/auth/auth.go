package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tartampluch/go-saturdays/internal/config"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (OWASP recommended).
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16

	hashFormat = "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s"
)

// ErrMismatch is returned by Verifier when the presented token does not match.
var ErrMismatch = errors.New(config.ErrTokenMismatch)

// HashToken creates an Argon2id hash of token, encoded as
// $argon2id$v=19$m=65536,t=1,p=4$salt$hash.
func HashToken(token string) (string, error) {
	if token == "" {
		return "", errors.New(config.ErrTokenEmpty)
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrTokenHash, err)
	}

	key := argon2.IDKey([]byte(token), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf(hashFormat, argon2.Version, argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyToken reports whether token matches the encoded Argon2id hash.
func VerifyToken(token, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, errors.New(config.ErrTokenFormat)
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, fmt.Errorf("%s: %w", config.ErrTokenFormat, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%s: %w", config.ErrTokenFormat, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%s: %w", config.ErrTokenFormat, err)
	}

	got := argon2.IDKey([]byte(token), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// Verifier checks bearer tokens against one configured hash.
// An empty hash disables authentication (development mode).
type Verifier struct {
	hash string
}

// NewVerifier logs whether authentication is active and returns the verifier.
func NewVerifier(hash string) *Verifier {
	log := slog.With(config.LogKeyComponent, config.CompAuth)
	if hash == "" {
		log.Warn(config.MsgAuthDisabled)
	} else {
		log.Info(config.MsgAuthEnabled)
	}
	return &Verifier{hash: strings.TrimSpace(hash)}
}

// Enabled reports whether a hash is configured.
func (v *Verifier) Enabled() bool {
	return v.hash != ""
}

// Check validates the Authorization header value of a request.
func (v *Verifier) Check(header string) error {
	if !v.Enabled() {
		return nil
	}

	token, ok := strings.CutPrefix(header, config.BearerPrefix)
	if !ok || token == "" {
		return ErrMismatch
	}

	match, err := VerifyToken(token, v.hash)
	if err != nil {
		return err
	}
	if !match {
		return ErrMismatch
	}
	return nil
}

// RequireBearer is a middleware that rejects requests without a valid bearer token.
// onReject writes the error response; it receives the request unchanged.
func (v *Verifier) RequireBearer(onReject http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := v.Check(r.Header.Get(config.HeaderAuthorization)); err != nil {
				log := slog.With(
					config.LogKeyComponent, config.CompAuth,
					config.LogKeyRemote, r.RemoteAddr,
				)
				if errors.Is(err, ErrMismatch) {
					log.Warn(config.MsgAuthFailed)
				} else {
					log.Error(config.MsgAuthVerifyErr, config.LogKeyError, err)
				}

				w.Header().Set(config.HeaderWWWAuthenticate, config.BearerRealm)
				onReject(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
