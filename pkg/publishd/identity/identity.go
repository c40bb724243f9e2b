package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

var ErrNoToken = fmt.Errorf("no bearer token in request")

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Authenticator turns a bearer token issued by the identity provider into a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*User, error)
}

type contextKey struct{}

func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// FromContext returns the authenticated user, or nil for anonymous requests.
func FromContext(ctx context.Context) *User {
	user, _ := ctx.Value(contextKey{}).(*User)
	return user
}

func BearerToken(header string) (string, error) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrNoToken
	}
	return strings.TrimSpace(header[len(prefix):]), nil
}

// Middleware authenticates the request if it carries a bearer token.
// Requests without a valid token pass through anonymously; handlers decide whether a user is required.
func Middleware(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				log.Debugf("Rejected bearer token: %s", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		}
		return http.HandlerFunc(fn)
	}
}
