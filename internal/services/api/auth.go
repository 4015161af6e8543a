package api

import (
	"net/http"
	"strings"

	perr "scanhub/internal/platform/errors"
	"scanhub/internal/platform/logger"
	"scanhub/internal/platform/net/middleware"
)

// deviceHeader carries the client's self reported scanner device id
const deviceHeader = "X-Device-ID"

// tokenAuth validates static bearer tokens configured as "user:token" pairs
// an empty token set runs the API open with an anonymous dev identity
type tokenAuth struct {
	users map[string]string // token -> user
}

func newTokenAuth(pairs []string, log logger.Logger) middleware.AuthPort {
	users := make(map[string]string, len(pairs))
	for _, p := range pairs {
		user, token, ok := strings.Cut(strings.TrimSpace(p), ":")
		if !ok || user == "" || token == "" {
			log.Warn().Str("pair", p).Msg("skipping malformed api token pair")
			continue
		}
		users[token] = user
	}
	if len(users) == 0 {
		log.Warn().Msg("no api tokens configured, running open with a dev identity")
	}
	return tokenAuth{users: users}
}

// Parse implements middleware.AuthPort
func (a tokenAuth) Parse(r *http.Request) (string, string, error) {
	device := r.Header.Get(deviceHeader)

	if len(a.users) == 0 {
		return "dev", device, nil
	}

	raw, err := bearer(r)
	if err != nil {
		return "", "", err
	}
	user, ok := a.users[raw]
	if !ok {
		return "", "", perr.Unauthorizedf("invalid bearer token")
	}
	return user, device, nil
}

func bearer(r *http.Request) (string, error) {
	authz := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(authz) < len(prefix) || !strings.EqualFold(authz[:len(prefix)], prefix) {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	raw := strings.TrimSpace(authz[len(prefix):])
	if raw == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	return raw, nil
}
