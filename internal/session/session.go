// Package session holds the viewer context a profile page is rendered in:
// who is looking and which credential their requests carry.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kalambet/devfolio/internal/profile"
)

// ErrNoSubject is returned when no user id can be derived from the credential.
var ErrNoSubject = errors.New("no user id in credential")

// Session is passed explicitly to the page instead of being looked up from
// ambient state.
type Session struct {
	CurrentUser profile.Profile
	Credential  string
}

// ProfileSource supplies the signed-in user's profile.
type ProfileSource interface {
	GetProfile() (profile.Profile, error)
}

// Load assembles a Session from the stored profile and the configured credential.
func Load(src ProfileSource, credential string) (Session, error) {
	p, err := src.GetProfile()
	if err != nil {
		return Session{}, fmt.Errorf("loading current user: %w", err)
	}
	return Session{CurrentUser: p, Credential: strings.TrimSpace(credential)}, nil
}

// subjectClaims are checked in order; the backend has issued each of them
// at some point.
var subjectClaims = []string{"id", "_id", "user_id", "sub"}

// SubjectFromCredential extracts the signed-in user's id from a JWT without
// verifying its signature. The backend verifies tokens; the CLI only needs to
// know whose page to open by default.
func SubjectFromCredential(token string) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return "", ErrNoSubject
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("parsing credential: %w", err)
	}

	for _, name := range subjectClaims {
		switch v := claims[name].(type) {
		case string:
			if v != "" {
				return v, nil
			}
		case float64:
			return fmt.Sprintf("%.0f", v), nil
		}
	}
	return "", ErrNoSubject
}

// ResolveSubject returns explicit when non-empty, otherwise the user id
// carried by the session credential.
func (s Session) ResolveSubject(explicit string) (string, error) {
	if id := strings.TrimSpace(explicit); id != "" {
		return id, nil
	}
	if s.Credential == "" {
		return "", fmt.Errorf("%w: pass a user id or log in with `devfolio session login`", ErrNoSubject)
	}
	return SubjectFromCredential(s.Credential)
}
