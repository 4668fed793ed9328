package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ErrUnknownKey is returned when setting a field that Profile does not have.
var ErrUnknownKey = errors.New("unknown profile key")

// ProfileStore defines the storage operations the Manager needs.
// Implemented by storage.Store.
type ProfileStore interface {
	SetProfileKey(key, value string) error
	GetAllProfileKeys() (map[string]string, error)
	DeleteProfileKey(key string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager provides cached, structured access to the profile stored in SQLite.
type Manager struct {
	store ProfileStore
	clock Clock
	ttl   time.Duration

	mu       sync.RWMutex
	cached   *Profile
	cachedAt time.Time
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store ProfileStore) *Manager {
	return &Manager{
		store: store,
		clock: realClock{},
		ttl:   60 * time.Second,
	}
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store ProfileStore, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		clock: clock,
		ttl:   ttl,
	}
}

// GetProfile reads all profile keys from storage (or cache) and assembles
// a Profile. Returns a zero-value Profile on empty store.
func (m *Manager) GetProfile() (Profile, error) {
	m.mu.RLock()
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		p := deepCopyProfile(m.cached)
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		return deepCopyProfile(m.cached), nil
	}

	keys, err := m.store.GetAllProfileKeys()
	if err != nil {
		return Profile{}, fmt.Errorf("loading profile keys: %w", err)
	}

	p := buildProfile(keys)
	m.cached = &p
	m.cachedAt = m.clock.Now()
	return deepCopyProfile(&p), nil
}

// SetField persists a profile key and invalidates the cache. Skills accept
// either a []string or a comma-separated string.
func (m *Manager) SetField(key string, value any) error {
	if !IsKey(key) {
		return fmt.Errorf("%w: %q (valid: %s)", ErrUnknownKey, key, strings.Join(Keys, ", "))
	}

	var str string
	switch v := value.(type) {
	case string:
		str = v
		if key == KeySkills && !strings.HasPrefix(strings.TrimSpace(v), "[") {
			b, err := json.Marshal(splitList(v))
			if err != nil {
				return fmt.Errorf("marshalling skills: %w", err)
			}
			str = string(b)
		}
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshalling value for key %q: %w", key, err)
		}
		str = string(b)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SetProfileKey(key, str); err != nil {
		return fmt.Errorf("setting profile key %q: %w", key, err)
	}

	m.cached = nil
	return nil
}

// ClearField removes a profile key and invalidates the cache.
func (m *Manager) ClearField(key string) error {
	if !IsKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.DeleteProfileKey(key); err != nil {
		return fmt.Errorf("clearing profile key %q: %w", key, err)
	}
	m.cached = nil
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func deepCopyProfile(p *Profile) Profile {
	if p == nil {
		return Profile{}
	}
	cp := *p
	if p.Skills != nil {
		cp.Skills = make([]string, len(p.Skills))
		copy(cp.Skills, p.Skills)
	}
	return cp
}

// buildProfile assembles a Profile from flat key-value pairs.
// Skills are stored as a JSON array.
func buildProfile(keys map[string]string) Profile {
	p := Profile{
		Name:         keys[KeyName],
		Headline:     keys[KeyHeadline],
		Email:        keys[KeyEmail],
		Organization: keys[KeyOrganization],
		About:        keys[KeyAbout],
		Picture:      keys[KeyPicture],
	}

	if v, ok := keys[KeySkills]; ok {
		if err := json.Unmarshal([]byte(v), &p.Skills); err != nil {
			slog.Warn("malformed profile key, skipping", "key", KeySkills, "error", err)
			p.Skills = nil
		}
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	return p
}
