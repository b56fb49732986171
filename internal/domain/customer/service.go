// internal/domain/customer/service.go
package customer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/menu-backend/internal/infrastructure/storage"
)

// Listener receives the profile after it changed out-of-band
type Listener func(Profile)

// Store holds one customer profile, writes it to its storage key after every
// change and follows writes made to that key by anyone else.
//
// Storage failures are logged and never returned. Call Close to stop
// following the key.
type Store struct {
	mu        sync.Mutex
	storage   storage.Storage
	key       string
	profile   Profile
	pending   map[string]int
	listeners map[uint64]Listener
	nextID    uint64
	unwatch   func()
	logger    logrus.FieldLogger
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for storage failures
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore loads the profile persisted under key and starts following it
func NewStore(ctx context.Context, st storage.Storage, key string, opts ...Option) *Store {
	s := &Store{
		storage:   st,
		key:       key,
		profile:   DefaultProfile(),
		pending:   make(map[string]int),
		listeners: make(map[uint64]Listener),
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("key", key)

	s.load(ctx)
	s.unwatch = st.Watch(key, s.handleExternalWrite)
	return s
}

// Customer returns the current profile
func (s *Store) Customer() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// SetCustomer replaces the profile. An empty delivery method means pickup.
func (s *Store) SetCustomer(ctx context.Context, profile Profile) error {
	profile = profile.Normalize()
	if err := profile.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile = profile
	s.persist(ctx)
	return nil
}

// ClearCustomer resets the profile to DefaultProfile
func (s *Store) ClearCustomer(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile = DefaultProfile()
	s.persist(ctx)
}

// Subscribe registers fn for out-of-band changes; the returned func unregisters it
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close stops following the storage key
func (s *Store) Close() {
	s.mu.Lock()
	unwatch := s.unwatch
	s.unwatch = nil
	s.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
}

func (s *Store) load(ctx context.Context) {
	raw, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read customer profile, using defaults")
		return
	}

	profile, err := decode(raw)
	if err != nil {
		s.logger.WithError(err).Warn("Stored customer profile is malformed, using defaults")
		return
	}
	s.profile = profile
}

func (s *Store) persist(ctx context.Context) {
	data, err := json.Marshal(s.profile)
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode customer profile")
		return
	}

	if err := s.storage.Set(ctx, s.key, string(data)); err != nil {
		s.logger.WithError(err).Error("Failed to persist customer profile")
		return
	}
	// The backend echoes this write to our own watcher
	s.pending[string(data)]++
}

func (s *Store) handleExternalWrite(raw string) {
	s.mu.Lock()
	if n := s.pending[raw]; n > 0 {
		if n == 1 {
			delete(s.pending, raw)
		} else {
			s.pending[raw] = n - 1
		}
		s.mu.Unlock()
		return
	}

	profile := DefaultProfile()
	if raw != "" {
		decoded, err := decode(raw)
		if err != nil {
			s.mu.Unlock()
			s.logger.WithError(err).Warn("Ignoring malformed external customer profile write")
			return
		}
		profile = decoded
	}
	s.profile = profile

	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(profile)
	}
}

func decode(raw string) (Profile, error) {
	profile := DefaultProfile()
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return DefaultProfile(), err
	}
	profile = profile.Normalize()
	if err := profile.Validate(); err != nil {
		return DefaultProfile(), err
	}
	return profile, nil
}
