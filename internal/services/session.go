// Package services orchestrates the domain over storage, messaging
// and the per-user in-memory sessions.
package services

import (
	"context"
	"sync"
	"time"

	"paga/internal/core"
	"paga/internal/log"
	"paga/internal/profile"
)

// Session is the per-identity context created when a user's identity
// becomes known and torn down on sign-out. It serializes all access to
// the underlying store and day editor; the persistence side runs
// asynchronously and never blocks an edit.
type Session struct {
	uid string

	mu     sync.Mutex
	store  *profile.Store
	editor *profile.Editor

	// onChange schedules persistence after a committed mutation.
	onChange func(*Session)

	// last-write-wins bookkeeping for async persists
	persistMu  sync.Mutex
	nextSeq    uint64
	flushedSeq uint64

	lastAccess time.Time
}

func newSession(uid string, onChange func(*Session)) *Session {
	store := profile.NewStore()
	return &Session{
		uid:        uid,
		store:      store,
		editor:     profile.NewEditor(store),
		onChange:   onChange,
		lastAccess: time.Now(),
	}
}

func (s *Session) UID() string { return s.uid }

// Profile returns a snapshot of the current profile.
func (s *Session) Profile() core.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Hydrated reports whether the initial load completed.
func (s *Session) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Hydrated()
}

// MonthEntries returns the day mapping for (year, month).
func (s *Session) MonthEntries(year, month int) core.MonthEntries {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.MonthEntries(year, month)
}

// MonthTotal computes the total of the selected month with the
// profile's own settings.
func (s *Session) MonthTotal(exchangeRate float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.store.Profile()
	return p.MonthTotal(exchangeRate)
}

// ComputeTotal computes a total for an arbitrary (year, month) using
// the given display parameters.
func (s *Session) ComputeTotal(year, month int, taxEnabled bool, taxPct float64, convert bool, rate float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.store.MonthEntries(year, month)
	return core.ComputeTotal(entries, core.TotalParams{
		DaysInMonth: core.DaysInMonth(year, month),
		HourlyWage:  s.store.Profile().HourlyWage,
		TaxEnabled:  taxEnabled,
		TaxPct:      taxPct,
		Convert:     convert,
		Rate:        rate,
	})
}

// ApplySettings updates the non-calendar profile fields and schedules
// persistence.
func (s *Session) ApplySettings(st profile.Settings) {
	s.mu.Lock()
	s.store.ApplySettings(st)
	s.mu.Unlock()
	s.changed()
}

// OpenDay starts a day-edit session for a day of the selected month.
func (s *Session) OpenDay(day int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Open(day)
}

// OpenedDay returns the currently open day, if any.
func (s *Session) OpenedDay() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Day()
}

// StagedEntries returns the staging buffer of the open day.
func (s *Session) StagedEntries() ([]core.WorkEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Entries()
}

// AddEntry appends a fresh staged entry to the open day.
func (s *Session) AddEntry() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Add()
}

// UpdateEntry replaces a staged entry by index.
func (s *Session) UpdateEntry(idx int, hours, bonus float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Update(idx, hours, bonus)
}

// RemoveEntry drops a staged entry by index.
func (s *Session) RemoveEntry(idx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Remove(idx)
}

// SaveDay commits the staged entries and schedules persistence.
func (s *Session) SaveDay() error {
	s.mu.Lock()
	err := s.editor.Save()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.changed()
	return nil
}

// CancelDay discards the staged entries.
func (s *Session) CancelDay() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Cancel()
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange(s)
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccess = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess.Before(cutoff)
}

// SessionManager keeps one Session per signed-in identity and hydrates
// it on first access. Idle sessions are evicted periodically; the next
// request simply re-hydrates.
type SessionManager struct {
	profiles *ProfileService
	logger   *log.Logger
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[string]*Session

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

func NewSessionManager(profiles *ProfileService, logger *log.Logger, ttl time.Duration) *SessionManager {
	m := &SessionManager{
		profiles:    profiles,
		logger:      logger.WithComponent("sessions"),
		ttl:         ttl,
		sessions:    make(map[string]*Session),
		stopCleanup: make(chan struct{}),
	}
	go m.startCleanup()
	return m
}

// Get returns the session for uid, creating and hydrating it on first
// access.
func (m *SessionManager) Get(ctx context.Context, uid string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[uid]
	if !ok {
		sess = newSession(uid, m.profiles.SchedulePersist)
		m.sessions[uid] = sess
	}
	m.mu.Unlock()

	sess.touch()
	if !sess.Hydrated() {
		if err := m.profiles.HydrateSession(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// Evict drops the session for uid, if any. Called on sign-out and
// account deletion.
func (m *SessionManager) Evict(uid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, uid)
}

func (m *SessionManager) startCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *SessionManager) evictIdle() {
	cutoff := time.Now().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	for uid, sess := range m.sessions {
		if sess.idleSince(cutoff) {
			delete(m.sessions, uid)
			m.logger.Debug("Evicted idle session", "uid", uid)
		}
	}
}

// Shutdown stops the cleanup goroutine.
func (m *SessionManager) Shutdown() {
	m.shutdownOnce.Do(func() {
		close(m.stopCleanup)
	})
}
