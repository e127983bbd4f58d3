package server

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/allyourbase/dialplan/phonenumber"
	"github.com/google/uuid"
)

var (
	errSessionNotFound = errors.New("session not found")
	errTooManySessions = errors.New("too many active sessions")
)

// session is one as-you-type formatter driven over HTTP. mu serializes
// requests against the same session.
type session struct {
	mu       sync.Mutex
	id       string
	region   string
	fmt      *phonenumber.AsYouTypeFormatter
	output   string
	lastUsed time.Time
}

// sessionStore holds live as-you-type sessions and expires idle ones.
type sessionStore struct {
	engine *phonenumber.Engine
	logger *slog.Logger
	ttl    time.Duration
	max    int
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*session

	// onRemove, if set, runs with the store locked whenever a session
	// is deleted or expires.
	onRemove func(id string)

	stop     chan struct{}
	stopOnce sync.Once
}

func newSessionStore(engine *phonenumber.Engine, logger *slog.Logger, ttl time.Duration, max int) *sessionStore {
	return &sessionStore{
		engine:   engine,
		logger:   logger,
		ttl:      ttl,
		max:      max,
		now:      time.Now,
		sessions: make(map[string]*session),
		stop:     make(chan struct{}),
	}
}

// startJanitor expires idle sessions every interval until close is called.
func (st *sessionStore) startJanitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := st.expire(); n > 0 {
					st.logger.Debug("expired as-you-type sessions", "count", n)
				}
			case <-st.stop:
				return
			}
		}
	}()
}

func (st *sessionStore) close() {
	st.stopOnce.Do(func() { close(st.stop) })
}

// create starts a session for region. Idle sessions are expired first when
// the store is at capacity.
func (st *sessionStore) create(region string) (*session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.sessions) >= st.max {
		st.expireLocked()
		if len(st.sessions) >= st.max {
			return nil, errTooManySessions
		}
	}
	s := &session{
		id:       uuid.NewString(),
		region:   region,
		fmt:      st.engine.NewAsYouTypeFormatter(region),
		lastUsed: st.now(),
	}
	st.sessions[s.id] = s
	return s, nil
}

// get returns the session with id, refreshing its idle timer. Expired
// sessions are removed and reported as not found.
func (st *sessionStore) get(id string) (*session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	now := st.now()
	if now.Sub(s.lastUsed) > st.ttl {
		st.dropLocked(id)
		return nil, errSessionNotFound
	}
	s.lastUsed = now
	return s, nil
}

func (st *sessionStore) remove(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	st.dropLocked(id)
	return true
}

func (st *sessionStore) dropLocked(id string) {
	delete(st.sessions, id)
	if st.onRemove != nil {
		st.onRemove(id)
	}
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *sessionStore) expire() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.expireLocked()
}

func (st *sessionStore) expireLocked() int {
	cutoff := st.now().Add(-st.ttl)
	n := 0
	for id, s := range st.sessions {
		if s.lastUsed.Before(cutoff) {
			st.dropLocked(id)
			n++
		}
	}
	return n
}

// input feeds digits to the session formatter one rune at a time. When
// remember is set, the last rune typed is the one whose position is tracked.
func (s *session) input(digits string, remember bool) (output string, position int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runes := []rune(digits)
	for i, c := range runes {
		if remember && i == len(runes)-1 {
			s.output = s.fmt.InputDigitAndRememberPosition(c)
		} else {
			s.output = s.fmt.InputDigit(c)
		}
	}
	return s.output, s.fmt.RememberedPosition()
}

func (s *session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fmt.Clear()
	s.output = ""
}
