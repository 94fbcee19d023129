package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
	"github.com/vncsmyrnk/blindpoll/internal/core/ports"
)

// Session is the per-voter context threaded through protocol calls: the
// global response-chit key (read-only once fetched), the logout flag and the
// trouble indicator.
type Session struct {
	ID       uuid.UUID
	Identity string
	Trouble  *Trouble

	mu          sync.RWMutex
	responseKey domain.PublicKey
	loggedOut   bool
}

func NewSession(identity string, metrics *Metrics, l *zap.Logger) *Session {
	id := uuid.New()
	return &Session{
		ID:       id,
		Identity: identity,
		Trouble:  newTrouble(metrics, l.With(zap.String("session_id", id.String()))),
	}
}

func (s *Session) SetResponseKey(key domain.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseKey = key
}

func (s *Session) ResponseKey() domain.PublicKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.responseKey
}

func (s *Session) LogOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedOut = true
}

func (s *Session) LoggedOut() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedOut
}

func (s *Session) View() ports.SessionView {
	return ports.SessionView{
		ID:        s.ID,
		Identity:  s.Identity,
		LoggedOut: s.LoggedOut(),
		Trouble:   s.Trouble.Active(),
		Reports:   s.Trouble.Reports(),
	}
}

// Trouble is set by the first report and never cleared.
type Trouble struct {
	mu      sync.Mutex
	reports []ports.TroubleReport
	metrics *Metrics
	l       *zap.Logger
}

func newTrouble(metrics *Metrics, l *zap.Logger) *Trouble {
	return &Trouble{metrics: metrics, l: l}
}

func (t *Trouble) Report(kind string, questionID int64, message string) {
	t.mu.Lock()
	t.reports = append(t.reports, ports.TroubleReport{
		Kind:       kind,
		QuestionID: questionID,
		Message:    message,
		At:         time.Now(),
	})
	t.mu.Unlock()

	t.metrics.troubleReports.WithLabelValues(kind).Inc()
	t.l.Warn("trouble reported",
		zap.String("kind", kind),
		zap.Int64("question_id", questionID),
		zap.String("message", message))
}

func (t *Trouble) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.reports) > 0
}

func (t *Trouble) Reports() []ports.TroubleReport {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ports.TroubleReport(nil), t.reports...)
}
