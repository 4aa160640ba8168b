package pipeline

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_response_system/internal/models"
)

const (
	maxNotifications = 50
	subscriberBuffer = 32
)

// session - состояние одной вкладки панели. Все поля кроме флагов защищены mu.
type session struct {
	id uuid.UUID

	mu           sync.Mutex
	state        models.SessionState
	progress     float64
	location     models.Location
	languageMode string
	media        string
	incident     *models.IncidentReport
	translation  *models.TranslatedBundle
	logs         []models.LogEntry
	notes        []models.Notification
	updatedAt    time.Time

	// generation меняется при каждой загрузке и сбросе; результат анализа старого поколения отбрасывается
	generation uint64
	// translateSeq - номер последнего запрошенного перевода
	translateSeq uint64

	subs    map[int]chan models.SessionEvent
	nextSub int
	closed  bool

	speaking    atomic.Bool
	dispatching atomic.Bool
}

func newSession(loc models.Location) *session {
	return &session{
		id:           uuid.New(),
		state:        models.StateIdle,
		location:     loc,
		languageMode: models.LanguageModeRegional,
		subs:         make(map[int]chan models.SessionEvent),
		updatedAt:    time.Now().UTC(),
	}
}

// snapshotLocked требует удержания mu
func (s *session) snapshotLocked() models.SessionSnapshot {
	snap := models.SessionSnapshot{
		ID:           s.id,
		State:        s.state,
		Progress:     s.progressValue(),
		Location:     s.location,
		LanguageMode: s.languageMode,
		HasMedia:     s.media != "",
		Speaking:     s.speaking.Load(),
		Dispatching:  s.dispatching.Load(),
		LogCount:     len(s.logs),
		UpdatedAt:    s.updatedAt,
	}
	if s.incident != nil {
		inc := *s.incident
		snap.Incident = &inc
	}
	if s.translation != nil {
		tr := *s.translation
		snap.Translation = &tr
	}
	return snap
}

func (s *session) snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *session) progressValue() int {
	return int(math.Floor(s.progress))
}

// setStateLocked меняет состояние и оповещает подписчиков
func (s *session) setStateLocked(state models.SessionState) {
	s.state = state
	s.updatedAt = time.Now().UTC()
	s.publishLocked(models.SessionEvent{Type: models.EventState, State: state, Progress: s.progressValue()})
}

// noteLocked добавляет уведомление, новые первыми
func (s *session) noteLocked(level models.NotificationLevel, title, description string) models.Notification {
	n := models.Notification{
		ID:          uuid.New(),
		Level:       level,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	s.notes = append([]models.Notification{n}, s.notes...)
	if len(s.notes) > maxNotifications {
		s.notes = s.notes[:maxNotifications]
	}
	s.publishLocked(models.SessionEvent{Type: models.EventNotification, Notification: &n})
	return n
}

// publishLocked не блокируется: медленный подписчик теряет событие
func (s *session) publishLocked(ev models.SessionEvent) {
	if s.closed {
		return
	}
	ev.SessionID = s.id
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *session) subscribe() (<-chan models.SessionEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan models.SessionEvent, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// close закрывает всех подписчиков; после этого события не рассылаются
func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.generation++
	s.translateSeq++
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
