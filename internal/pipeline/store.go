package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shenikar/incident_response_system/internal/metrics"
)

// sessionStore держит живые сессии. Сессия истекает после ttl без обращений.
type sessionStore struct {
	cache *cache.Cache
}

// cleanupInterval 0 отключает фоновую очистку, истекшие сессии тогда удаляются при обращении
func newSessionStore(ttl, cleanupInterval time.Duration) *sessionStore {
	c := cache.New(ttl, cleanupInterval)
	c.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*session); ok {
			s.close()
		}
		metrics.SessionsActive.Dec()
	})
	return &sessionStore{cache: c}
}

func (st *sessionStore) add(s *session) {
	st.cache.SetDefault(s.id.String(), s)
	metrics.SessionsActive.Inc()
}

// get продлевает срок жизни сессии
func (st *sessionStore) get(id uuid.UUID) (*session, bool) {
	v, ok := st.cache.Get(id.String())
	if !ok {
		return nil, false
	}
	s := v.(*session)
	_ = st.cache.Replace(id.String(), s, cache.DefaultExpiration)
	return s, true
}

func (st *sessionStore) delete(id uuid.UUID) bool {
	if _, ok := st.cache.Get(id.String()); !ok {
		return false
	}
	st.cache.Delete(id.String())
	return true
}

func (st *sessionStore) flush() {
	for k := range st.cache.Items() {
		st.cache.Delete(k)
	}
}
