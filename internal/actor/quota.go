package actor

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// quotaIdle is how long a sender may stay silent before its limiter is
// forgotten. A limiter idle that long has refilled its whole burst.
const quotaIdle = time.Minute

type senderQuota struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Quota is a per-sender request budget
type Quota struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	senders   map[string]*senderQuota
	lastSweep time.Time
	now       func() time.Time
}

// NewQuota allows perMinute requests per sender per minute.
// A non-positive value disables the quota.
func NewQuota(perMinute int) *Quota {
	q := &Quota{
		limit:   rate.Inf,
		burst:   1,
		senders: make(map[string]*senderQuota),
		now:     time.Now,
	}
	if perMinute > 0 {
		q.limit = rate.Every(time.Minute / time.Duration(perMinute))
		q.burst = perMinute
	}
	return q
}

// Allow reports whether sender may make one more request now
func (q *Quota) Allow(sender string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	if now.Sub(q.lastSweep) >= quotaIdle {
		q.sweep(now)
	}

	s, ok := q.senders[sender]
	if !ok {
		s = &senderQuota{limiter: rate.NewLimiter(q.limit, q.burst)}
		q.senders[sender] = s
	}
	s.lastSeen = now
	return s.limiter.AllowN(now, 1)
}

// sweep drops senders idle for quotaIdle or longer
func (q *Quota) sweep(now time.Time) {
	for sender, s := range q.senders {
		if now.Sub(s.lastSeen) >= quotaIdle {
			delete(q.senders, sender)
		}
	}
	q.lastSweep = now
}
