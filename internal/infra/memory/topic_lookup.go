package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"exam-session-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// StaticTopicLookup resolves topics from an in-memory map.
type StaticTopicLookup struct {
	topics map[string]string
}

func NewStaticTopicLookup(topics map[string]string) *StaticTopicLookup {
	return &StaticTopicLookup{topics: topics}
}

func (l *StaticTopicLookup) GetTopic(_ context.Context, topicID string) (domain.Topic, error) {
	name, ok := l.topics[topicID]
	if !ok {
		return domain.Topic{}, domain.E(domain.KindNotFound, "topic %s not found", topicID)
	}
	return domain.Topic{ID: topicID, Name: name}, nil
}

// TopicLookup is the backing resolver a CachedTopicLookup wraps.
type TopicLookup interface {
	GetTopic(ctx context.Context, topicID string) (domain.Topic, error)
}

// CachedTopicLookup caches topic lookups with TTL to avoid repeated
// collaborator hits when the hosting process is reused across requests.
// Safe for concurrent use.
type CachedTopicLookup struct {
	backing TopicLookup
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand
	rndMu   sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedTopic
}

type cachedTopic struct {
	topic     domain.Topic
	expiresAt time.Time
}

func NewCachedTopicLookup(backing TopicLookup, ttl time.Duration) *CachedTopicLookup {
	return &CachedTopicLookup{
		backing: backing,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedTopic),
	}
}

// WithClock swaps the time source so tests can control expiry.
func (l *CachedTopicLookup) WithClock(clock func() time.Time) *CachedTopicLookup {
	l.clock = clock
	return l
}

func (l *CachedTopicLookup) GetTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	now := l.clock()

	l.mu.RLock()
	if entry, ok := l.cache[topicID]; ok && entry.expiresAt.After(now) {
		l.mu.RUnlock()
		return entry.topic, nil
	}
	l.mu.RUnlock()

	result, err, _ := l.sf.Do(topicID, func() (interface{}, error) {
		now := l.clock()
		l.mu.RLock()
		if entry, ok := l.cache[topicID]; ok && entry.expiresAt.After(now) {
			l.mu.RUnlock()
			return entry.topic, nil
		}
		l.mu.RUnlock()

		topic, err := l.backing.GetTopic(ctx, topicID)
		if err != nil {
			return domain.Topic{}, err
		}

		l.mu.Lock()
		l.cache[topicID] = cachedTopic{
			topic:     topic,
			expiresAt: now.Add(l.ttlWithJitter()),
		}
		l.mu.Unlock()
		return topic, nil
	})
	if err != nil {
		return domain.Topic{}, err
	}
	return result.(domain.Topic), nil
}

func (l *CachedTopicLookup) ttlWithJitter() time.Duration {
	if l.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(l.ttl) / 10
	l.rndMu.Lock()
	defer l.rndMu.Unlock()
	return l.ttl + time.Duration(l.rnd.Int63n(jitterMax+1))
}
