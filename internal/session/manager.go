package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"podcast-rag-go/internal/config"
	"podcast-rag-go/pkg/log"
)

const (
	defaultMaxSessions = 1000
	defaultTTL         = 24 * time.Hour
	closeTimeout       = 10 * time.Second
)

// Manager 按会话 ID 保存会话，超出容量或过期的会话被淘汰并释放索引。
type Manager struct {
	mu      sync.Mutex
	cache   *expirable.LRU[string, *Session]
	closing sync.WaitGroup
}

func NewManager(cfg config.SessionConfig) *Manager {
	size := cfg.MaxSessions
	if size <= 0 {
		size = defaultMaxSessions
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	m := &Manager{}
	// 回调在 LRU 内部锁中执行，索引在后台释放
	onEvict := func(id string, s *Session) {
		log.Infof("[SessionManager] 会话被淘汰: %s", id)
		old := s.detach()
		if old == nil {
			return
		}
		m.closing.Add(1)
		go func() {
			defer m.closing.Done()
			ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			defer cancel()
			closeIndex(ctx, id, old)
		}()
	}
	m.cache = expirable.NewLRU[string, *Session](size, onEvict, ttl)
	return m
}

// GetOrCreate 返回指定 ID 的会话；ID 为空或不是合法 UUID 时生成新会话。
// created 表示本次调用新建了会话。
func (m *Manager) GetOrCreate(id string) (s *Session, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if s, ok := m.cache.Get(id); ok {
			return s, false
		}
		if _, err := uuid.Parse(id); err != nil {
			id = ""
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	s = New(id)
	m.cache.Add(id, s)
	log.Infof("[SessionManager] 创建新会话: %s", id)
	return s, true
}

// Get 只查找已存在的会话。
func (m *Manager) Get(id string) (*Session, bool) {
	return m.cache.Get(id)
}

func (m *Manager) Len() int { return m.cache.Len() }

// Close 淘汰全部会话，并等待所有索引释放完成。
func (m *Manager) Close() {
	m.mu.Lock()
	m.cache.Purge()
	m.mu.Unlock()
	m.closing.Wait()
}
