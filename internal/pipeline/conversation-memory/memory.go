// internal/pipeline/conversation-memory/memory.go
package conversationmemory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"compair/internal/common/logger"
	"compair/internal/common/metrics"
	"compair/internal/models"
	"compair/internal/store"
)

const keyPrefix = "thread:"

var (
	ErrNotFound         = errors.New("CONVERSATION_NOT_FOUND")
	ErrEmptyQuestion    = errors.New("CONVERSATION_EMPTY_QUESTION")
	ErrStoreUnavailable = errors.New("STORE_UNAVAILABLE")
)

// Memory keeps one follow-up thread per comparison id. Turns for the same id are
// serialized in-process; different ids never block each other.
type Memory struct {
	config   *Config
	store    store.Store
	composer Composer
	answerer Answerer
	logger   logger.Logger
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*threadLock
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

func New(cfg *Config, st store.Store, composer Composer, answerer Answerer, log logger.Logger) *Memory {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Memory{
		config:   cfg,
		store:    st,
		composer: composer,
		answerer: answerer,
		logger:   logger.ForComponent(log, "conversation-memory"),
		now:      time.Now,
		locks:    make(map[string]*threadLock),
	}
}

// WithClock overrides the time source, for tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func key(comparisonID string) string {
	return keyPrefix + comparisonID
}

// Seed starts an empty thread for a completed comparison, replacing any previous one.
func (m *Memory) Seed(ctx context.Context, comparisonID string, result models.Outcome, items []string, category models.Category) error {
	now := m.now().UTC()
	thread := models.ConversationThread{
		ComparisonID: comparisonID,
		Category:     category,
		Items:        append([]string(nil), items...),
		Result:       result.Document(),
		Messages:     []models.Message{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.save(ctx, thread); err != nil {
		return err
	}
	m.logger.Debug("Seeded conversation thread", map[string]interface{}{"comparisonId": comparisonID})
	return nil
}

// AppendAndAsk answers question in the context of the thread. The user and assistant
// turns are appended together, and only when the answer succeeded.
func (m *Memory) AppendAndAsk(ctx context.Context, comparisonID, question string) (Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{}, ErrEmptyQuestion
	}

	unlock := m.lock(comparisonID)
	defer unlock()

	thread, err := m.load(ctx, comparisonID)
	if err != nil {
		metrics.Followups.WithLabelValues("not_found").Inc()
		return Reply{}, err
	}

	prompt := m.composer.ComposeForFollowup(thread.Clone(), question)
	asked := m.now().UTC()
	answer, err := m.answerer.Answer(ctx, prompt)
	if err != nil {
		metrics.Followups.WithLabelValues("failed").Inc()
		m.logger.Error("Follow-up answer failed", map[string]interface{}{
			"comparisonId": comparisonID,
			"error":        err.Error(),
		})
		return Reply{}, err
	}

	answered := m.now().UTC()
	thread.Messages = append(thread.Messages,
		models.Message{Role: models.RoleUser, Content: question, Timestamp: asked},
		models.Message{Role: models.RoleAssistant, Content: answer, Timestamp: answered},
	)
	thread.UpdatedAt = answered
	if err := m.save(ctx, thread); err != nil {
		metrics.Followups.WithLabelValues("failed").Inc()
		return Reply{}, err
	}

	metrics.Followups.WithLabelValues("answered").Inc()
	m.logger.Info("Answered follow-up", map[string]interface{}{
		"comparisonId": comparisonID,
		"turns":        len(thread.Messages),
	})
	return Reply{
		ComparisonID: comparisonID,
		Answer:       answer,
		History:      append([]models.Message(nil), thread.Messages...),
	}, nil
}

// History returns the ordered turns of a thread.
func (m *Memory) History(ctx context.Context, comparisonID string) ([]models.Message, error) {
	thread, err := m.load(ctx, comparisonID)
	if err != nil {
		return nil, err
	}
	return thread.Clone().Messages, nil
}

func (m *Memory) load(ctx context.Context, comparisonID string) (models.ConversationThread, error) {
	if strings.TrimSpace(comparisonID) == "" {
		return models.ConversationThread{}, ErrNotFound
	}
	raw, err := m.store.Get(ctx, key(comparisonID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.ConversationThread{}, ErrNotFound
		}
		return models.ConversationThread{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	var thread models.ConversationThread
	if err := json.Unmarshal(raw, &thread); err != nil {
		m.logger.Warn("Unreadable conversation thread", map[string]interface{}{
			"comparisonId": comparisonID,
			"error":        err.Error(),
		})
		return models.ConversationThread{}, ErrNotFound
	}
	return thread, nil
}

func (m *Memory) save(ctx context.Context, thread models.ConversationThread) error {
	raw, err := json.Marshal(thread)
	if err != nil {
		return fmt.Errorf("marshal thread: %w", err)
	}
	if err := m.store.Put(ctx, key(thread.ComparisonID), raw, m.config.TTL); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// lock serializes turns per thread and drops the mutex once nobody holds it.
func (m *Memory) lock(comparisonID string) func() {
	m.mu.Lock()
	l, ok := m.locks[comparisonID]
	if !ok {
		l = &threadLock{}
		m.locks[comparisonID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, comparisonID)
		}
		m.mu.Unlock()
	}
}
