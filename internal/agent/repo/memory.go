package repo

import (
	"context"
	"sync"

	"github.com/whatsapp-bot/server/internal/agent/model"
)

// MemoryConversationRepository is the process-local store. It has no eviction
// and loses everything on restart.
type MemoryConversationRepository struct {
	mu        sync.RWMutex
	histories map[string][]model.ConversationEntry
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{
		histories: make(map[string][]model.ConversationEntry),
	}
}

func (m *MemoryConversationRepository) GetOrCreate(_ context.Context, userID string) ([]model.ConversationEntry, error) {
	m.mu.RLock()
	history, ok := m.histories[userID]
	if ok {
		out := make([]model.ConversationEntry, len(history))
		copy(out, history)
		m.mu.RUnlock()
		return out, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	// another request may have registered it meanwhile
	history, ok = m.histories[userID]
	if !ok {
		m.histories[userID] = []model.ConversationEntry{}
	}
	out := make([]model.ConversationEntry, len(history))
	copy(out, history)
	return out, nil
}

func (m *MemoryConversationRepository) AppendTurn(_ context.Context, userID, userText, replyText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.histories[userID] = append(m.histories[userID],
		model.ConversationEntry{Role: model.RoleUser, Text: userText},
		model.ConversationEntry{Role: model.RoleAssistant, Text: replyText},
	)
	return nil
}

func (m *MemoryConversationRepository) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.histories[userID]; ok {
		m.histories[userID] = []model.ConversationEntry{}
	}
	return nil
}

// Users reports how many user ids have a registered history.
func (m *MemoryConversationRepository) Users() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.histories)
}

var _ model.ConversationStore = (*MemoryConversationRepository)(nil)
