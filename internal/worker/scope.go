package worker

import (
	"context"

	"github.com/google/uuid"

	"github.com/shaiso/hrm/internal/agents"
	"github.com/shaiso/hrm/internal/domain"
	"github.com/shaiso/hrm/internal/llm"
)

// WorkRequestReader читает work request по ID.
// Отсутствие записи — repo.ErrNotFound.
type WorkRequestReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkRequest, error)
}

// Scope — зависимости обработки одного сообщения. Создаётся заново
// для каждой доставки и не разделяется между горутинами.
type Scope struct {
	Requests WorkRequestReader
	Agents   agents.Chain
}

// ScopeFactory создаёт Scope для очередного сообщения.
type ScopeFactory func() *Scope

// NewScopeFactory возвращает фабрику, собирающую свежий Scope из
// newReader и цепочки агентов над completer.
func NewScopeFactory(newReader func() WorkRequestReader, completer llm.Completer) ScopeFactory {
	return func() *Scope {
		return &Scope{
			Requests: newReader(),
			Agents:   agents.NewChain(completer),
		}
	}
}
