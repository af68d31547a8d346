package persistence

import (
	"fmt"
	"time"

	"github.com/tickd/tickd/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

// RunDao owns the durable run log. A run context holds the memoized
// step results consulted on every re-execution.
type RunDao interface {
	SaveRunContext(workflow string, runCtx *model.RunContext) error
	GetRunContext(workflow string, runId string) (*model.RunContext, error)
	DeleteRunContext(workflow string, runId string) error
}

// TicketDao is the ticket store the workflows read and write. Get
// returns (nil, nil) when the ticket does not exist.
type TicketDao interface {
	Save(ticket model.Ticket) error
	Get(id string) (*model.Ticket, error)
	Update(id string, update model.TicketUpdate) error
}

// UserDao is the user store. Lookups that find nothing return
// (nil, nil). ListByRole returns users in a deterministic order.
type UserDao interface {
	Save(user model.User) error
	GetByEmail(email string) (*model.User, error)
	ListByRole(role model.UserRole) ([]model.User, error)
}

type Queue interface {
	Push(queueName string, message []byte) error
	Pop(queueName string, batchSize int) ([]string, error)
}

type DelayQueue interface {
	PushWithDelay(queueName string, delay time.Duration, message []byte) error
	Pop(queueName string) ([]string, error)
}
