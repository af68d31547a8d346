package inmem

import (
	"sort"
	"sync"
	"time"

	"github.com/tickd/tickd/model"
	"github.com/tickd/tickd/persistence"
	"github.com/tickd/tickd/util"
)

// In-process implementations used by tests and the memory
// storage-impl. The run log and queues do not survive restarts.

var _ persistence.RunDao = new(RunDao)

type RunDao struct {
	mu     sync.Mutex
	runs   map[string]string
	encDec util.EncoderDecoder[model.RunContext]
}

func NewRunDao() *RunDao {
	return &RunDao{
		runs:   make(map[string]string),
		encDec: util.NewJsonEncoderDecoder[model.RunContext](),
	}
}

func runKey(workflow string, runId string) string {
	return workflow + ":" + runId
}

func (d *RunDao) SaveRunContext(workflow string, runCtx *model.RunContext) error {
	data, err := d.encDec.Encode(*runCtx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.runs[runKey(workflow, runCtx.Id)] = string(data)
	return nil
}

func (d *RunDao) GetRunContext(workflow string, runId string) (*model.RunContext, error) {
	d.mu.Lock()
	data, ok := d.runs[runKey(workflow, runId)]
	d.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return d.encDec.Decode([]byte(data))
}

func (d *RunDao) DeleteRunContext(workflow string, runId string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.runs, runKey(workflow, runId))
	return nil
}

var _ persistence.TicketDao = new(TicketDao)

type TicketDao struct {
	mu      sync.Mutex
	tickets map[string]string
	encDec  util.EncoderDecoder[model.Ticket]
}

func NewTicketDao() *TicketDao {
	return &TicketDao{
		tickets: make(map[string]string),
		encDec:  util.NewJsonEncoderDecoder[model.Ticket](),
	}
}

func (d *TicketDao) Save(ticket model.Ticket) error {
	data, err := d.encDec.Encode(ticket)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tickets[ticket.Id] = string(data)
	return nil
}

func (d *TicketDao) Get(id string) (*model.Ticket, error) {
	d.mu.Lock()
	data, ok := d.tickets[id]
	d.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return d.encDec.Decode([]byte(data))
}

func (d *TicketDao) Update(id string, update model.TicketUpdate) error {
	ticket, err := d.Get(id)
	if err != nil {
		return err
	}
	if ticket == nil {
		return persistence.StorageLayerError{Message: "ticket not found " + id}
	}
	if update.Status != nil {
		ticket.Status = *update.Status
	}
	if update.Priority != nil {
		ticket.Priority = *update.Priority
	}
	if update.HelpfulNotes != nil {
		ticket.HelpfulNotes = *update.HelpfulNotes
	}
	if update.RelatedSkills != nil {
		ticket.RelatedSkills = *update.RelatedSkills
	}
	if update.AssignedTo != nil {
		ticket.AssignedTo = *update.AssignedTo
	}
	return d.Save(*ticket)
}

var _ persistence.UserDao = new(UserDao)

type UserDao struct {
	mu     sync.Mutex
	users  map[string]string
	encDec util.EncoderDecoder[model.User]
}

func NewUserDao() *UserDao {
	return &UserDao{
		users:  make(map[string]string),
		encDec: util.NewJsonEncoderDecoder[model.User](),
	}
}

func (d *UserDao) Save(user model.User) error {
	data, err := d.encDec.Encode(user)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.Email] = string(data)
	return nil
}

func (d *UserDao) Delete(email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.users, email)
}

func (d *UserDao) GetByEmail(email string) (*model.User, error) {
	d.mu.Lock()
	data, ok := d.users[email]
	d.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return d.encDec.Decode([]byte(data))
}

func (d *UserDao) ListByRole(role model.UserRole) ([]model.User, error) {
	d.mu.Lock()
	emails := make([]string, 0, len(d.users))
	for email := range d.users {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	raw := make([]string, 0, len(emails))
	for _, email := range emails {
		raw = append(raw, d.users[email])
	}
	d.mu.Unlock()

	users := make([]model.User, 0)
	for _, data := range raw {
		user, err := d.encDec.Decode([]byte(data))
		if err != nil {
			continue
		}
		if user.Role == role {
			users = append(users, *user)
		}
	}
	return users, nil
}

var _ persistence.Queue = new(Queue)

type Queue struct {
	mu     sync.Mutex
	queues map[string][][]byte
}

func NewQueue() *Queue {
	return &Queue{
		queues: make(map[string][][]byte),
	}
}

func (q *Queue) Push(queueName string, message []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queues[queueName] = append(q.queues[queueName], message)
	return nil
}

func (q *Queue) Pop(queueName string, batchSize int) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.queues[queueName]
	if len(items) == 0 {
		return []string{}, nil
	}
	n := batchSize
	if n > len(items) {
		n = len(items)
	}
	res := make([]string, 0, n)
	for _, item := range items[:n] {
		res = append(res, string(item))
	}
	q.queues[queueName] = items[n:]
	return res, nil
}

var _ persistence.DelayQueue = new(DelayQueue)

type delayedItem struct {
	wakeTime int64
	message  []byte
}

type DelayQueue struct {
	mu      sync.Mutex
	delayed map[string][]delayedItem
}

func NewDelayQueue() *DelayQueue {
	return &DelayQueue{
		delayed: make(map[string][]delayedItem),
	}
}

func (q *DelayQueue) PushWithDelay(queueName string, delay time.Duration, message []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.delayed[queueName] = append(q.delayed[queueName], delayedItem{
		wakeTime: time.Now().Add(delay).UnixMilli(),
		message:  message,
	})
	return nil
}

func (q *DelayQueue) Pop(queueName string) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now().UnixMilli()
	due := make([]string, 0)
	remaining := make([]delayedItem, 0)
	for _, item := range q.delayed[queueName] {
		if item.wakeTime <= now {
			due = append(due, string(item.message))
		} else {
			remaining = append(remaining, item)
		}
	}
	q.delayed[queueName] = remaining
	return due, nil
}
