package workflow_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tickd/tickd/assign"
	"github.com/tickd/tickd/config"
	"github.com/tickd/tickd/engine"
	"github.com/tickd/tickd/executor"
	"github.com/tickd/tickd/model"
	"github.com/tickd/tickd/notify"
	"github.com/tickd/tickd/oracle"
	"github.com/tickd/tickd/persistence"
	"github.com/tickd/tickd/persistence/inmem"
	"github.com/tickd/tickd/workflow"
)

type fakeOracle struct {
	classification *oracle.Classification
	calls          int32
}

func (o *fakeOracle) Classify(title string, description string) *oracle.Classification {
	atomic.AddInt32(&o.calls, 1)
	return o.classification
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	result notify.MailResult
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{result: notify.MailResult{Success: true}}
}

func (m *fakeMailer) Send(to string, subject string, body string) notify.MailResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return m.result
}

func (m *fakeMailer) sentMails() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail{}, m.sent...)
}

type countingTicketDao struct {
	persistence.TicketDao
	gets int32
}

func (d *countingTicketDao) Get(id string) (*model.Ticket, error) {
	atomic.AddInt32(&d.gets, 1)
	return d.TicketDao.Get(id)
}

type triageHarness struct {
	engine  *engine.Engine
	tickets *countingTicketDao
	users   *inmem.UserDao
	oracle  *fakeOracle
	mailer  *fakeMailer
	runDao  *inmem.RunDao
}

func newTriageHarness(t *testing.T, classification *oracle.Classification) *triageHarness {
	runDao := inmem.NewRunDao()
	delayQueue := inmem.NewDelayQueue()
	tickets := &countingTicketDao{TicketDao: inmem.NewTicketDao()}
	users := inmem.NewUserDao()
	classifier := &fakeOracle{classification: classification}
	mailer := newFakeMailer()
	wg := &sync.WaitGroup{}

	conf := config.EngineConfig{MaxRetries: 2, RetryDelay: 10 * time.Millisecond}
	eng := engine.NewEngine(runDao, delayQueue, conf, wg)
	eng.Register(workflow.NewTicketCreated(tickets, classifier, assign.NewResolver(users), mailer))
	eng.Start()

	retry := executor.NewRetryExecutor(delayQueue, eng, 10*time.Millisecond, wg)
	require.NoError(t, retry.Start())

	t.Cleanup(func() {
		require.NoError(t, retry.Stop())
		require.NoError(t, eng.Stop())
		wg.Wait()
	})
	return &triageHarness{
		engine:  eng,
		tickets: tickets,
		users:   users,
		oracle:  classifier,
		mailer:  mailer,
		runDao:  runDao,
	}
}

func (h *triageHarness) seedTicket(t *testing.T) model.Ticket {
	ticket := model.Ticket{
		Id:          "t-1",
		Title:       "Payment page crashes",
		Description: "Checkout fails with a blank screen on submit",
		CreatedBy:   "reporter@corp.io",
	}
	require.NoError(t, h.tickets.Save(ticket))
	return ticket
}

func (h *triageHarness) seedModerator(t *testing.T, email string, skills ...string) {
	require.NoError(t, h.users.Save(model.User{
		Email:  email,
		Role:   model.ROLE_MODERATOR,
		Skills: skills,
	}))
}

func (h *triageHarness) trigger(t *testing.T, ticketId string) string {
	runIds, err := h.engine.Trigger(model.Event{
		Name: model.EVENT_TICKET_CREATED,
		Data: map[string]any{"ticketId": ticketId},
	})
	require.NoError(t, err)
	require.Len(t, runIds, 1)
	return runIds[0]
}

func waitForTerminal(t *testing.T, runDao *inmem.RunDao, workflowName string, runId string) *model.RunContext {
	var runCtx *model.RunContext
	require.Eventually(t, func() bool {
		var err error
		runCtx, err = runDao.GetRunContext(workflowName, runId)
		return err == nil && runCtx != nil && runCtx.IsTerminal()
	}, 3*time.Second, 10*time.Millisecond)
	return runCtx
}

func TestTicketCreatedFullTriage(t *testing.T) {
	h := newTriageHarness(t, &oracle.Classification{
		Summary:       "Checkout crash",
		Priority:      model.TICKET_PRIORITY_HIGH,
		HelpfulNotes:  "Reproduce with an expired card",
		RelatedSkills: []string{"react", "payments"},
	})
	ticket := h.seedTicket(t)
	h.seedModerator(t, "mod@corp.io", "payments")
	h.seedModerator(t, "other@corp.io", "database")

	runId := h.trigger(t, ticket.Id)
	runCtx := waitForTerminal(t, h.runDao, "on-ticket-created", runId)
	require.Equal(t, model.COMPLETED, runCtx.State)
	require.True(t, runCtx.Result.Success)

	stored, err := h.tickets.Get(ticket.Id)
	require.NoError(t, err)
	require.Equal(t, model.TICKET_STATUS_IN_PROGRESS, stored.Status)
	require.Equal(t, model.TICKET_PRIORITY_HIGH, stored.Priority)
	require.Equal(t, "Reproduce with an expired card", stored.HelpfulNotes)
	require.Equal(t, []string{"react", "payments"}, stored.RelatedSkills)
	require.Equal(t, "mod@corp.io", stored.AssignedTo)

	mails := h.mailer.sentMails()
	require.Len(t, mails, 1)
	require.Equal(t, "mod@corp.io", mails[0].To)
	require.Equal(t, "Ticket Assigned", mails[0].Subject)
	require.Contains(t, mails[0].Body, ticket.Title)
}

func TestTicketCreatedOracleUnavailableAppliesDefaults(t *testing.T) {
	h := newTriageHarness(t, nil)
	ticket := h.seedTicket(t)
	h.seedModerator(t, "mod@corp.io", "general")

	runId := h.trigger(t, ticket.Id)
	runCtx := waitForTerminal(t, h.runDao, "on-ticket-created", runId)
	require.Equal(t, model.COMPLETED, runCtx.State)

	stored, err := h.tickets.Get(ticket.Id)
	require.NoError(t, err)
	require.Equal(t, model.TICKET_STATUS_IN_PROGRESS, stored.Status)
	require.Equal(t, model.TICKET_PRIORITY_MEDIUM, stored.Priority)
	require.Equal(t, "AI analysis unavailable - manual review required", stored.HelpfulNotes)
	require.Equal(t, []string{"general"}, stored.RelatedSkills)
	require.Equal(t, "mod@corp.io", stored.AssignedTo)
}

func TestTicketCreatedEmptyNotesGetDefaultNote(t *testing.T) {
	h := newTriageHarness(t, &oracle.Classification{
		Priority:      model.TICKET_PRIORITY_LOW,
		RelatedSkills: []string{"database"},
	})
	ticket := h.seedTicket(t)

	runId := h.trigger(t, ticket.Id)
	runCtx := waitForTerminal(t, h.runDao, "on-ticket-created", runId)
	require.Equal(t, model.COMPLETED, runCtx.State)

	stored, err := h.tickets.Get(ticket.Id)
	require.NoError(t, err)
	require.Equal(t, "AI analysis completed", stored.HelpfulNotes)
	require.Equal(t, model.TICKET_PRIORITY_LOW, stored.Priority)
}

func TestTicketCreatedMissingTicketFailsWithoutRetry(t *testing.T) {
	h := newTriageHarness(t, nil)

	runId := h.trigger(t, "no-such-ticket")
	runCtx := waitForTerminal(t, h.runDao, "on-ticket-created", runId)
	require.Equal(t, model.FAILED, runCtx.State)
	require.Contains(t, runCtx.Result.Error, "no-such-ticket")

	// non-retriable: the lookup must not have been retried
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&h.tickets.gets))
	require.Equal(t, int32(0), atomic.LoadInt32(&h.oracle.calls))
}

func TestTicketCreatedNoHandlersCompletesUnassigned(t *testing.T) {
	h := newTriageHarness(t, &oracle.Classification{
		Priority:      model.TICKET_PRIORITY_HIGH,
		RelatedSkills: []string{"react"},
	})
	ticket := h.seedTicket(t)

	runId := h.trigger(t, ticket.Id)
	runCtx := waitForTerminal(t, h.runDao, "on-ticket-created", runId)
	require.Equal(t, model.COMPLETED, runCtx.State)

	stored, err := h.tickets.Get(ticket.Id)
	require.NoError(t, err)
	require.Empty(t, stored.AssignedTo)
	require.Empty(t, h.mailer.sentMails())
}

func TestTicketCreatedMailFailureDoesNotFailRun(t *testing.T) {
	h := newTriageHarness(t, nil)
	h.mailer.result = notify.MailResult{Success: false, Error: "sendgrid down"}
	ticket := h.seedTicket(t)
	h.seedModerator(t, "mod@corp.io", "general")

	runId := h.trigger(t, ticket.Id)
	runCtx := waitForTerminal(t, h.runDao, "on-ticket-created", runId)
	require.Equal(t, model.COMPLETED, runCtx.State)
	require.True(t, runCtx.Result.Success)

	stored, err := h.tickets.Get(ticket.Id)
	require.NoError(t, err)
	require.Equal(t, "mod@corp.io", stored.AssignedTo)
	require.Len(t, h.mailer.sentMails(), 1)
}
