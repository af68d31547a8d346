package workflow

import (
	"encoding/json"

	"github.com/tickd/tickd/assign"
	"github.com/tickd/tickd/engine"
	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/model"
	"github.com/tickd/tickd/notify"
	"github.com/tickd/tickd/oracle"
	"github.com/tickd/tickd/persistence"
	"github.com/tickd/tickd/util"
	"go.uber.org/zap"
)

// Classifier is the classification oracle the triage workflow calls.
// A nil classification means the oracle degraded; defaults apply.
type Classifier interface {
	Classify(title string, description string) *oracle.Classification
}

const assignedMailSubject string = "Ticket Assigned"
const assignedMailBody string = "A new ticket is assigned to you {$.ticket.title}"

const defaultHelpfulNotes string = "AI analysis unavailable - manual review required"

var _ engine.Definition = new(TicketCreated)

type TicketCreated struct {
	tickets  persistence.TicketDao
	oracle   Classifier
	resolver *assign.Resolver
	mailer   notify.Mailer
}

func NewTicketCreated(tickets persistence.TicketDao, classifier Classifier, resolver *assign.Resolver, mailer notify.Mailer) *TicketCreated {
	return &TicketCreated{
		tickets:  tickets,
		oracle:   classifier,
		resolver: resolver,
		mailer:   mailer,
	}
}

func (w *TicketCreated) Name() string {
	return "on-ticket-created"
}

func (w *TicketCreated) Event() string {
	return model.EVENT_TICKET_CREATED
}

func (w *TicketCreated) Execute(run *engine.Run) error {
	ticketId := run.Event().StringData("ticketId")

	ticket, err := engine.RunStep(run, "fetch-ticket", func() (model.Ticket, error) {
		t, err := w.tickets.Get(ticketId)
		if err != nil {
			return model.Ticket{}, err
		}
		if t == nil {
			return model.Ticket{}, engine.NewNonRetriableError("ticket not found " + ticketId)
		}
		return *t, nil
	})
	if err != nil {
		return err
	}

	_, err = engine.RunStep(run, "update-ticket-status", func() (struct{}, error) {
		status := model.TICKET_STATUS_TODO
		return struct{}{}, w.tickets.Update(ticket.Id, model.TicketUpdate{Status: &status})
	})
	if err != nil {
		return err
	}

	classification, err := engine.RunStep(run, "classify-ticket", func() (*oracle.Classification, error) {
		return w.oracle.Classify(ticket.Title, ticket.Description), nil
	})
	if err != nil {
		return err
	}

	relatedSkills, err := engine.RunStep(run, "process-ai-response", func() ([]string, error) {
		status := model.TICKET_STATUS_IN_PROGRESS
		if classification != nil && len(classification.RelatedSkills) > 0 {
			priority := classification.Priority
			notes := classification.HelpfulNotes
			if notes == "" {
				notes = "AI analysis completed"
			}
			update := model.TicketUpdate{
				Status:        &status,
				Priority:      &priority,
				HelpfulNotes:  &notes,
				RelatedSkills: &classification.RelatedSkills,
			}
			if err := w.tickets.Update(ticket.Id, update); err != nil {
				return nil, err
			}
			return classification.RelatedSkills, nil
		}
		logger.Warn("classification unavailable, applying defaults", zap.String("ticketId", ticket.Id))
		priority := model.TICKET_PRIORITY_MEDIUM
		notes := defaultHelpfulNotes
		skills := []string{"general"}
		update := model.TicketUpdate{
			Status:        &status,
			Priority:      &priority,
			HelpfulNotes:  &notes,
			RelatedSkills: &skills,
		}
		if err := w.tickets.Update(ticket.Id, update); err != nil {
			return nil, err
		}
		return skills, nil
	})
	if err != nil {
		return err
	}

	assignee, err := engine.RunStep(run, "assign-moderator", func() (*model.User, error) {
		user, err := w.resolver.Resolve(relatedSkills)
		if err != nil {
			return nil, err
		}
		if user == nil {
			logger.Warn("ticket left unassigned", zap.String("ticketId", ticket.Id))
			return nil, nil
		}
		if err := w.tickets.Update(ticket.Id, model.TicketUpdate{AssignedTo: &user.Email}); err != nil {
			return nil, err
		}
		logger.Info("ticket assigned", zap.String("ticketId", ticket.Id), zap.String("assignee", user.Email))
		return user, nil
	})
	if err != nil {
		return err
	}

	_, err = engine.RunStep(run, "send-email-notification", func() (struct{}, error) {
		if assignee == nil {
			return struct{}{}, nil
		}
		finalTicket, err := w.tickets.Get(ticket.Id)
		if err != nil {
			return struct{}{}, err
		}
		body := util.ResolveTemplate(map[string]any{"ticket": toMap(finalTicket)}, assignedMailBody)
		result := w.mailer.Send(assignee.Email, assignedMailSubject, body)
		if !result.Success {
			logger.Warn("assignment mail not delivered", zap.String("ticketId", ticket.Id), zap.String("to", assignee.Email), zap.String("error", result.Error))
		}
		return struct{}{}, nil
	})
	return err
}

func toMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	out := make(map[string]any)
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	return out
}
