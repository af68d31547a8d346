package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/model"
	"go.uber.org/zap"
)

type createTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedBy   string `json:"createdBy"`
}

// HandleCreateTicket persists the ticket first and only then
// publishes ticket/created, so the triage workflow always finds the
// document it was triggered for.
func (s *Server) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var req createTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	ticket := model.Ticket{
		Id:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Status:      model.TICKET_STATUS_TODO,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   time.Now().UnixMilli(),
	}
	if err := s.tickets.Save(ticket); err != nil {
		logger.Error("error saving ticket", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error saving ticket")
		return
	}
	err := s.bus.Publish(model.EVENT_TICKET_CREATED, map[string]any{
		"ticketId":    ticket.Id,
		"title":       ticket.Title,
		"description": ticket.Description,
		"createdBy":   ticket.CreatedBy,
	})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "error publishing ticket event")
		return
	}
	respondOK(w, map[string]string{"ticketId": ticket.Id})
}

func (s *Server) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ticket, err := s.tickets.Get(vars["id"])
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "error reading ticket")
		return
	}
	if ticket == nil {
		respondWithError(w, http.StatusNotFound, "ticket not found")
		return
	}
	respondOK(w, ticket)
}
