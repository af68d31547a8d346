package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/model"
	"go.uber.org/zap"
)

func (s *Server) HandlePublishEvent(w http.ResponseWriter, r *http.Request) {
	var event model.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if err := s.bus.Publish(event.Name, event.Data); err != nil {
		logger.Error("error publishing event", zap.String("event", event.Name), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error publishing event")
		return
	}
	respondOK(w, map[string]string{"message": "event accepted"})
}

func (s *Server) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runCtx, err := s.runs.GetRunContext(vars["workflow"], vars["id"])
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "error reading run")
		return
	}
	if runCtx == nil {
		respondWithError(w, http.StatusNotFound, "run not found")
		return
	}
	respondOK(w, runCtx)
}
