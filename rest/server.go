package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/tickd/tickd/bus"
	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/persistence"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port    int
	bus     *bus.EventBus
	tickets persistence.TicketDao
	users   persistence.UserDao
	runs    persistence.RunDao
}

func NewServer(httpPort int, eventBus *bus.EventBus, tickets persistence.TicketDao, users persistence.UserDao, runs persistence.RunDao) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr: fmt.Sprintf(":%d", httpPort),
		},
		Port:    httpPort,
		bus:     eventBus,
		tickets: tickets,
		users:   users,
		runs:    runs,
	}

	router := mux.NewRouter()
	router.HandleFunc("/event", s.HandlePublishEvent).Methods(http.MethodPost)
	router.HandleFunc("/tickets", s.HandleCreateTicket).Methods(http.MethodPost)
	router.HandleFunc("/tickets/{id}", s.HandleGetTicket).Methods(http.MethodGet)
	router.HandleFunc("/users", s.HandleCreateUser).Methods(http.MethodPost)
	router.HandleFunc("/runs/{workflow}/{id}", s.HandleGetRun).Methods(http.MethodGet)
	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, payload interface{}) {
	respondWithJSON(w, http.StatusOK, payload)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
