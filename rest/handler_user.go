package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/model"
	"go.uber.org/zap"
)

func (s *Server) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var user model.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if user.Email == "" {
		respondWithError(w, http.StatusBadRequest, "email is required")
		return
	}
	if user.Role == "" {
		user.Role = model.ROLE_USER
	}
	if user.AuthProvider == "" {
		user.AuthProvider = model.AUTH_PROVIDER_LOCAL
	}
	user.CreatedAt = time.Now().UnixMilli()
	if err := s.users.Save(user); err != nil {
		logger.Error("error saving user", zap.String("email", user.Email), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error saving user")
		return
	}
	err := s.bus.Publish(model.EVENT_USER_SIGNUP, map[string]any{
		"email": user.Email,
	})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "error publishing signup event")
		return
	}
	respondOK(w, map[string]string{"email": user.Email})
}
