package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-chaldduck/internal/common"
)

// Handler serves the admin login endpoint.
type Handler struct {
	Svc *Service
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges the admin credential pair for an access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "username and password are required", nil)
		return
	}
	session, err := h.Svc.Login(req.Username, req.Password)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": session})
}
