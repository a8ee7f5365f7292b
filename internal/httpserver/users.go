package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/codearena/judgecore/internal/apperr"
	"github.com/codearena/judgecore/internal/auth"
	"github.com/codearena/judgecore/internal/store"
	"github.com/codearena/judgecore/types"
)

type registerRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type publicUserResponse struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// register creates a new User-role account.
func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument("malformed request body"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Password == "" {
		apperr.WriteHTTP(w, apperr.InvalidArgument("name and password are required"))
		return
	}

	if _, err := h.deps.Users.GetByName(r.Context(), req.Name); err == nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument("name already taken"))
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}

	user, err := h.deps.Users.Create(r.Context(), types.User{
		Name:         req.Name,
		PasswordHash: hash,
		Role:         types.RoleUser,
	})
	if err != nil {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, publicUserResponse{ID: user.ID, Name: user.Name})
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// login verifies credentials and sets the session cookie.
func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument("malformed request body"))
		return
	}

	user, err := h.deps.Users.GetByName(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apperr.WriteHTTP(w, apperr.InvalidArgument("wrong name or password"))
			return
		}
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		apperr.WriteHTTP(w, apperr.InvalidArgument("wrong name or password"))
		return
	}

	cookie, err := h.deps.Sessions.IssueCookie(user.ID)
	if err != nil {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}
	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, publicUserResponse{ID: user.ID, Name: user.Name})
}

type passwdRequest struct {
	UserID      uint32 `json:"user_id"`
	Password    string `json:"password"`
	NewPassword string `json:"new_password"`
}

// changePassword lets a User change their own password, verifying the
// current one first.
func (h *handlers) changePassword(w http.ResponseWriter, r *http.Request) {
	var req passwdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument("malformed request body"))
		return
	}
	if req.NewPassword == "" {
		apperr.WriteHTTP(w, apperr.InvalidArgument("new_password is required"))
		return
	}

	if h.deps.AuthMode {
		if callerID, ok := auth.UserID(r.Context()); !ok || callerID != req.UserID {
			apperr.WriteHTTP(w, apperr.Forbidden("cannot change another user's password"))
			return
		}
	}

	user, err := h.deps.Users.GetByID(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apperr.WriteHTTP(w, apperr.NotFound("no such user"))
			return
		}
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		apperr.WriteHTTP(w, apperr.InvalidArgument("wrong password"))
		return
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}
	if err := h.deps.Users.UpdatePassword(r.Context(), req.UserID, newHash); err != nil {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, publicUserResponse{ID: user.ID, Name: user.Name})
}

type privilegeRequest struct {
	UserID uint32 `json:"user_id"`
	Role   string `json:"role"`
}

// setPrivilege lets an Admin promote or demote another user's role.
func (h *handlers) setPrivilege(w http.ResponseWriter, r *http.Request) {
	var req privilegeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument("malformed request body"))
		return
	}
	role, err := types.ParseRole(req.Role)
	if err != nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument(err.Error()))
		return
	}

	if err := h.deps.Users.UpdateRole(r.Context(), req.UserID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apperr.WriteHTTP(w, apperr.NotFound("no such user"))
			return
		}
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}

	user, err := h.deps.Users.GetByID(r.Context(), req.UserID)
	if err != nil {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, userWithRole{ID: user.ID, Name: user.Name, Role: user.Role})
}

type createUserRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// createUser lets an Admin provision an account directly.
func (h *handlers) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument("malformed request body"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Password == "" {
		apperr.WriteHTTP(w, apperr.InvalidArgument("name and password are required"))
		return
	}

	if _, err := h.deps.Users.GetByName(r.Context(), req.Name); err == nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument("name already taken"))
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}

	user, err := h.deps.Users.Create(r.Context(), types.User{
		Name:         req.Name,
		PasswordHash: hash,
		Role:         types.RoleUser,
	})
	if err != nil {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, publicUserResponse{ID: user.ID, Name: user.Name})
}

type userWithRole struct {
	ID   uint32     `json:"id"`
	Name string     `json:"name"`
	Role types.Role `json:"role"`
}

// listUsers returns every registered user's public projection.
func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.deps.Users.List(r.Context())
	if err != nil {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}
	out := make([]userWithRole, len(users))
	for i, u := range users {
		out[i] = userWithRole{ID: u.ID, Name: u.Name, Role: u.Role}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func parsePathID(r *http.Request, key string) (uint32, error) {
	v, err := strconv.ParseUint(chi.URLParam(r, key), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
