package handler

import (
	"biteswipe/internal/model"
	"biteswipe/internal/service"
	"biteswipe/internal/transport/rest/middleware"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	sessions *service.SessionService
	log      *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.SessionService, log *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, log: log}
}

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	Radius    float64  `json:"radius" validate:"required,gt=0,lte=50000"` // meters
}

type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
	JoinCode  string `json:"joinCode"`
}

type InviteRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type JoinRequest struct {
	JoinCode string `json:"joinCode" validate:"required,len=5,alphanum"`
}

type VoteRequest struct {
	RestaurantID string `json:"restaurantId" validate:"required"`
	Liked        *bool  `json:"liked" validate:"required"`
}

// StartRequest carries the voting window in minutes; zero uses the default
type StartRequest struct {
	Time int `json:"time" validate:"min=0,max=1440"`
}

// Create handles POST /v1/sessions
// @Summary Create a session
// @Description Opens a session over the restaurants within radius meters of the location
// @Tags Sessions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body CreateSessionRequest true "search criteria"
// @Success 201 {object} CreateSessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateSessionRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), userID, model.SessionSettings{
		Location: model.Location{Latitude: *req.Latitude, Longitude: *req.Longitude},
		Radius:   req.Radius,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		SessionID: session.ID,
		JoinCode:  session.JoinCode,
	})
}

// Get handles GET /v1/sessions/{sessionId}
// @Summary Get a session
// @Tags Sessions
// @Security BearerAuth
// @Produce json
// @Param sessionId path string true "session id"
// @Success 200 {object} model.Session
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{sessionId} [get]
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.GetSession(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Restaurants handles GET /v1/sessions/{sessionId}/restaurants
func (h *SessionHandler) Restaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.sessions.GetSessionRestaurants(r.Context(), mux.Vars(r)["sessionId"], middleware.GetUserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, restaurants)
}

// Invite handles POST /v1/sessions/{sessionId}/invitations
// @Summary Invite a user
// @Tags Sessions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param sessionId path string true "session id"
// @Param body body InviteRequest true "invitee"
// @Success 200 {object} model.Session
// @Router /sessions/{sessionId}/invitations [post]
func (h *SessionHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.sessions.InviteParticipant(r.Context(), mux.Vars(r)["sessionId"], middleware.GetUserID(r.Context()), req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Reject handles POST /v1/sessions/{sessionId}/invitations/reject
func (h *SessionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.RejectInvitation(r.Context(), mux.Vars(r)["sessionId"], middleware.GetUserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Join handles POST /v1/sessions/join
// @Summary Join a session by code
// @Description Accepts the caller's pending invitation
// @Tags Sessions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body JoinRequest true "join code"
// @Success 200 {object} model.Session
// @Router /sessions/join [post]
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.sessions.JoinSession(r.Context(), strings.ToUpper(req.JoinCode), middleware.GetUserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Leave handles POST /v1/sessions/{sessionId}/leave
func (h *SessionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.LeaveSession(r.Context(), mux.Vars(r)["sessionId"], middleware.GetUserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Vote handles POST /v1/sessions/{sessionId}/votes
// @Summary Swipe on a restaurant
// @Tags Voting
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param sessionId path string true "session id"
// @Param body body VoteRequest true "vote"
// @Success 200 {object} model.Session
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{sessionId}/votes [post]
func (h *SessionHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.sessions.SessionSwiped(r.Context(), mux.Vars(r)["sessionId"], middleware.GetUserID(r.Context()), req.RestaurantID, *req.Liked)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Done handles POST /v1/sessions/{sessionId}/done
func (h *SessionHandler) Done(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.UserDoneSwiping(r.Context(), mux.Vars(r)["sessionId"], middleware.GetUserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Start handles POST /v1/sessions/{sessionId}/start
// @Summary Open voting
// @Tags Voting
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param sessionId path string true "session id"
// @Param body body StartRequest false "voting window in minutes"
// @Success 200 {object} model.Session
// @Router /sessions/{sessionId}/start [post]
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decode(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.sessions.StartSession(r.Context(), mux.Vars(r)["sessionId"], middleware.GetUserID(r.Context()), req.Time)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Result handles GET /v1/sessions/{sessionId}/result
// @Summary Get the winning restaurant
// @Tags Voting
// @Security BearerAuth
// @Produce json
// @Param sessionId path string true "session id"
// @Success 200 {object} model.Restaurant
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{sessionId}/result [get]
func (h *SessionHandler) Result(w http.ResponseWriter, r *http.Request) {
	restaurant, err := h.sessions.GetResultForSession(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, restaurant)
}

// Mine handles GET /v1/users/me/sessions
func (h *SessionHandler) Mine(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.GetUserSessions(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *SessionHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if kind := service.KindOf(err); kind == service.KindInternal || kind == service.KindConflict {
		h.log.Error("session request failed",
			zap.String("requestId", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeServiceError(w, err)
}
