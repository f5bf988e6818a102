package rest

import (
	_ "biteswipe/docs"
	"biteswipe/internal/service"
	"biteswipe/internal/transport/rest/handler"
	"biteswipe/internal/transport/rest/middleware"
	"biteswipe/internal/transport/ws"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	SessionService *service.SessionService
	WSHub          *ws.Hub
	Logger         *zap.Logger
	AllowedOrigins []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(c.SessionService, c.Logger)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))
	r.Use(middleware.RequestLogger(c.Logger))

	// Ops
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/swagger/doc.json", serveSwagger).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws/notifications", wsHandler.Notifications).Methods("GET")

	// User routes (require user auth)
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/sessions/join", sessionHandler.Join).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/sessions/{sessionId}", sessionHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/sessions/{sessionId}/restaurants", sessionHandler.Restaurants).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/sessions/{sessionId}/invitations", sessionHandler.Invite).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/sessions/{sessionId}/invitations/reject", sessionHandler.Reject).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/sessions/{sessionId}/leave", sessionHandler.Leave).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/sessions/{sessionId}/votes", sessionHandler.Vote).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/sessions/{sessionId}/done", sessionHandler.Done).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/sessions/{sessionId}/start", sessionHandler.Start).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/sessions/{sessionId}/result", sessionHandler.Result).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/users/me/sessions", sessionHandler.Mine).Methods("GET", "OPTIONS")

	return r
}

func serveSwagger(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		http.Error(w, `{"error":"api docs unavailable"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}

func corsMiddleware(allowed []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := allowOrigin(allowed, r.Header.Get("Origin")); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func allowOrigin(allowed []string, origin string) string {
	if len(allowed) == 0 {
		return "*"
	}
	for _, o := range allowed {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}
