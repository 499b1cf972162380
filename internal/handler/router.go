package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/bug-fixer/backend/internal/handler/chat"
	"github.com/zhouzirui/bug-fixer/backend/internal/handler/prompt"
	middlewarePkg "github.com/zhouzirui/bug-fixer/backend/internal/middleware"
	promptModel "github.com/zhouzirui/bug-fixer/backend/internal/model/prompt"
	"github.com/zhouzirui/bug-fixer/backend/internal/observability"
	chatService "github.com/zhouzirui/bug-fixer/backend/internal/service/chat"
	"github.com/zhouzirui/bug-fixer/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. A non-nil setupErr disables
// the chat endpoints while keeping the UI and diagnostics reachable.
func NewRouter(modules promptModel.Store, chatSvc *chatService.Service, metrics *observability.Metrics, setupErr error, allowedOrigin string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigin))

	// Create handlers
	promptHandler := prompt.New(modules)
	chatHandler := chat.New(chatSvc, setupErr)
	wsHandler := chat.NewWebSocketHandler(chatSvc, setupErr)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if setupErr != nil {
			utils.RespondError(w, http.StatusServiceUnavailable, chat.SetupErrorMessage(setupErr))
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if metrics != nil {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		promptHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterWebSocketRoutes(api)
	})

	r.Handle("/*", newStaticHandler())

	return r
}
