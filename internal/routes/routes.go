package routes

import (
	"net/http"
	"time"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/app"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/handler"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	catalog := handler.NewCatalogHandler(app.Catalog)
	player := handler.NewPlayerHandler(app.OSRS)
	proxy := handler.NewProxyHandler(app.Cfg.ProxyAllowedDomains, app.Cfg.ProxyTimeout, app.Cfg.UserAgent)
	webhook := handler.NewWebhookHandler(app.ProgressService)
	goal := handler.NewGoalHandler(app.GoalService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)

	// Catalog
	mux.HandleFunc("GET /api/catalog/quests", catalog.Quests)
	mux.HandleFunc("GET /api/catalog/quests/{id}", catalog.Quest)
	mux.HandleFunc("GET /api/catalog/diaries", catalog.Diaries)
	mux.HandleFunc("GET /api/catalog/diaries/{id}", catalog.Diary)
	mux.HandleFunc("GET /api/catalog/potions", catalog.Potions)
	mux.HandleFunc("GET /api/catalog/potions/{id}", catalog.Potion)
	mux.HandleFunc("GET /api/catalog/monsters", catalog.Monsters)
	mux.HandleFunc("GET /api/catalog/monsters/{id}", catalog.Monster)
	mux.HandleFunc("GET /api/catalog/locations", catalog.Locations)
	mux.HandleFunc("GET /api/catalog/locations/{id}", catalog.Location)

	// Hiscores
	mux.HandleFunc("GET /api/players/{name}", player.Player)
	mux.HandleFunc("GET /api/players/{name}/collection-log", player.CollectionLog)
	mux.HandleFunc("GET /api/groups/{name}", player.Group)
	mux.HandleFunc("GET /api/proxy", proxy.Proxy)

	// ============================================================================
	// WEBHOOKS (rate limited per IP)
	// ============================================================================

	rateLimiter := middleware.RateLimit(app.Cfg.WebhookRateLimit, time.Minute)
	apiKey := middleware.RequireAPIKey(app.Cfg.RuneLiteAPIKey)

	mux.HandleFunc("POST /api/webhooks/quest", rateLimiter(webhook.Quest))
	mux.HandleFunc("POST /api/webhooks/diary", rateLimiter(webhook.Diary))
	mux.HandleFunc("POST /api/webhooks/runelite", rateLimiter(apiKey(webhook.RuneLite)))
	mux.HandleFunc("GET /api/webhooks/runelite", rateLimiter(webhook.Events))

	// ============================================================================
	// PROTECTED ROUTES (bearer token)
	// ============================================================================

	requireUser := middleware.RequireUser(app.AuthService)

	mux.HandleFunc("GET /api/goals", requireUser(goal.List))
	mux.HandleFunc("PUT /api/goals/{id}", requireUser(goal.Put))
	mux.HandleFunc("DELETE /api/goals/{id}", requireUser(goal.Delete))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestID, // Request id first so the log line carries it
		middleware.RequestLogging,
		middleware.SecurityHeaders,
		middleware.CORS, // Answers preflight before routing
	)

	return handler
}
