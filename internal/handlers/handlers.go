package handlers

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"OTPKeeper/internal/config"
	"OTPKeeper/internal/middleware"
	"OTPKeeper/internal/service"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	auth *service.Authenticator,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(config.APISecret))

	// Хендлеры
	accountHandler := NewAccountHandler(auth, logger)
	transferHandler := NewTransferHandler(auth, logger)

	// Маршруты аккаунтов
	r.Route("/api/accounts", func(r chi.Router) {
		r.Get("/", accountHandler.List)
		r.Post("/", accountHandler.Create)
		r.Post("/sort", accountHandler.Sort)
		r.Route("/{index}", func(r chi.Router) {
			r.Put("/", accountHandler.Update)
			r.Delete("/", accountHandler.Delete)
			r.Get("/code", accountHandler.Code)
			r.Get("/uri", accountHandler.URI)
			r.Post("/consume", accountHandler.Consume)
		})
	})

	// Маршруты переноса
	r.Post("/api/transfer/backup", transferHandler.Backup)
	r.Post("/api/transfer/export", transferHandler.Export)
	r.Post("/api/transfer/restore", transferHandler.Restore)
	r.Post("/api/transfer/import", transferHandler.Import)
	r.Post("/api/transfer/preview", transferHandler.Preview)

	r.Get("/api/events", transferHandler.Events)

	return &Handler{Router: r}
}
