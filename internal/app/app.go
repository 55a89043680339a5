// Package app assembles the bot: storage, services, handlers, transport, and
// the keep-alive listener.
package app

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"
	"log/slog"

	"comfortlybot/core/bootstrap"
	"comfortlybot/core/logger"
	tg "comfortlybot/core/telegram"
	"comfortlybot/core/telegram/helpers"
	"comfortlybot/core/telegram/router"
	"comfortlybot/core/telegram/state"
	"comfortlybot/internal/config"
	"comfortlybot/internal/handler"
	"comfortlybot/internal/health"
	"comfortlybot/internal/repository"
	"comfortlybot/internal/service"
)

// App holds the assembled components for the bot runtime.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	sessions state.Manager
	handlers *handler.Handlers
	health   *health.Server
}

// New runs the bootstrap pipeline and wires services and handlers.
func New(cfg *config.Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	store := repository.NewUsers(res.DB)
	users := service.NewUsers(store)
	admin := service.NewAdmin(store, cfg.Bot.CallBaseURL)
	sessions := state.NewMemoryManager()

	return &App{
		cfg:      cfg,
		db:       res.DB,
		sessions: sessions,
		handlers: handler.New(users, admin, sessions, cfg),
		health:   health.New(cfg.Health.Listen),
	}, nil
}

// TelegramRunOptions builds the registry, routes, and lifecycle hooks for the
// bot runtime.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	a.handlers.Register(reg)

	core := a.cfg.CoreConfig()
	middlewares := tg.DefaultMiddlewares(core, nil)
	middlewares = append(middlewares, a.adminErrorNotify())

	notAuthorized := func(c tele.Context) error {
		return helpers.SendText(c, "❌ You are not authorized.")
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: notAuthorized,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.sessions, reg, router.TextOptions{
		UnknownPhoto:    a.handlers.ReceiptUpload,
		UnknownDocument: a.handlers.ReceiptUpload,
	})...)

	return tg.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: middlewares,
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			a.health.Start()
			return nil
		},
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.health.Shutdown(stopCtx); err != nil {
				logger.Warn(stopCtx, "health", "shutdown.failed",
					slog.String("err", err.Error()),
				)
			}
			return a.db.Close()
		},
	}, nil
}

// adminErrorNotify forwards handler errors to the admin chat, best effort.
func (a *App) adminErrorNotify() tg.Middleware {
	adminID := a.cfg.Telegram.AdminID
	return tg.Middleware{
		Name: "admin_notify",
		Use: func(next tele.HandlerFunc) tele.HandlerFunc {
			return func(c tele.Context) error {
				err := next(c)
				if err != nil && adminID != 0 {
					if _, sendErr := c.Bot().Send(&tele.User{ID: adminID}, "Error: "+err.Error()); sendErr != nil {
						logger.Warn(helpers.BuildContext(c), "tg", "admin_notify.failed",
							slog.String("err", sendErr.Error()),
						)
					}
				}
				return err
			}
		},
	}
}
