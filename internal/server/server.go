package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/obotesoftech/prisonreturns/config"
	"github.com/obotesoftech/prisonreturns/internal/db"
	"github.com/obotesoftech/prisonreturns/internal/handlers"
	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/mq"
	"github.com/obotesoftech/prisonreturns/internal/realtime"
	"github.com/obotesoftech/prisonreturns/internal/services"
	"github.com/obotesoftech/prisonreturns/internal/storage"
	"github.com/obotesoftech/prisonreturns/internal/store"
)

const sweepInterval = 10 * time.Minute

// App holds the services the router exposes.
type App struct {
	Accounts      *services.AccountService
	Sessions      *services.SessionService
	Returns       *services.ReturnService
	Chat          *services.ChatService
	Notifications *services.NotificationService
	Hub           *realtime.Hub
	StaticDir     string
	PollInterval  time.Duration
	Log           logging.Logger
}

// Server wraps the HTTP server, its router and the background workers.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	bus        mq.Backend
	objects    storage.ObjectStorage
	app        App
	log        logging.Logger

	cancel context.CancelFunc
	ctx    context.Context
	wg     sync.WaitGroup
}

// openObjectStorage is replaced in tests.
var openObjectStorage = storage.New

type repositories struct {
	accounts   services.AccountRepository
	returns    services.ReturnRepository
	sessions   services.SessionRepository
	chat       services.ChatRepository
	guard      services.GuardRepository
	watermarks services.WatermarkRepository
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config, log logging.Logger) (*Server, error) {
	repos, dbConn, err := openRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var closers []func() error
	if dbConn != nil {
		closers = append(closers, dbConn.Close)
	}
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	accounts := services.NewAccountService(repos.accounts, cfg.Auth, log)
	sessions, err := services.NewSessionService(accounts, repos.sessions, cfg.JWTSecret, cfg.TokenTTL, log)
	if err != nil {
		release()
		return nil, err
	}

	objects, err := openObjectStorage(ctx, cfg.Storage)
	if err != nil {
		release()
		return nil, fmt.Errorf("object storage: %w", err)
	}
	closers = append(closers, objects.Close)

	bus, err := mq.New(ctx, cfg.MQ)
	if err != nil {
		release()
		return nil, fmt.Errorf("message bus: %w", err)
	}
	closers = append(closers, bus.Close)

	if err := accounts.EnsureBootstrap(ctx); err != nil {
		release()
		return nil, fmt.Errorf("bootstrap accounts: %w", err)
	}

	returns := services.NewReturnService(repos.returns, repos.guard, accounts, objects, bus, log)
	app := App{
		Accounts:      accounts,
		Sessions:      sessions,
		Returns:       returns,
		Chat:          services.NewChatService(repos.chat, sessions, bus, log),
		Notifications: services.NewNotificationService(returns, repos.watermarks),
		Hub:           realtime.NewHub(log),
		StaticDir:     cfg.StaticDir,
		PollInterval:  cfg.Chat.PollInterval,
		Log:           log,
	}

	router := NewRouter(app)

	port := cfg.ServerPort
	if port == 0 {
		port = 3000
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		bus:        bus,
		objects:    objects,
		app:        app,
		log:        log.With("component", "server"),
		ctx:        bgCtx,
		cancel:     cancel,
	}, nil
}

// NewRouter mounts every route on a chi router.
func NewRouter(app App) *chi.Mux {
	authMiddleware := handlers.RequireAuth(app.Sessions)
	returnHandler := handlers.NewReturnHandler(app.Returns, app.Log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)

	// The WebSocket stream outlives any request timeout.
	router.Route("/chat", func(r chi.Router) {
		handlers.ChatRouter(r, app.Chat, app.Sessions, app.Hub, app.PollInterval, app.Log)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/healthz", handlers.Healthz)
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, app.Sessions, app.Accounts, app.Log)
		})
		r.Route("/returns", func(r chi.Router) {
			handlers.ReturnRouter(r, app.Returns, app.Log, authMiddleware)
		})
		r.With(authMiddleware).Post("/api/submit-return", returnHandler.SubmitCompat)
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, app.Accounts, app.Log, authMiddleware)
		})
		r.Route("/notifications", func(r chi.Router) {
			handlers.NotificationRouter(r, app.Notifications, app.Log, authMiddleware)
		})
		r.With(authMiddleware).Get("/stations", handlers.Stations)

		if app.StaticDir != "" {
			r.Handle("/*", http.FileServer(http.Dir(app.StaticDir)))
		}
	})

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the background workers and the HTTP server.
func (s *Server) Start() error {
	s.relay(mq.ChannelReturns, realtime.ReturnVisibility)
	s.relay(mq.ChannelChat, realtime.ChatAudience)
	s.sweepSessions()

	s.log.Info(s.ctx, "listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx
// expires and then releases its backends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	s.app.Hub.Close()

	err := s.httpServer.Shutdown(ctx)
	s.wg.Wait()

	if s.bus != nil {
		_ = s.bus.Close()
	}
	if s.objects != nil {
		_ = s.objects.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}

func (s *Server) relay(channel string, filter func(mq.Message) realtime.Filter) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.bus.Subscribe(s.ctx, channel, s.app.Hub.Relay(filter))
		if err != nil && s.ctx.Err() == nil {
			s.log.Error(s.ctx, "bus subscription ended", "channel", channel, "error", err)
		}
	}()
}

func (s *Server) sweepSessions() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.app.Sessions.Sweep(s.ctx)
				if err != nil {
					s.log.Warn(s.ctx, "session sweep failed", "error", err)
					continue
				}
				if removed > 0 {
					s.log.Debug(s.ctx, "expired sessions removed", "count", removed)
				}
			}
		}
	}()
}

func openRepositories(ctx context.Context, cfg config.Config) (repositories, *sql.DB, error) {
	switch cfg.Database.Driver {
	case "memory":
		m := store.NewMemory()
		return repositories{
			accounts:   m.Accounts(),
			returns:    m.Returns(),
			sessions:   m.Sessions(),
			chat:       m.Chat(),
			guard:      m.Guard(),
			watermarks: m.Watermarks(),
		}, nil, nil
	case "", "postgres":
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return repositories{}, nil, err
		}
		return repositories{
			accounts:   store.NewAccountRepository(conn),
			returns:    store.NewReturnRepository(conn),
			sessions:   store.NewSessionRepository(conn),
			chat:       store.NewChatRepository(conn),
			guard:      store.NewGuardRepository(conn),
			watermarks: store.NewWatermarkRepository(conn),
		}, conn, nil
	default:
		return repositories{}, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
