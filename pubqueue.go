// Package pubqueue is a content management engine built with Go, Echo, and
// templ. It stages new content in a persistent creation queue, submits it to
// per-type create operations, and serves the published result with RSS and
// sitemap support.
//
// Users provide their own templ templates via the ViewFuncs struct,
// and pubqueue handles all the handler logic, middleware, and storage.
package pubqueue

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/kv"
	"github.com/eringen/pubqueue/logger"
	"github.com/eringen/pubqueue/mention"
	"github.com/eringen/pubqueue/queue"
	"github.com/eringen/pubqueue/submit"
)

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages. This is the inversion-of-control mechanism that
// lets users own and customize all templates.
type ViewFuncs struct {
	Home           func(entries []content.Entry, activeTag string, tags []string, meta PageMeta) templ.Component
	Entry          func(entry content.Entry, related []content.Entry, meta PageMeta) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(d Dashboard) templ.Component
	AdminQueue     func(p QueuePage) templ.Component
	AdminMedia     func(images []Image, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// App is the central pubqueue application. It wires together the content
// store, the creation queue, handlers, middleware, and user-provided templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *EntryCache
	Queue  *queue.Store
	Submit *submit.Coordinator
	Views  ViewFuncs

	kv           kv.Store
	log          logger.Logger
	logErr       error
	mentions     *mention.Sessions
	selections   *selections
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
	isAdmin      func(echo.Context) bool
}

// New creates a new pubqueue App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:     cfg,
		Echo:       echo.New(),
		Views:      views,
		mentions:   mention.NewSessions(),
		selections: newSelections(),
		staticDir:  "public",
		isAdmin:    IsAdmin,
	}

	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log, a.logErr = logger.New(cfg.Log)
		if a.logErr != nil {
			a.log = logger.NewNop()
		}
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	return a
}

// Logger returns the application logger.
func (a *App) Logger() logger.Logger { return a.log }

// Open initializes the content store, the queue storage backend, the
// creation queue and its submission coordinator. Start calls it; CLI
// commands that only touch the queue call it directly.
func (a *App) Open(ctx context.Context) error {
	if a.logErr != nil {
		return fmt.Errorf("pubqueue: init logger: %w", a.logErr)
	}
	if a.Store != nil {
		return nil
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("pubqueue: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewEntryCache(store, a.Config.EntryCacheTTL)

	backend, err := kv.Open(a.Config.QueueBackend, a.Config.QueuePath)
	if err != nil {
		store.Close()
		a.Store = nil
		return fmt.Errorf("pubqueue: init queue storage: %w", err)
	}
	a.kv = backend
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	key := a.Config.QueueKey
	if key == "" {
		key = queue.DefaultKey
	}
	a.Queue = queue.NewStore(ctx, queue.NewAdapter(backend, key, a.log), queue.WithLogger(a.log))
	a.Submit = submit.New(a.Queue, a.creators(), store, a.log)

	a.log.Info("storage ready",
		logger.String("database", a.Config.DatabasePath),
		logger.String("queue_backend", a.Config.QueueBackend),
		logger.Int("queued", len(a.Queue.Items())),
	)
	return nil
}

// creators wraps the store's create operations so a successful create
// also refreshes the public entry cache.
func (a *App) creators() map[content.Type]submit.CreateFunc {
	out := a.Store.Creators()
	for t, create := range out {
		out[t] = func(ctx context.Context, data map[string]any) (submit.Created, error) {
			created, err := create(ctx, data)
			if err == nil {
				a.Cache.Invalidate()
			}
			return created, err
		}
	}
	return out
}

// Start initializes storage, middleware and routes and serves until ctx is
// cancelled, then shuts the server down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Config.validate(); err != nil {
		return err
	}
	if err := a.Open(ctx); err != nil {
		return err
	}
	defer a.Close()

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	go a.janitor(ctx, time.Hour)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", logger.String("addr", a.Config.Addr), logger.String("url", a.Config.URL))
		if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.Echo.Shutdown(shutdownCtx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework stylesheet, served ahead of the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/pubqueue.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/:type/:slug/", a.handleEntry)
	e.POST("/:type/:slug/like/", a.handleLike)

	// Admin pages
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", a.handleAdminLogout)
	e.POST("/admin/entries/select/", a.handleSelectToggle, a.requireAdmin)
	e.POST("/admin/entries/select-all/", a.handleSelectAll, a.requireAdmin)
	e.POST("/admin/entries/select-none/", a.handleSelectNone, a.requireAdmin)
	e.POST("/admin/entries/delete/", a.handleBulkDelete, a.requireAdmin)

	e.GET("/admin/media/", a.handleMediaList, a.requireAdmin)
	e.POST("/admin/media/upload/", a.handleMediaUpload, a.requireAdmin)
	e.POST("/admin/media/:filename/delete/", a.handleMediaDelete, a.requireAdmin)

	e.GET("/admin/queue/", a.handleQueuePage, a.requireAdmin)
	e.POST("/admin/queue/add/", a.handleQueueFormAdd, a.requireAdmin)
	e.POST("/admin/queue/save-all/", a.handleQueueFormSaveAll, a.requireAdmin)
	e.POST("/admin/queue/clear-saved/", a.handleQueueFormClearSaved, a.requireAdmin)
	e.POST("/admin/queue/clear/", a.handleQueueFormClear, a.requireAdmin)
	e.POST("/admin/queue/:id/activate/", a.handleQueueFormActivate, a.requireAdmin)
	e.POST("/admin/queue/:id/update/", a.handleQueueFormUpdate, a.requireAdmin)
	e.POST("/admin/queue/:id/save/", a.handleQueueFormSave, a.requireAdmin)
	e.POST("/admin/queue/:id/remove/", a.handleQueueFormRemove, a.requireAdmin)

	// Queue JSON API
	api := e.Group("/admin/api/queue", a.requireAdmin)
	api.GET("", a.handleQueueState)
	api.POST("/items", a.handleQueueAdd)
	api.PATCH("/items/:id", a.handleQueueUpdate)
	api.DELETE("/items/:id", a.handleQueueRemove)
	api.POST("/items/:id/activate", a.handleQueueActivate)
	api.POST("/items/:id/save", a.handleQueueSave)
	api.POST("/save-all", a.handleQueueSaveAll)
	api.POST("/clear-saved", a.handleQueueClearSaved)
	api.POST("/clear", a.handleQueueClear)
}

// Close cleans up resources. Call this when the app is shutting down.
// In-flight saves that finish afterwards no longer touch the queue.
func (a *App) Close() error {
	var errs []error
	if a.Queue != nil {
		a.Queue.Close()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.kv != nil {
		errs = append(errs, a.kv.Close())
		a.kv = nil
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
		a.Store = nil
	}
	_ = a.log.Sync()
	return errors.Join(errs...)
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
