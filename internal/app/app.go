package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/AbdElbassetKh/PharmaCentral/internal/config"
	"github.com/AbdElbassetKh/PharmaCentral/internal/domain"
	"github.com/AbdElbassetKh/PharmaCentral/internal/infrastructure/parser"
	"github.com/AbdElbassetKh/PharmaCentral/internal/infrastructure/relay"
	"github.com/AbdElbassetKh/PharmaCentral/internal/infrastructure/scheduler"
	"github.com/AbdElbassetKh/PharmaCentral/internal/infrastructure/storage"
	"github.com/AbdElbassetKh/PharmaCentral/internal/infrastructure/telegram"
	"github.com/AbdElbassetKh/PharmaCentral/internal/infrastructure/translate"
	"github.com/AbdElbassetKh/PharmaCentral/internal/logging"
	"github.com/AbdElbassetKh/PharmaCentral/internal/ports"
	"github.com/AbdElbassetKh/PharmaCentral/internal/quality"
	"github.com/AbdElbassetKh/PharmaCentral/internal/session"
	"github.com/AbdElbassetKh/PharmaCentral/internal/usecase"
)

// visiblePageSize matches the presentation layer's page length.
const visiblePageSize = 12

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	session   *session.Session
	store     *usecase.ArticleStore
	queue     *usecase.TranslationQueue
	scheduler ports.Scheduler
	repo      *storage.SQLiteRepository
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	sess := session.New()
	sess.SetLanguage(cfg.Translation.DefaultTarget)

	repo, err := storage.Open(cfg.Database.Path)
	if err != nil {
		// Persistence degrades to a cache miss, never blocks the pipeline.
		baseLogger.Warn("storage unavailable, running without persistence", "error", err)
		repo = nil
	}

	feedParser := parser.New(baseLogger.With("component", "parser"), nil)

	fetcher := relay.New(nil, toRelays(cfg.Relays), feedParser, relay.Options{
		RetryAttempts: cfg.Fetch.RetryAttempts,
		RetryDelay:    cfg.Fetch.RetryDelay,
		Timeout:       cfg.Fetch.Timeout,
		MinBodyBytes:  cfg.Fetch.MinBodyBytes,
	}, baseLogger.With("component", "fetcher"))

	var snapshots ports.SnapshotRepository
	var translations ports.TranslationRepository
	if repo != nil {
		snapshots = repo
		translations = repo
	}

	cache := usecase.NewTranslationCache(translations, baseLogger.With("component", "cache"), nil)
	evaluator := quality.NewEvaluator(cfg.Translation.QualityThreshold)

	chain := translate.NewChain([]ports.Translator{
		translate.NewPhraseProvider(cfg.Translation.PhraseEndpoint, cfg.Translation.Timeout),
		translate.NewSentenceProvider(cfg.Translation.SentenceEndpoint, cfg.Translation.Timeout),
		translate.NewLookupProvider(cfg.Translation.LookupEndpoint, cfg.Translation.Timeout),
	}, evaluator, cache, baseLogger.With("component", "chain"))

	sink := usecase.NewLoggingSink(baseLogger.With("component", "progress"))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	store := usecase.NewArticleStore(usecase.StoreDeps{
		Fetcher:     fetcher,
		Repository:  snapshots,
		Sink:        sink,
		Notifier:    notifier,
		Session:     sess,
		Sources:     toSources(cfg.Sources),
		SnapshotTTL: cfg.Refresh.SnapshotTTL,
		Logger:      baseLogger.With("component", "store"),
	})

	queue := usecase.NewTranslationQueue(chain, cache, sink, &domain.PipelineStats{}, usecase.QueueOptions{
		BatchSize:  cfg.Translation.BatchSize,
		BatchDelay: cfg.Translation.BatchDelay,
		ItemDelay:  cfg.Translation.ItemDelay,
	}, baseLogger.With("component", "queue"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		session:   sess,
		store:     store,
		queue:     queue,
		scheduler: scheduler.NewTickerScheduler(cfg.Refresh.Interval),
		repo:      repo,
	}
}

// Run loads the persisted snapshot, performs the initial refresh, and, in
// serve mode, keeps refreshing on the background schedule until the context
// ends.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	restored := a.store.Load(ctx)
	if restored {
		a.logger.Info("snapshot restored", "articles", len(a.store.Articles()), "at", a.store.LastRefresh())
	}

	if a.cfg.Refresh.RunAtStartup || !restored {
		a.refresh(ctx)
	}

	if !a.cfg.Refresh.ServeForever {
		return nil
	}

	job := func(time.Time) { a.refresh(ctx) }
	if err := a.scheduler.Start(ctx, job); err != nil {
		return err
	}

	<-ctx.Done()
	return a.scheduler.Stop(context.Background())
}

// refresh runs one full ingestion pass and localizes the result when the
// session language is not the feeds' native one.
func (a *Application) refresh(ctx context.Context) {
	if _, err := a.store.RefreshAll(ctx); err != nil {
		a.logger.Error("refresh failed", "error", err)
		return
	}

	if a.session.Language() == session.LanguageEnglish {
		return
	}

	// Visible articles update incrementally; the rest settles in batches.
	visible := a.store.Visible(visiblePageSize)
	visibleIDs := make(map[string]bool, len(visible))
	refs := make([]*domain.Article, len(visible))
	for i := range visible {
		visibleIDs[visible[i].ID] = true
		refs[i] = &visible[i]
	}
	a.queue.LocalizeSequential(ctx, refs, session.LanguageEnglish, a.session.Language())
	a.store.ApplyLocalizations(visible)

	all := a.store.Articles()
	var rest []*domain.Article
	for i := range all {
		if !visibleIDs[all[i].ID] {
			rest = append(rest, &all[i])
		}
	}
	a.queue.LocalizeBatch(ctx, rest, session.LanguageEnglish, a.session.Language())
	a.store.ApplyLocalizations(all)

	attempted, succeeded, failed := a.queue.Stats().Snapshot()
	a.logger.Info("localization pass finished",
		"attempted", attempted, "succeeded", succeeded, "failed", failed)
}

func (a *Application) close() {
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.logger.Warn("closing storage failed", "error", err)
		}
	}
}

func toSources(cfg []config.SourceConfig) []domain.Source {
	sources := make([]domain.Source, 0, len(cfg))
	for _, s := range cfg {
		sources = append(sources, domain.Source{
			Name:              s.Name,
			LocalizedName:     s.LocalizedName,
			EndpointURL:       s.URL,
			Category:          s.Category,
			LocalizedCategory: s.LocalizedCategory,
		})
	}
	return sources
}

func toRelays(cfg []config.RelayConfig) []domain.Relay {
	relays := make([]domain.Relay, 0, len(cfg))
	for _, r := range cfg {
		shape := domain.ShapeRaw
		if r.Shape == string(domain.ShapeStructured) {
			shape = domain.ShapeStructured
		}
		relays = append(relays, domain.Relay{
			EndpointTemplate: r.EndpointTemplate,
			Shape:            shape,
			Enveloped:        r.Enveloped,
			Description:      r.Description,
		})
	}
	return relays
}
