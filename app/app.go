// Package app wires configuration, infrastructure and the domain packages
// into a runnable bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	"github.com/felipevm/vendasbot/core/bootstrap"
	coretelegram "github.com/felipevm/vendasbot/core/telegram"
	"github.com/felipevm/vendasbot/flows"
	"github.com/felipevm/vendasbot/lookup"
	"github.com/felipevm/vendasbot/records"
	"github.com/felipevm/vendasbot/schedule"
)

// App owns every long-lived component of the bot.
type App struct {
	cfg *Config
	db  *sqlx.DB

	store     *records.SQLStore
	searcher  *lookup.Searcher
	engine    *conversation.Engine
	sender    *telegramSender
	scheduler *schedule.Scheduler
	reminders *schedule.Reminders
	digests   *schedule.Digests

	schedCancel context.CancelFunc
}

// telegramSender adapts the bot to the schedule.Sender boundary. The bot
// instance only exists once the runtime starts, so it is bound late.
type telegramSender struct {
	bot atomic.Pointer[tele.Bot]
}

func (s *telegramSender) bind(b *tele.Bot) { s.bot.Store(b) }

func (s *telegramSender) SendTo(_ context.Context, chatID int64, text string) error {
	b := s.bot.Load()
	if b == nil {
		return errors.New("app: bot not started")
	}
	_, err := b.Send(&tele.Chat{ID: chatID}, text)
	return err
}

// Bootstrap initializes logging, the database (with migrations) and every
// domain component, and registers all flows.
func Bootstrap(cfg *Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	store := records.NewSQLStore(res.DB)

	maps, err := lookup.NewGoogleService(cfg.Maps.APIKey, coretelegram.BuildHTTPClient())
	if err != nil {
		return nil, err
	}
	searcher := lookup.NewSearcher(maps, lookup.NewSQLCache(res.DB))

	engine := conversation.NewEngine(conversation.Options{
		SessionTimeout: time.Duration(cfg.Conversation.SessionTimeoutSeconds) * time.Second,
		SweepInterval:  time.Duration(cfg.Conversation.SweepIntervalSeconds) * time.Second,
	})

	// The scheduler outlives individual updates but not the process; its
	// context is cancelled from OnStop.
	schedCtx, schedCancel := context.WithCancel(context.Background())
	scheduler := schedule.New(schedCtx)
	sender := &telegramSender{}
	reminders := schedule.NewReminders(store, sender, scheduler)

	a := &App{
		cfg:         cfg,
		db:          res.DB,
		store:       store,
		searcher:    searcher,
		engine:      engine,
		sender:      sender,
		scheduler:   scheduler,
		reminders:   reminders,
		digests:     schedule.NewDigests(store, sender, cfg.Jobs),
		schedCancel: schedCancel,
	}

	if err := flows.RegisterAll(engine, flows.Deps{
		Store:     store,
		Searcher:  searcher,
		Reminders: reminders,
	}); err != nil {
		schedCancel()
		return nil, fmt.Errorf("app: register flows: %w", err)
	}
	return a, nil
}

// TelegramRunOptions assembles registry, middleware and routes for
// core/telegram.RunTelegram.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	for _, action := range a.engine.Actions() {
		if err := reg.RegisterCallback(action, a.engine.CallbackHandler(action)); err != nil {
			return coretelegram.RunOptions{}, err
		}
	}

	cfg := a.cfg.CoreConfig()
	routes := routerRoutes(a.engine, reg, cfg.Telegram.AdminID)

	return coretelegram.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(cfg, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.sender.bind(rt.Bot)
			go a.engine.Run(ctx)
			if err := a.reminders.RearmPending(ctx); err != nil {
				return err
			}
			return a.digests.Start(ctx)
		},
		OnStop: func(context.Context, coretelegram.Runtime) error {
			a.schedCancel()
			return a.db.Close()
		},
	}, nil
}
