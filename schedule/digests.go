package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/felipevm/vendasbot/core/logger"
	"github.com/felipevm/vendasbot/records"
)

// DigestConfig carries the cron specs for the recurring jobs. Empty spec
// disables that job.
type DigestConfig struct {
	// DailySpec fires the day's agenda, e.g. "0 8 * * *".
	DailySpec string `yaml:"daily_spec" envconfig:"JOBS_DAILY_SPEC"`
	// WeeklySpec fires the pending-work overview, e.g. "0 8 * * 1,4".
	WeeklySpec string `yaml:"weekly_spec" envconfig:"JOBS_WEEKLY_SPEC"`
}

// Digests runs the recurring summary pushes over every known chat.
type Digests struct {
	store  records.Store
	sender Sender
	cron   *cron.Cron
	cfg    DigestConfig
}

func NewDigests(store records.Store, sender Sender, cfg DigestConfig) *Digests {
	return &Digests{
		store:  store,
		sender: sender,
		cron:   cron.New(),
		cfg:    cfg,
	}
}

// Start registers the configured jobs and starts the cron loop. The loop
// is stopped when ctx ends.
func (d *Digests) Start(ctx context.Context) error {
	if d.cfg.DailySpec != "" {
		if _, err := d.cron.AddFunc(d.cfg.DailySpec, func() { d.runAll(ctx, "daily", d.dailyDigest) }); err != nil {
			return fmt.Errorf("schedule: daily spec %q: %w", d.cfg.DailySpec, err)
		}
	}
	if d.cfg.WeeklySpec != "" {
		if _, err := d.cron.AddFunc(d.cfg.WeeklySpec, func() { d.runAll(ctx, "weekly", d.weeklyDigest) }); err != nil {
			return fmt.Errorf("schedule: weekly spec %q: %w", d.cfg.WeeklySpec, err)
		}
	}
	d.cron.Start()
	go func() {
		<-ctx.Done()
		d.cron.Stop()
	}()
	return nil
}

func (d *Digests) runAll(ctx context.Context, job string, build func(ctx context.Context, chatID int64) (string, error)) {
	chats, err := d.store.Chats(ctx)
	if err != nil {
		logger.Error(ctx, "service.agenda", "digest.chats_failed",
			slog.String("job", job),
			slog.String("err", err.Error()))
		return
	}
	sent := 0
	for _, chatID := range chats {
		text, err := build(ctx, chatID)
		if err != nil {
			logger.Error(ctx, "service.agenda", "digest.build_failed",
				slog.String("job", job),
				slog.Int64("chat_id", chatID),
				slog.String("err", err.Error()))
			continue
		}
		if text == "" {
			continue
		}
		if err := d.sender.SendTo(ctx, chatID, text); err != nil {
			logger.Error(ctx, "service.agenda", "digest.send_failed",
				slog.String("job", job),
				slog.Int64("chat_id", chatID),
				slog.String("err", err.Error()))
			continue
		}
		sent++
	}
	logger.Info(ctx, "service.agenda", "digest.done",
		slog.String("job", job),
		slog.Int("chats", len(chats)),
		slog.Int("sent", sent))
}

// dailyDigest lists follow-ups due today and visits scheduled for today.
// Empty output means nothing to push for that chat.
func (d *Digests) dailyDigest(ctx context.Context, chatID int64) (string, error) {
	today := records.FormatStorageDate(time.Now())

	followups, err := d.store.Query(ctx, chatID, records.CategoryFollowups, 0)
	if err != nil {
		return "", err
	}
	visits, err := d.store.Query(ctx, chatID, records.CategoryVisits, 0)
	if err != nil {
		return "", err
	}

	b := &strings.Builder{}
	due := filterRecords(followups, func(r records.Record) bool {
		return r.Fields.String("data_follow") == today && r.Fields.String("status") == records.StatusPending
	})
	if len(due) > 0 {
		fmt.Fprintf(b, "📌 Follow-ups de hoje:\n%s", records.NumberedList(due, 0))
	}
	todayVisits := filterRecords(visits, func(r records.Record) bool {
		return r.Fields.String("data_visita") == today
	})
	if len(todayVisits) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(b, "🚗 Visitas de hoje:\n%s", records.NumberedList(todayVisits, 0))
	}
	if b.Len() == 0 {
		return "", nil
	}
	return "📅 Agenda de hoje\n\n" + strings.TrimRight(b.String(), "\n"), nil
}

// weeklyDigest summarizes everything still pending.
func (d *Digests) weeklyDigest(ctx context.Context, chatID int64) (string, error) {
	followups, err := d.store.Query(ctx, chatID, records.CategoryFollowups, 0)
	if err != nil {
		return "", err
	}
	contracts, err := d.store.Query(ctx, chatID, records.CategoryContracts, 0)
	if err != nil {
		return "", err
	}

	pendingF := filterRecords(followups, func(r records.Record) bool {
		return r.Fields.String("status") == records.StatusPending
	})
	pendingC := filterRecords(contracts, func(r records.Record) bool {
		return r.Fields.String("status") == records.StatusPending
	})
	if len(pendingF) == 0 && len(pendingC) == 0 {
		return "", nil
	}

	b := &strings.Builder{}
	b.WriteString("🗂 Resumo semanal de pendências\n")
	if len(pendingF) > 0 {
		fmt.Fprintf(b, "\nFollow-ups pendentes (%d):\n%s", len(pendingF), records.NumberedList(pendingF, 10))
	}
	if len(pendingC) > 0 {
		var total float64
		for _, r := range pendingC {
			total += r.Fields.Float("valor")
		}
		fmt.Fprintf(b, "\nContratos pendentes (%d, R$ %.2f):\n%s", len(pendingC), total, records.NumberedList(pendingC, 10))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func filterRecords(recs []records.Record, keep func(records.Record) bool) []records.Record {
	var out []records.Record
	for _, r := range recs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
