package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felipevm/vendasbot/core/logger"
	"github.com/felipevm/vendasbot/records"
)

// Reminders delivers lembrete records: each gets exactly one scheduled
// job that sends the text and marks the record enviado.
type Reminders struct {
	store  records.Store
	sender Sender
	sched  *Scheduler
}

func NewReminders(store records.Store, sender Sender, sched *Scheduler) *Reminders {
	return &Reminders{store: store, sender: sender, sched: sched}
}

// Schedule registers the one-shot delivery for a just-created reminder.
func (r *Reminders) Schedule(chatID int64, recordID string, when time.Time) Handle {
	return r.sched.ScheduleOnce(when, func(ctx context.Context) {
		r.deliver(ctx, chatID, recordID)
	})
}

// RearmPending walks every chat's reminders at startup and reschedules the
// undelivered ones. Reminders whose time passed while the bot was down are
// delivered immediately rather than dropped.
func (r *Reminders) RearmPending(ctx context.Context) error {
	chats, err := r.store.Chats(ctx)
	if err != nil {
		return fmt.Errorf("schedule: list chats: %w", err)
	}

	armed := 0
	for _, chatID := range chats {
		recs, err := r.store.Query(ctx, chatID, records.CategoryReminders, 0)
		if err != nil {
			return fmt.Errorf("schedule: query reminders chat=%d: %w", chatID, err)
		}
		for _, rec := range recs {
			if rec.Fields.Bool("enviado") {
				continue
			}
			when, err := records.ParseStorageDateTime(rec.Fields.String("data_hora"))
			if err != nil {
				logger.Warn(ctx, "service.agenda", "reminder.bad_datetime",
					slog.String("record_id", rec.ID),
					slog.String("err", err.Error()))
				continue
			}
			r.Schedule(chatID, rec.ID, when)
			armed++
		}
	}
	logger.Info(ctx, "service.agenda", "reminders.rearmed", slog.Int("count", armed))
	return nil
}

func (r *Reminders) deliver(ctx context.Context, chatID int64, recordID string) {
	rec, err := r.store.Get(ctx, chatID, records.CategoryReminders, recordID)
	if err != nil {
		// Deleted before firing; nothing to send.
		logger.Warn(ctx, "service.agenda", "reminder.load_failed",
			slog.String("record_id", recordID),
			slog.String("err", err.Error()))
		return
	}
	if rec.Fields.Bool("enviado") {
		return
	}

	text := fmt.Sprintf("⏰ Lembrete: %s", rec.Fields.String("texto"))
	if err := r.sender.SendTo(ctx, chatID, text); err != nil {
		logger.Error(ctx, "service.agenda", "reminder.send_failed",
			slog.String("record_id", recordID),
			slog.String("err", err.Error()))
		return
	}
	if err := r.store.Update(ctx, chatID, records.CategoryReminders, recordID, records.Fields{"enviado": true}); err != nil {
		logger.Error(ctx, "service.agenda", "reminder.mark_failed",
			slog.String("record_id", recordID),
			slog.String("err", err.Error()))
		return
	}
	logger.Info(ctx, "service.agenda", "reminder.delivered",
		slog.String("record_id", recordID),
		slog.Int64("chat_id", chatID))
}
