package middleware

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/portfolio_tracker/utils"
	tele "gopkg.in/telebot.v4"
)

func Logger() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			now := time.Now()

			rqID := utils.AssignRqID(c)

			attrs := []any{slog.String("rqID", rqID)}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.Int64("chatID", chat.ID))
			}
			if cb := c.Callback(); cb != nil {
				attrs = append(attrs, slog.String("callback", cb.Unique))
			} else if text := c.Text(); text != "" {
				attrs = append(attrs, slog.String("text", text))
			}

			slog.Info("start request", attrs...)

			defer func() {
				slog.Info(
					"request finished",
					slog.String("rqID", rqID),
					slog.String("request duration", fmt.Sprintf("%.2fs", time.Since(now).Seconds())),
				)
			}()

			return next(c)
		}
	}
}

// AllowChats drops updates from chats not in ids. An empty list allows everyone.
func AllowChats(ids []int64) tele.MiddlewareFunc {
	allowed := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if len(allowed) == 0 {
				return next(c)
			}
			chat := c.Chat()
			if chat == nil {
				return nil
			}
			if _, ok := allowed[chat.ID]; !ok {
				slog.Warn("update from not allowed chat", slog.String("rqID", utils.RqIDFromTele(c)), slog.Int64("chatID", chat.ID))
				return nil
			}
			return next(c)
		}
	}
}
