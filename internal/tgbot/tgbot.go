package tgbot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/data/session"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/tg/tgCallback"
	"github.com/KotFed0t/portfolio_tracker/internal/transport/telegram"
	customMW "github.com/KotFed0t/portfolio_tracker/internal/transport/telegram/middleware"
	"github.com/KotFed0t/portfolio_tracker/utils"
	tele "gopkg.in/telebot.v4"
	"gopkg.in/telebot.v4/middleware"
)

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type TGBot struct {
	bot     *tele.Bot
	cfg     *config.Config
	ctrl    *telegram.Controller
	session Session
}

func New(cfg *config.Config, ctrl *telegram.Controller, session Session) *TGBot {
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: cfg.Telegram.UpdTimeout},
		OnError: func(err error, c tele.Context) {
			attrs := []any{slog.String("err", err.Error())}
			if c != nil {
				attrs = append(attrs, slog.String("rqID", utils.RqIDFromTele(c)))
			}
			slog.Error("telebot handler error", attrs...)
		},
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		slog.Error("error while tele.NewBot", slog.String("err", err.Error()))
		panic(err)
	}

	return &TGBot{bot: b, cfg: cfg, ctrl: ctrl, session: session}
}

func (b *TGBot) Start() {
	b.bot.Use(middleware.Recover(), customMW.Logger(), customMW.AllowChats(b.cfg.Telegram.AllowedChatIDs))

	b.setupRoutes()

	go b.bot.Start()
	slog.Info("tgbot started!")
}

func (b *TGBot) Stop() {
	slog.Info("start stopping tgbot")
	b.bot.Stop()
	slog.Info("tgbot stopped")
}

func (b *TGBot) setupRoutes() {
	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		// получение сесии и выбор метода контроллера на основе шага пользователя
		ctx := utils.CreateCtxWithRqID(c)
		rqID := utils.GetRequestIDFromCtx(ctx)
		chatSession, err := b.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return b.ctrl.UnexpectedText(c)
			}
			slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
			return c.Send("Something went wrong, please try again later.")
		}

		c.Set("session", chatSession)

		switch chatSession.State {
		case model.ExpectingInvestmentAmount:
			return b.ctrl.ProcessInvestmentAmount(c)
		case model.ExpectingReportAmount:
			return b.ctrl.ProcessReportAmount(c)
		default:
			slog.Debug("unexpected chatSession state", slog.String("rqID", rqID), slog.Any("state", chatSession.State))
			return b.ctrl.UnexpectedText(c)
		}
	})

	b.bot.Handle("/start", b.ctrl.Start)
	b.bot.Handle("/help", b.ctrl.Start)
	b.bot.Handle("/portfolio", b.ctrl.Portfolio)
	b.bot.Handle("/rebalance", b.ctrl.Rebalance)
	b.bot.Handle("/record", b.ctrl.Record)
	b.bot.Handle("/refresh", b.ctrl.Refresh)
	b.bot.Handle("/history", b.ctrl.History)
	b.bot.Handle("/report", b.ctrl.Report)
	b.bot.Handle("/backup", b.ctrl.Backup)

	b.bot.Handle(&tele.Btn{Unique: tgCallback.Refresh}, b.ctrl.OnRefreshBtn)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.Record}, b.ctrl.OnRecordBtn)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.Rebalance}, b.ctrl.OnRebalanceBtn)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.History}, b.ctrl.OnHistoryBtn)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.Report}, b.ctrl.OnReportBtn)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.HoldingsPage}, b.ctrl.OnHoldingsPageBtn)

	err := b.bot.SetCommands([]tele.Command{
		{Text: "portfolio", Description: "current value and holdings"},
		{Text: "rebalance", Description: "rebalancing plan for an investment amount"},
		{Text: "record", Description: "save today's value to history"},
		{Text: "refresh", Description: "drop cached prices"},
		{Text: "history", Description: "recent history"},
		{Text: "report", Description: "xlsx report"},
		{Text: "backup", Description: "upload report to Google Drive"},
	})
	if err != nil {
		slog.Warn("can't set bot commands", slog.String("err", err.Error()))
	}
}
