package telegram

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/data/session"
	"github.com/KotFed0t/portfolio_tracker/internal/converter/telebotConverter"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PortfolioService interface {
	Snapshot(ctx context.Context, investment decimal.Decimal) (model.Snapshot, error)
	RecordToday(ctx context.Context, memo string) (model.HistoryRecord, error)
	History(ctx context.Context) ([]model.HistoryRecord, error)
	RefreshPrices(ctx context.Context) error
	ExportReport(ctx context.Context, investment decimal.Decimal) (fileBytes []byte, fileName string, err error)
	UploadReport(ctx context.Context, fileBytes []byte, fileName string) (link string, err error)
	BackupReport(ctx context.Context) (link string, err error)
}

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type Controller struct {
	cfg              *config.Config
	portfolioService PortfolioService
	session          Session
}

func NewController(cfg *config.Config, portfolioService PortfolioService, session Session) *Controller {
	return &Controller{
		cfg:              cfg,
		portfolioService: portfolioService,
		session:          session,
	}
}

func (ctrl *Controller) symbol() string {
	return ctrl.cfg.Report.CurrencySymbol
}

func (ctrl *Controller) Start(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	_ = ctrl.setState(ctx, c, model.DefaultState)
	return c.Send(telebotConverter.HelpText, telebotConverter.MainMenu())
}

func (ctrl *Controller) Portfolio(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	snapshot, err := ctrl.portfolioService.Snapshot(ctx, decimal.Zero)
	if err != nil {
		slog.Error("got error from portfolioService.Snapshot", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(errMessage(err))
	}

	return c.Send(telebotConverter.DashboardResponse(snapshot, ctrl.symbol(), 0))
}

func (ctrl *Controller) Refresh(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	if err := ctrl.portfolioService.RefreshPrices(ctx); err != nil {
		slog.Error("got error from portfolioService.RefreshPrices", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return ctrl.Portfolio(c)
}

// Rebalance shows the plan for the amount in the command payload,
// or asks for the amount when there is none.
func (ctrl *Controller) Rebalance(c tele.Context) error {
	payload := strings.TrimSpace(c.Message().Payload)
	if payload == "" {
		return ctrl.askAmount(c, model.ExpectingInvestmentAmount)
	}
	return ctrl.rebalance(c, payload)
}

func (ctrl *Controller) ProcessInvestmentAmount(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	_ = ctrl.setState(ctx, c, model.DefaultState)
	return ctrl.rebalance(c, c.Text())
}

func (ctrl *Controller) rebalance(c tele.Context, input string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	amount, err := utils.ParseAmount(input)
	if err != nil {
		return c.Send(amountErrMessage(err))
	}

	snapshot, err := ctrl.portfolioService.Snapshot(ctx, amount)
	if err != nil {
		slog.Error("got error from portfolioService.Snapshot", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(errMessage(err))
	}

	return ctrl.sendLong(c, telebotConverter.RebalancingResponse(snapshot, ctrl.symbol()))
}

func (ctrl *Controller) Record(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	memo := ""
	if c.Message() != nil {
		memo = strings.TrimSpace(c.Message().Payload)
	}

	record, err := ctrl.portfolioService.RecordToday(ctx, memo)
	if err != nil {
		if !errors.Is(err, service.ErrAlreadyRecorded) {
			slog.Error("got error from portfolioService.RecordToday", slog.String("rqID", rqID), slog.String("err", err.Error()))
		}
		return c.Send(errMessage(err))
	}

	return c.Send(telebotConverter.RecordResponse(record, ctrl.symbol()))
}

func (ctrl *Controller) History(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	history, err := ctrl.portfolioService.History(ctx)
	if err != nil {
		slog.Error("got error from portfolioService.History", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(errMessage(err))
	}

	return ctrl.sendLong(c, telebotConverter.HistoryResponse(history, ctrl.cfg.Report.HistoryRows, ctrl.symbol()))
}

// Report sends the xlsx report, the optional payload is the investment amount for the rebalancing sheet.
func (ctrl *Controller) Report(c tele.Context) error {
	return ctrl.report(c, c.Message().Payload)
}

func (ctrl *Controller) ProcessReportAmount(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	_ = ctrl.setState(ctx, c, model.DefaultState)
	return ctrl.report(c, c.Text())
}

func (ctrl *Controller) report(c tele.Context, input string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	amount, err := utils.ParseAmount(input)
	if err != nil {
		return c.Send(amountErrMessage(err))
	}

	_ = c.Notify(tele.UploadingDocument)

	fileBytes, fileName, err := ctrl.portfolioService.ExportReport(ctx, amount)
	if err != nil {
		slog.Error("got error from portfolioService.ExportReport", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(errMessage(err))
	}

	if len(fileBytes) > ctrl.cfg.Telegram.FileLimitInBytes {
		slog.Info("report exceeds telegram file limit, uploading", slog.String("rqID", rqID), slog.Int("size", len(fileBytes)))
		link, err := ctrl.portfolioService.UploadReport(ctx, fileBytes, fileName)
		if err != nil {
			if errors.Is(err, service.ErrCloudStorageDisabled) {
				return c.Send("The report is too large for Telegram and Google Drive isn't configured.")
			}
			slog.Error("got error from portfolioService.UploadReport", slog.String("rqID", rqID), slog.String("err", err.Error()))
			return c.Send(internalErrMsg)
		}
		return c.Send("📥 The report is too large for Telegram, download it here: " + link)
	}

	return c.Send(&tele.Document{
		File:     tele.FromReader(bytes.NewReader(fileBytes)),
		FileName: fileName,
		MIME:     xlsxMime,
	})
}

func (ctrl *Controller) Backup(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	link, err := ctrl.portfolioService.BackupReport(ctx)
	if err != nil {
		if !errors.Is(err, service.ErrCloudStorageDisabled) {
			slog.Error("got error from portfolioService.BackupReport", slog.String("rqID", rqID), slog.String("err", err.Error()))
		}
		return c.Send(errMessage(err))
	}

	return c.Send("☁️ Backup uploaded: " + link)
}

func (ctrl *Controller) UnexpectedText(c tele.Context) error {
	return c.Send(unknownStepMsg)
}

// callbacks

func (ctrl *Controller) OnRefreshBtn(c tele.Context) error {
	_ = c.Respond()
	return ctrl.Refresh(c)
}

// OnHoldingsPageBtn swaps the dashboard message to the requested holdings page.
func (ctrl *Controller) OnHoldingsPageBtn(c tele.Context) error {
	_ = c.Respond()
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	page, err := strconv.Atoi(c.Callback().Data)
	if err != nil {
		slog.Warn("invalid holdings page", slog.String("rqID", rqID), slog.String("data", c.Callback().Data))
		page = 0
	}

	snapshot, err := ctrl.portfolioService.Snapshot(ctx, decimal.Zero)
	if err != nil {
		slog.Error("got error from portfolioService.Snapshot", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(errMessage(err))
	}

	text, markup := telebotConverter.DashboardResponse(snapshot, ctrl.symbol(), page)
	return c.Edit(text, markup)
}

func (ctrl *Controller) OnRecordBtn(c tele.Context) error {
	_ = c.Respond()
	return ctrl.Record(c)
}

func (ctrl *Controller) OnRebalanceBtn(c tele.Context) error {
	_ = c.Respond()
	return ctrl.askAmount(c, model.ExpectingInvestmentAmount)
}

func (ctrl *Controller) OnHistoryBtn(c tele.Context) error {
	_ = c.Respond()
	return ctrl.History(c)
}

func (ctrl *Controller) OnReportBtn(c tele.Context) error {
	_ = c.Respond()
	return ctrl.askAmount(c, model.ExpectingReportAmount)
}

func (ctrl *Controller) sendLong(c tele.Context, text string) error {
	for _, part := range telebotConverter.SplitMessage(text, telebotConverter.MessageLimit) {
		if err := c.Send(part); err != nil {
			return err
		}
	}
	return nil
}

func (ctrl *Controller) askAmount(c tele.Context, state model.State) error {
	ctx := utils.CreateCtxWithRqID(c)
	if err := ctrl.setState(ctx, c, state); err != nil {
		return c.Send(internalErrMsg)
	}
	return c.Send("Enter the amount to invest (0 for none):")
}

func (ctrl *Controller) setState(ctx context.Context, c tele.Context, state model.State) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	key := strconv.FormatInt(c.Chat().ID, 10)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}

	chatSession.State = state
	err = ctrl.session.SetSession(ctx, key, chatSession)
	if err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}
	return nil
}

func (ctrl *Controller) getSessionFromTeleCtxOrStorage(ctx context.Context, c tele.Context) (model.Session, error) {
	chatSession, ok := c.Get("session").(model.Session)
	if ok {
		return chatSession, nil
	}

	rqID := utils.GetRequestIDFromCtx(ctx)
	chatSession, err := ctrl.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		}
		return model.Session{}, err
	}
	return chatSession, nil
}
