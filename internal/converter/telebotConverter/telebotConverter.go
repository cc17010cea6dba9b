package telebotConverter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/tg/tgCallback"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	tele "gopkg.in/telebot.v4"
)

var (
	printer = message.NewPrinter(language.English)
	hundred = decimal.NewFromInt(100)
)

const (
	HoldingsPerPage = 10
	// MessageLimit is the Telegram limit for a message text.
	MessageLimit = 4096
)

const HelpText = `👋 Portfolio tracker

/portfolio - current value, allocation and holdings
/rebalance [amount] - trades to reach target weights after investing amount
/record [memo] - save today's total value to history
/refresh - drop cached prices
/history - recent history records
/report [amount] - xlsx report
/backup - upload a report to Google Drive`

// Money renders d rounded to whole currency units with thousands separators, e.g. ₩1,234,567.
func Money(symbol string, d decimal.Decimal) string {
	rounded := d.Round(0)
	if rounded.IsNegative() {
		return "-" + symbol + printer.Sprintf("%d", rounded.Abs().IntPart())
	}
	return symbol + printer.Sprintf("%d", rounded.IntPart())
}

// SignedMoney is Money with an explicit plus sign for gains.
func SignedMoney(symbol string, d decimal.Decimal) string {
	if d.Round(0).IsPositive() {
		return "+" + Money(symbol, d)
	}
	return Money(symbol, d)
}

// Percent renders a fraction (0.2) as a percentage (20.00%).
func Percent(fraction decimal.Decimal) string {
	return fraction.Mul(hundred).StringFixed(2) + "%"
}

// SignedPercent renders a value already in percent with an explicit sign.
func SignedPercent(pct decimal.Decimal) string {
	s := pct.StringFixed(2) + "%"
	if pct.Round(2).IsPositive() {
		return "+" + s
	}
	return s
}

func MainMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(mainMenuRows(markup)...)
	return markup
}

func mainMenuRows(markup *tele.ReplyMarkup) []tele.Row {
	return []tele.Row{
		markup.Row(
			markup.Data("🔄 Refresh", tgCallback.Refresh),
			markup.Data("📝 Record", tgCallback.Record),
		),
		markup.Row(
			markup.Data("⚖️ Rebalance", tgCallback.Rebalance),
			markup.Data("📜 History", tgCallback.History),
		),
		markup.Row(
			markup.Data("📥 Report", tgCallback.Report),
		),
	}
}

// DashboardResponse renders the summary and one page of holdings.
// page is clamped to the available pages.
func DashboardResponse(snapshot model.Snapshot, symbol string, page int) (text string, markup *tele.ReplyMarkup) {
	pages := PageCount(len(snapshot.Positions))
	page = min(max(page, 0), pages-1)

	markup = &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, 4)

	paginationBtns := make([]tele.Btn, 0, 2)
	if page > 0 {
		paginationBtns = append(paginationBtns, markup.Data("◀️ Prev", tgCallback.HoldingsPage, strconv.Itoa(page-1)))
	}
	if page < pages-1 {
		paginationBtns = append(paginationBtns, markup.Data("Next ▶️", tgCallback.HoldingsPage, strconv.Itoa(page+1)))
	}
	if len(paginationBtns) > 0 {
		rows = append(rows, markup.Row(paginationBtns...))
	}
	markup.Inline(append(rows, mainMenuRows(markup)...)...)

	return dashboardText(snapshot, symbol, page, HoldingsPerPage), markup
}

// FullDashboard renders every holding on one page, for the terminal.
func FullDashboard(snapshot model.Snapshot, symbol string) string {
	return dashboardText(snapshot, symbol, 0, 0)
}

// PageCount is the number of holdings pages, at least one.
func PageCount(positions int) int {
	if positions == 0 {
		return 1
	}
	return (positions + HoldingsPerPage - 1) / HoldingsPerPage
}

// dashboardText renders holdings [page*perPage, (page+1)*perPage); perPage 0 means all.
func dashboardText(snapshot model.Snapshot, symbol string, page, perPage int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📊 Portfolio on %s\n", snapshot.Date))
	sb.WriteString(fmt.Sprintf("💰 Total value: %s (%s)\n", Money(symbol, snapshot.TotalValue), SignedMoney(symbol, snapshot.Daily.Change)))
	sb.WriteString(fmt.Sprintf("📈 Daily return: %s\n", SignedPercent(snapshot.Daily.ReturnPct)))
	sb.WriteString(fmt.Sprintf("🧾 Assets: %d\n", len(snapshot.Positions)))

	if len(snapshot.Allocation) > 0 {
		sb.WriteString("\n🗂 Allocation by category:\n")
		for _, a := range snapshot.Allocation {
			category := a.Category
			if category == "" {
				category = "Uncategorized"
			}
			sb.WriteString(fmt.Sprintf(" ▸ %s: %s (%s)\n", category, Money(symbol, a.Value), Percent(a.Weight)))
		}
	}

	from, to := 0, len(snapshot.Positions)
	if perPage > 0 {
		from = min(page*perPage, to)
		to = min(from+perPage, to)
	}

	if len(snapshot.Positions) > 0 {
		if perPage > 0 && len(snapshot.Positions) > perPage {
			sb.WriteString(fmt.Sprintf("\n📋 Holdings %d-%d of %d:\n", from+1, to, len(snapshot.Positions)))
		} else {
			sb.WriteString("\n📋 Holdings:\n")
		}
	}
	for i := from; i < to; i++ {
		p := snapshot.Positions[i]
		sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, p.Ticker))
		if p.Name != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", p.Name))
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("   ▸ Quantity: %s\n", p.Quantity.String()))
		if p.CurrentPrice.IsPositive() {
			sb.WriteString(fmt.Sprintf("   ▸ Price: %s\n", Money(symbol, p.CurrentPrice)))
		} else {
			sb.WriteString("   ▸ Price: n/a\n")
		}
		sb.WriteString(fmt.Sprintf("   ▸ Value: %s\n", Money(symbol, p.CurrentValue)))
		sb.WriteString(fmt.Sprintf("   ▸ Weight: %s (target %s)\n", Percent(p.CurrentWeight), Percent(p.TargetWeight)))
	}

	writeWarnings(&sb, snapshot)

	return sb.String()
}

// SplitMessage cuts text on line boundaries into parts of at most limit bytes.
// A single longer line is cut as is.
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	parts := make([]string, 0, len(text)/limit+1)
	var sb strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if sb.Len()+len(line) > limit && sb.Len() > 0 {
			parts = append(parts, sb.String())
			sb.Reset()
		}
		for len(line) > limit {
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		sb.WriteString(line)
	}
	if sb.Len() > 0 {
		parts = append(parts, sb.String())
	}
	return parts
}

func RebalancingResponse(snapshot model.Snapshot, symbol string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("⚖️ Rebalancing with investment %s\n", Money(symbol, snapshot.Investment)))
	sb.WriteString(fmt.Sprintf("Current total: %s\n", Money(symbol, snapshot.TotalValue)))
	sb.WriteString(fmt.Sprintf("New total: %s\n\n", Money(symbol, snapshot.TotalValue.Add(snapshot.Investment))))

	unavailable := make(map[string]struct{}, len(snapshot.UnavailableTickers))
	for _, ticker := range snapshot.UnavailableTickers {
		unavailable[ticker] = struct{}{}
	}

	for _, r := range snapshot.Rebalancing {
		switch r.Action {
		case model.ActionBuy:
			sb.WriteString(fmt.Sprintf("🟢 BUY %s: %s units (%s)\n", r.Ticker, r.UnitsToTrade.StringFixed(4), Money(symbol, r.Difference)))
		case model.ActionSell:
			sb.WriteString(fmt.Sprintf("🔴 SELL %s: %s units (%s)\n", r.Ticker, r.UnitsToTrade.Abs().StringFixed(4), Money(symbol, r.Difference.Abs())))
		default:
			if _, ok := unavailable[r.Ticker]; ok {
				sb.WriteString(fmt.Sprintf("⚪ HOLD %s (price unavailable)\n", r.Ticker))
			} else {
				sb.WriteString(fmt.Sprintf("⚪ HOLD %s\n", r.Ticker))
			}
		}
		sb.WriteString(fmt.Sprintf("   ▸ %s → %s (target %s)\n", Money(symbol, r.CurrentValue), Money(symbol, r.TargetValue), Percent(r.TargetWeight)))
	}

	writeWarnings(&sb, snapshot)

	return sb.String()
}

// HistoryResponse lists the last limit records, newest first.
func HistoryResponse(history []model.HistoryRecord, limit int, symbol string) string {
	if len(history) == 0 {
		return "History is empty. Use /record to save today's value."
	}

	var sb strings.Builder
	sb.WriteString("📜 History:\n\n")

	shown := 0
	for i := len(history) - 1; i >= 0; i-- {
		if limit > 0 && shown == limit {
			break
		}
		r := history[i]
		sb.WriteString(fmt.Sprintf("%s  %s  %s", r.Date, Money(symbol, r.TotalAsset), SignedPercent(r.ProfitRate)))
		if r.Memo != "" {
			sb.WriteString("  " + r.Memo)
		}
		sb.WriteString("\n")
		shown++
	}

	if len(history) > shown {
		sb.WriteString(fmt.Sprintf("\n…and %d earlier records\n", len(history)-shown))
	}

	return sb.String()
}

func RecordResponse(record model.HistoryRecord, symbol string) string {
	return fmt.Sprintf("✅ Recorded %s: %s (%s)\nMemo: %s", record.Date, Money(symbol, record.TotalAsset), SignedPercent(record.ProfitRate), record.Memo)
}

func writeWarnings(sb *strings.Builder, snapshot model.Snapshot) {
	if len(snapshot.UnavailableTickers) > 0 || !snapshot.TargetWeights.Balanced {
		sb.WriteString("\n")
	}
	if len(snapshot.UnavailableTickers) > 0 {
		sb.WriteString(fmt.Sprintf("⚠️ Prices unavailable, valued at 0: %s\n", strings.Join(snapshot.UnavailableTickers, ", ")))
	}
	if !snapshot.TargetWeights.Balanced {
		sb.WriteString(fmt.Sprintf("⚠️ Target weights sum to %s, expected 100.00%%\n", Percent(snapshot.TargetWeights.Sum)))
	}
}
