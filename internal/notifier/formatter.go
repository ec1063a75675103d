package notifier

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"BreakoutSentinel/internal/calculator"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/recorder"
)

const (
	timeLayout = "2006-01-02 15:04"
	overbought = 70
	oversold   = 30
)

// FormatAnalysis renders the latest indicator readings, the state of every
// strategy pair and up to maxEvents of the most recent breakouts.
func FormatAnalysis(a *model.Analysis, defs []model.StrategyDefinition, maxEvents int) string {
	sym := html.EscapeString(a.Request.Symbol)
	if a.Empty() {
		return fmt.Sprintf("🔍 No data found for %s. Please try another ticker.", sym)
	}

	var b strings.Builder
	last, _ := a.Series.Last()
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s · %s\n", sym, a.Request.Interval, a.Request.Period))
	b.WriteString(fmt.Sprintf("Last close: %.2f (%s UTC, %d bars)\n\n", last.Close, last.Time.UTC().Format(timeLayout), len(a.Series)))

	smas, volumes, rsis := groupLines(a.Indicators)

	b.WriteString("📈 <b>Moving averages</b>\n")
	parts := make([]string, 0, len(smas))
	for _, name := range smas {
		parts = append(parts, name+": "+latest(a.Indicators, name, "%.2f"))
	}
	b.WriteString("  " + strings.Join(parts, " | ") + "\n")

	b.WriteString("⚡ <b>Momentum</b>\n")
	for _, name := range rsis {
		b.WriteString(fmt.Sprintf("  %s: %s%s\n", name, latest(a.Indicators, name, "%.1f"), rsiZone(a.Indicators, name)))
	}
	if _, ok := a.Indicators.Get(model.NameMACD); ok {
		b.WriteString(fmt.Sprintf("  MACD: %s / signal %s (hist %s)\n",
			latest(a.Indicators, model.NameMACD, "%.3f"),
			latest(a.Indicators, model.NameMACDSignal, "%.3f"),
			latest(a.Indicators, model.NameMACDHist, "%+.3f")))
	}

	b.WriteString("📦 <b>Volume</b>\n")
	for _, name := range volumes {
		avg := lineLast(a.Indicators, name)
		if !avg.Valid || avg.Value == 0 {
			b.WriteString(fmt.Sprintf("  %.0f vs %s n/a\n", last.Volume, name))
			continue
		}
		b.WriteString(fmt.Sprintf("  %.0f vs %s %.0f (%+.1f%%)\n", last.Volume, name, avg.Value, (last.Volume/avg.Value-1)*100))
	}

	if len(defs) > 0 {
		b.WriteString("\n🧭 <b>Trend state</b>\n")
		for _, d := range defs {
			b.WriteString("  " + trendState(a, d) + "\n")
		}
	}

	b.WriteString("\n" + formatEvents(a, maxEvents))
	return b.String()
}

// FormatAlert renders newly detected breakouts for a scheduled scan.
func FormatAlert(a *model.Analysis, events []model.BreakoutEvent) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚨 <b>Breakout</b> %s | %s · %s\n",
		html.EscapeString(a.Request.Symbol), a.Request.Interval, a.Request.Period))
	for _, e := range events {
		b.WriteString(eventLine(e) + "\n")
	}
	return b.String()
}

// FormatError turns a failed analysis into a chat message.
func FormatError(req model.Request, err error) string {
	if model.IsValidation(err) {
		return fmt.Sprintf("⚠️ Invalid input for %s: %s", html.EscapeString(req.Symbol), html.EscapeString(err.Error()))
	}
	return fmt.Sprintf("❌ Analysis of %s failed: %s", html.EscapeString(req.Symbol), html.EscapeString(err.Error()))
}

// FormatHistory lists stored breakouts, newest first.
func FormatHistory(symbol string, recs []recorder.BreakoutRecord) string {
	sym := html.EscapeString(symbol)
	if len(recs) == 0 {
		return fmt.Sprintf("🗂 No breakouts recorded for %s yet.", sym)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>Recent breakouts: %s</b>\n\n", sym))
	for _, r := range recs {
		b.WriteString(fmt.Sprintf("  %s  %-4s %-12s close %.2f  vol %.0f\n",
			r.BarTime.Format(timeLayout), r.Interval, r.StrategyID, r.Close, r.Volume))
	}
	return b.String()
}

// FormatWatchlist lists the scheduled scan targets.
func FormatWatchlist(reqs []model.Request) string {
	var b strings.Builder
	b.WriteString("👀 <b>Watchlist</b>\n")
	for _, r := range reqs {
		b.WriteString(fmt.Sprintf("  %s  %s · %s\n", html.EscapeString(r.Symbol), r.Interval, r.Period))
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("🤖 <b>BreakoutSentinel</b>\n\n")
	b.WriteString("/scan SYMBOL [interval] [period] - analyze now\n")
	b.WriteString("    interval: 1h, 1d, 1wk, 1mo (default 1h)\n")
	b.WriteString("    period: 1mo, 3mo, 6mo, 1y, 2y (default 1mo)\n")
	b.WriteString("/history SYMBOL - recorded breakouts\n")
	b.WriteString("/watchlist - scheduled symbols\n")
	b.WriteString("/help - this message\n")
	return b.String()
}

func formatEvents(a *model.Analysis, maxEvents int) string {
	if len(a.Events) == 0 {
		return "No volume-confirmed breakouts in this window."
	}
	shown := a.Events
	if maxEvents > 0 && len(shown) > maxEvents {
		shown = shown[len(shown)-maxEvents:]
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚀 <b>Breakouts</b> (%d, showing %d)\n", len(a.Events), len(shown)))
	for _, e := range shown {
		b.WriteString(eventLine(e) + "\n")
	}
	return b.String()
}

func eventLine(e model.BreakoutEvent) string {
	return fmt.Sprintf("  %s  %-12s close %.2f  vol %.0f", e.Time.UTC().Format(timeLayout), e.StrategyID, e.Close, e.Volume)
}

// trendState reports which side of the slow line the fast line is on and
// when it last crossed back below.
func trendState(a *model.Analysis, d model.StrategyDefinition) string {
	label := fmt.Sprintf("%s (%s/%s): ", d.ID, d.Fast, d.Slow)
	fast, okF := a.Indicators.Get(d.Fast)
	slow, okS := a.Indicators.Get(d.Slow)
	if !okF || !okS {
		return label + "n/a"
	}
	f, s := fast.Last(), slow.Last()
	if !f.Valid || !s.Valid {
		return label + "warming up"
	}
	state := "above ▲"
	if f.Value < s.Value {
		state = "below ▼"
	} else if f.Value == s.Value {
		state = "flat"
	}
	if below, err := calculator.CrossesBelow(fast, slow); err == nil && len(below) > 0 {
		state += " | last bearish cross " + a.Series[below[len(below)-1]].Time.UTC().Format(timeLayout)
	}
	return label + state
}

func rsiZone(set *model.IndicatorSet, name string) string {
	v := lineLast(set, name)
	switch {
	case !v.Valid:
		return ""
	case v.Value >= overbought:
		return " overbought"
	case v.Value <= oversold:
		return " oversold"
	}
	return ""
}

// groupLines splits indicator names into price SMAs (by window), volume
// averages and RSI lines.
func groupLines(set *model.IndicatorSet) (smas, volumes, rsis []string) {
	for _, name := range set.Names() {
		switch {
		case strings.HasPrefix(name, "VolumeMA"):
			volumes = append(volumes, name)
		case strings.HasPrefix(name, "SMA"):
			smas = append(smas, name)
		case strings.HasPrefix(name, "RSI"):
			rsis = append(rsis, name)
		}
	}
	sort.Slice(smas, func(i, j int) bool { return window(smas[i]) < window(smas[j]) })
	return smas, volumes, rsis
}

func window(name string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(name, "SMA"))
	return n
}

func lineLast(set *model.IndicatorSet, name string) model.Optional {
	l, ok := set.Get(name)
	if !ok {
		return model.Optional{}
	}
	return l.Last()
}

func latest(set *model.IndicatorSet, name, format string) string {
	v := lineLast(set, name)
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf(format, v.Value)
}
