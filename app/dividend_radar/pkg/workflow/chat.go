package workflow

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/document"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/llm"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/logger"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/market"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

const consultantTitle = "AI Financial Consultant"

const systemPrompt = "You are a helpful, friendly AI financial consultant specializing in real-time market analysis. " +
	"You provide current, up-to-date information about dividend ETFs, stocks, and investment strategies based on live market data. " +
	"Always emphasize that your recommendations are based on real-time market conditions. " +
	"If the question is not about finance, politely redirect the user to ask about dividend ETFs, stocks, or investment strategies. " +
	"Keep the answer concise."

const (
	greetingReply = "Hello! 👋 I'm your AI financial consultant specializing in real-time market analysis. " +
		"I provide current dividend ETF data, live market insights, and up-to-date investment strategies. " +
		"How can I help you with today's market opportunities?"
	redirectReply = "I specialize in real-time financial market analysis, focusing on dividend ETFs, stocks, and current investment strategies. " +
		"Please ask me something related to finance and investing for the most current market insights."
)

var greetings = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening", "greetings",
}

var financeKeywords = []string{
	"etf", "dividend", "stock", "investment", "portfolio", "yield", "finance", "financial",
	"market", "strategy", "advisor", "consultant", "trading", "broker", "fund", "equity",
	"bond", "asset", "return", "profit", "loss", "risk", "diversification", "allocation",
	"retirement", "401k", "ira", "roth", "pension", "savings", "wealth", "money", "capital",
	"income", "expense", "budget", "tax", "inflation", "recession", "bull market", "bear market",
	"volatility", "liquidity", "sector", "industry",
}

var suggestions = []string{
	"Would you like real-time analysis of the top dividend ETFs?",
	"Ask me about building a diversified portfolio with current market data!",
	"Curious about today's dividend yields and market conditions?",
	"Want live market insights on long-term investment strategies?",
	"Need help comparing ETFs with current market data?",
	"Interested in real-time dividend growth investing opportunities?",
	"Would you like to explore current sector-specific ETF performance?",
}

var priceKeywords = []string{
	"price", "quote", "trading at", "how much is", "how much does", "current value", "worth", "cost",
}

// 常见公司名到代码
var nameSymbols = map[string]string{
	"apple":             "AAPL",
	"microsoft":         "MSFT",
	"google":            "GOOGL",
	"alphabet":          "GOOGL",
	"amazon":            "AMZN",
	"nvidia":            "NVDA",
	"tesla":             "TSLA",
	"coca-cola":         "KO",
	"coca cola":         "KO",
	"johnson & johnson": "JNJ",
	"procter":           "PG",
	"pepsi":             "PEP",
	"exxon":             "XOM",
	"chevron":           "CVX",
	"verizon":           "VZ",
	"at&t":              "T",
	"abbvie":            "ABBV",
	"altria":            "MO",
	"realty income":     "O",
	"jpmorgan":          "JPM",
	"cisco":             "CSCO",
	"texas instruments": "TXN",
	"pfizer":            "PFE",
	"duke energy":       "DUK",
}

var (
	dollarTicker = regexp.MustCompile(`\$([A-Za-z]{1,5})\b`)
	upperWord    = regexp.MustCompile(`\b[A-Z]{2,5}\b`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// generalChat 回答自由文本问题
func (e *Engine) generalChat(ctx context.Context, s State) State {
	if s.UserInput == nil {
		return s.fail("No user input provided")
	}
	text := sanitize(*s.UserInput)
	if text == "" {
		return s.fail("Empty user input after sanitization")
	}
	log := logger.Log.WithField("run_id", s.RunID)

	if isGreeting(text) {
		return e.chatReply(s, greetingReply)
	}

	symbols := extractSymbols(text)
	if !isFinanceRelated(text) && len(symbols) == 0 {
		return e.chatReply(s, redirectReply)
	}

	if !e.llm.Available() {
		_, err := e.llm.Complete(ctx, text)
		if err == nil {
			err = llm.ErrNotConfigured
		}
		return s.fail(err.Error())
	}

	var sb strings.Builder
	sb.WriteString(systemPrompt)
	if isPriceQuery(text) && len(symbols) > 0 {
		if block := e.quoteBlock(ctx, s.RunID, symbols); block != "" {
			sb.WriteString("\n\nReal-time market data:\n")
			sb.WriteString(block)
		}
	}
	if urls := document.ExtractURLs(text); len(urls) > 0 && e.docs != nil {
		doc, err := e.docs.Load(ctx, urls[0])
		if err != nil {
			log.Warnf("加载文档失败 [%s]: %v", urls[0], err)
		} else {
			fmt.Fprintf(&sb, "\n\nReferenced document (%s):\n%s", doc.URL, doc.Content)
		}
	}
	sb.WriteString("\n\nUser: ")
	sb.WriteString(text)

	reply, err := e.llm.Complete(ctx, sb.String())
	if err != nil {
		log.Errorf("对话生成失败: %v", err)
		return s.fail(err.Error())
	}
	return e.chatReply(s, capSentences(reply, e.settings.MaxSentences))
}

func (e *Engine) chatReply(s State, text string) State {
	s.Report = &model.SummaryReport{
		Title:     consultantTitle,
		Summary:   text + "\n\n" + e.suggestion(),
		TopPicks:  []model.InvestmentRecord{},
		Timestamp: e.now(),
	}
	return s.next(PhaseComplete)
}

func (e *Engine) suggestion() string {
	i := e.pick(len(suggestions))
	if i < 0 || i >= len(suggestions) {
		i = 0
	}
	return suggestions[i]
}

// quoteBlock 并发获取报价，失败的代码跳过
func (e *Engine) quoteBlock(ctx context.Context, runID string, symbols []string) string {
	if e.quotes == nil {
		return ""
	}
	if limit := e.settings.MaxQuotes; limit > 0 && len(symbols) > limit {
		symbols = symbols[:limit]
	}

	quotes := make([]*model.Quote, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for i, sym := range symbols {
		g.Go(func() error {
			q, err := e.quotes.FetchQuote(gctx, sym)
			if err != nil {
				logger.Log.WithField("run_id", runID).Warnf("获取报价失败 [%s]: %v", sym, err)
				return nil
			}
			quotes[i] = q
			return nil
		})
	}
	_ = g.Wait()

	var sb strings.Builder
	for _, q := range quotes {
		if q == nil {
			continue
		}
		fmt.Fprintf(&sb, "- %s: $%.2f (change %+.2f, %s)", q.Symbol, q.Price, q.Change, q.ChangePercent)
		if q.LatestTradingDay != "" {
			fmt.Fprintf(&sb, " as of %s", q.LatestTradingDay)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func sanitize(s string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}

func isGreeting(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, g := range greetings {
		if t == g || strings.HasPrefix(t, g+" ") || strings.HasPrefix(t, g+",") || strings.HasPrefix(t, g+"!") {
			return true
		}
	}
	return false
}

func isFinanceRelated(text string) bool {
	return containsAny(strings.ToLower(text), financeKeywords)
}

func isPriceQuery(text string) bool {
	return dollarTicker.MatchString(text) || containsAny(strings.ToLower(text), priceKeywords)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// extractSymbols 先取 $TICKER，再取公司名，最后取大写的已知代码，结果去重
func extractSymbols(text string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(sym string) {
		sym = strings.ToUpper(sym)
		if !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}

	for _, m := range dollarTicker.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	lower := strings.ToLower(text)
	for _, name := range companyNames {
		if strings.Contains(lower, name) {
			add(nameSymbols[name])
		}
	}
	for _, w := range upperWord.FindAllString(text, -1) {
		if market.IsKnown(w) {
			add(w)
		}
	}
	return out
}

// companyNames 公司名按长度降序，保证提取顺序稳定
var companyNames = func() []string {
	names := make([]string, 0, len(nameSymbols))
	for n := range nameSymbols {
		names = append(names, n)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return names
}()

// capSentences 保留前 n 句，句子以 .!? 后接空白或结尾为界
func capSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	if n <= 0 {
		return text
	}
	runes := []rune(text)
	count := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		count++
		if count == n {
			return strings.TrimSpace(string(runes[:i+1]))
		}
	}
	return text
}
