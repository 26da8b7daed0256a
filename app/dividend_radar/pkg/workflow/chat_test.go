package workflow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/document"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/llm"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

func chatState(text string) State {
	return State{UserInput: strPtr(text), Status: PhaseGeneralChat, InputType: model.InputGeneral}
}

func TestGeneralChat_Greeting(t *testing.T) {
	fake := &fakeLLM{}
	e := newTestEngine(fake, nil, WithRandom(func(n int) int { return n - 1 }))

	for _, text := range []string{"hello", "Hi there", "hey, what's up", "Good morning!"} {
		got := e.generalChat(context.Background(), chatState(text))
		require.Equal(t, PhaseComplete, got.Status, text)
		assert.Equal(t, consultantTitle, got.Report.Title)
		assert.True(t, strings.HasPrefix(got.Report.Summary, "Hello! 👋"))
		assert.True(t, strings.HasSuffix(got.Report.Summary, suggestions[len(suggestions)-1]))
		assert.NotNil(t, got.Report.TopPicks)
		assert.Empty(t, got.Report.TopPicks)
	}
	assert.Zero(t, fake.calls())
}

func TestGeneralChat_RedirectsOffTopic(t *testing.T) {
	fake := &fakeLLM{}
	e := newTestEngine(fake, nil)

	got := e.generalChat(context.Background(), chatState("asdkjhasd random text"))
	require.Equal(t, PhaseComplete, got.Status)
	assert.True(t, strings.HasPrefix(got.Report.Summary, redirectReply))
	assert.True(t, strings.HasSuffix(got.Report.Summary, "\n\n"+suggestions[0]))
	assert.Zero(t, fake.calls())
}

func TestGeneralChat_AnswersFinanceQuestion(t *testing.T) {
	fake := &fakeLLM{reply: "One. Two! Three? Four. Five. Six. Seven. Eight."}
	e := newTestEngine(fake, nil, WithSettings(Settings{MaxSentences: 3, MaxSteps: 16}))

	got := e.generalChat(context.Background(), chatState("  Is a dividend   portfolio good for retirement? "))
	require.Equal(t, PhaseComplete, got.Status)
	assert.Equal(t, "One. Two! Three?\n\n"+suggestions[0], got.Report.Summary)

	require.Len(t, fake.prompts, 1)
	assert.True(t, strings.HasPrefix(fake.prompts[0], systemPrompt))
	assert.True(t, strings.HasSuffix(fake.prompts[0], "User: Is a dividend portfolio good for retirement?"))
	assert.NotContains(t, fake.prompts[0], "Real-time market data")
}

func TestGeneralChat_SymbolOnlyQuestionReachesLLM(t *testing.T) {
	fake := &fakeLLM{reply: "SCHD tracks US dividend payers."}
	e := newTestEngine(fake, nil)

	got := e.generalChat(context.Background(), chatState("thoughts on SCHD?"))
	require.Equal(t, PhaseComplete, got.Status)
	assert.Equal(t, 1, fake.calls())
}

func TestGeneralChat_InjectsQuotes(t *testing.T) {
	fake := &fakeLLM{reply: "Here are the prices."}
	quotes := &stubQuotes{quotes: map[string]*model.Quote{
		"SCHD": {Symbol: "SCHD", Price: 27.45, Change: 0.12, ChangePercent: "0.44%", LatestTradingDay: "2024-05-01"},
		"KO":   {Symbol: "KO", Price: 61.4, Change: -0.3, ChangePercent: "-0.49%"},
	}}
	e := newTestEngine(fake, nil, WithQuotes(quotes), WithSettings(Settings{MaxQuotes: 3, MaxSentences: 6, MaxSteps: 16}))

	got := e.generalChat(context.Background(), chatState("What is the price of $SCHD, coca-cola, $ZZZZ and $VYM and $JNJ?"))
	require.Equal(t, PhaseComplete, got.Status)

	assert.ElementsMatch(t, []string{"SCHD", "ZZZZ", "VYM"}, quotes.asked)
	require.Len(t, fake.prompts, 1)
	p := fake.prompts[0]
	assert.Contains(t, p, "Real-time market data:\n")
	assert.Contains(t, p, "- SCHD: $27.45 (change +0.12, 0.44%) as of 2024-05-01\n")
	assert.NotContains(t, p, "ZZZZ:")
}

func TestGeneralChat_LoadsReferencedDocument(t *testing.T) {
	fake := &fakeLLM{reply: "The article says dividends rose."}
	docs := &stubDocs{doc: &document.Document{URL: "https://example.com/news", Content: "Dividends rose 5% this quarter."}}
	e := newTestEngine(fake, nil, WithDocuments(docs))

	got := e.generalChat(context.Background(), chatState("What does https://example.com/news. say about dividend growth?"))
	require.Equal(t, PhaseComplete, got.Status)
	assert.Equal(t, []string{"https://example.com/news"}, docs.urls)
	assert.Contains(t, fake.prompts[0], "Referenced document (https://example.com/news):\nDividends rose 5% this quarter.")
}

func TestGeneralChat_DocumentFailureIsNotFatal(t *testing.T) {
	fake := &fakeLLM{reply: "ok."}
	docs := &stubDocs{err: errors.New("404")}
	e := newTestEngine(fake, nil, WithDocuments(docs))

	got := e.generalChat(context.Background(), chatState("summarize https://example.com/etf market news"))
	assert.Equal(t, PhaseComplete, got.Status)
	assert.NotContains(t, fake.prompts[0], "Referenced document")
}

func TestRun_ChatDoesNotFetchInternalAddress(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("INTERNAL-SECRET-TOKEN=abc123"))
	}))
	defer srv.Close()

	fake := &fakeLLM{reply: "Dividend outlook is stable."}
	e := newTestEngine(fake, nil, WithDocuments(document.NewLoader(time.Second)))

	for _, path := range []string{"/admin/keys", "/keys.txt"} {
		got := e.Run(context.Background(), TextInput("what is the dividend outlook in "+srv.URL+path))
		require.Equal(t, PhaseComplete, got.Status)
	}
	assert.Zero(t, hits.Load())
	require.Equal(t, 2, fake.calls())
	for _, p := range fake.prompts {
		assert.NotContains(t, p, "INTERNAL-SECRET-TOKEN")
		assert.NotContains(t, p, "Referenced document")
	}
}

func TestGeneralChat_RequiresLLM(t *testing.T) {
	e := newTestEngine(llm.Unconfigured{Key: "OPENAI_API_KEY"}, nil)

	got := e.generalChat(context.Background(), chatState("best dividend ETF?"))
	assert.Equal(t, PhaseError, got.Status)
	assert.Contains(t, got.Error, "OPENAI_API_KEY")
	assert.Nil(t, got.Report)
}

func TestGeneralChat_LLMFailure(t *testing.T) {
	e := newTestEngine(&fakeLLM{err: llm.ErrEmptyResponse}, nil)

	got := e.generalChat(context.Background(), chatState("best dividend ETF?"))
	assert.Equal(t, PhaseError, got.Status)
	assert.Equal(t, llm.ErrEmptyResponse.Error(), got.Error)
}

func TestGeneralChat_MissingInput(t *testing.T) {
	e := newTestEngine(nil, nil)

	got := e.generalChat(context.Background(), State{})
	assert.Equal(t, "No user input provided", got.Error)

	got = e.generalChat(context.Background(), chatState(" \t "))
	assert.Equal(t, "Empty user input after sanitization", got.Error)
}

func TestExtractSymbols(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"compare $schd and $VYM", []string{"SCHD", "VYM"}},
		{"Is Johnson & Johnson or Pfizer better", []string{"JNJ", "PFE"}},
		{"Should I buy KO or PEP", []string{"KO", "PEP"}},
		{"THE USA ETF IS", nil},
		{"is T a buy", nil},
		{"$T vs at&t", []string{"T"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractSymbols(tt.text), tt.text)
	}
}

func TestIsPriceQuery(t *testing.T) {
	assert.True(t, isPriceQuery("what's the price of KO"))
	assert.True(t, isPriceQuery("$VYM today"))
	assert.True(t, isPriceQuery("How much is SCHD"))
	assert.False(t, isPriceQuery("is SCHD a good dividend fund"))
}

func TestCapSentences(t *testing.T) {
	assert.Equal(t, "SCHD trades at $27.45 today. It yields 3.4%.", capSentences("SCHD trades at $27.45 today. It yields 3.4%. Buy it.", 2))
	assert.Equal(t, "No terminator here", capSentences("  No terminator here ", 2))
	assert.Equal(t, "Short.", capSentences("Short.", 6))
	assert.Equal(t, "Wow!", capSentences("Wow!\nNext line.", 1))
}
