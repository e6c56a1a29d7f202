package chatbot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedTurn struct{ intent, outcome string }

type fakeRecorder struct {
	mu    sync.Mutex
	turns []recordedTurn
}

func (r *fakeRecorder) TurnCompleted(intent, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, recordedTurn{intent, outcome})
}

func newTestUseCase(llm *fakeLLM, repo *fakeInvoices, opts Options) (*ChatbotUseCase, *fakeRecorder) {
	rec := &fakeRecorder{}
	if opts.Calendar.TimeZoneID == "" {
		opts.Calendar = utcCalendar
	}
	if opts.Currency == "" {
		opts.Currency = "EGP"
	}
	opts.RouterModel = "llama3"
	uc := NewChatbotUseCase(llm, repo, opts, zerolog.Nop(), rec)
	uc.now = func() time.Time { return fixedNow }
	return uc, rec
}

func TestAsk_CountEndToEnd(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"function":"CountInPeriod","params":{"period":"this month"},"missing":[],"confidence":0.9,"clarification":""}`}}
	repo := &fakeInvoices{invoices: sampleInvoices()}
	uc, rec := newTestUseCase(llm, repo, Options{})

	got, err := uc.Ask(context.Background(), "How many invoices did we issue this month?")
	require.NoError(t, err)
	assert.Equal(t, "You issued 2 invoices from May 1, 2024 to May 31, 2024.", got)

	require.Equal(t, 1, llm.callCount())
	require.NotNil(t, llm.opts[0].Temperature)
	assert.Zero(t, *llm.opts[0].Temperature)
	assert.Equal(t, 256, *llm.opts[0].MaxTokens)
	assert.Equal(t, []recordedTurn{{"CountInPeriod", "answer"}}, rec.turns)
}

func TestAsk_ArabicQuestionGetsArabicAnswer(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"function":"CountInPeriod","params":{"period":"الشهر الماضي"}}`}}
	repo := &fakeInvoices{invoices: sampleInvoices()}
	uc, _ := newTestUseCase(llm, repo, Options{})

	got, err := uc.Ask(context.Background(), "كم عدد الفواتير الشهر الماضي؟")
	require.NoError(t, err)
	assert.Equal(t, "تم إصدار فاتورة واحدة من ١ أبريل ٢٠٢٤ إلى ٣٠ أبريل ٢٠٢٤.", got)
}

func TestAsk_MonthYearPeriod(t *testing.T) {
	cases := []struct {
		name, question, period, want string
	}{
		{"inglés", "How many invoices in May 2024?", "in May 2024", "You issued 2 invoices from May 1, 2024 to May 31, 2024."},
		{"árabe", "كم عدد الفواتير في أبريل 2024؟", "في أبريل 2024", "تم إصدار فاتورة واحدة من ١ أبريل ٢٠٢٤ إلى ٣٠ أبريل ٢٠٢٤."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			llm := &fakeLLM{responses: []string{`{"function":"CountInPeriod","params":{"period":"` + tc.period + `"}}`}}
			repo := &fakeInvoices{invoices: sampleInvoices()}
			uc, _ := newTestUseCase(llm, repo, Options{})

			got, err := uc.Ask(context.Background(), tc.question)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Contains(t, llm.prompts[0], "Keep the preposition before a month name")
		})
	}
}

func TestAsk_SameRouterOutputSameAnswer(t *testing.T) {
	routed := map[string]string{
		"total":   `{"function":"TotalValueInPeriod","params":{"period":"this month"}}`,
		"aging":   `{"function":"AgingBuckets","params":{}}`,
		"top":     `{"function":"TopCustomers","params":{"period":"2024","topN":"2"}}`,
		"summary": `{"function":"InvoiceSummaryByNumber","params":{"invoiceNumber":"INV-001"}}`,
	}
	for name, raw := range routed {
		t.Run(name, func(t *testing.T) {
			uc, _ := newTestUseCase(&fakeLLM{responses: []string{raw}}, &fakeInvoices{invoices: sampleInvoices()}, Options{})
			first, err := uc.Ask(context.Background(), "same question")
			require.NoError(t, err)
			second, err := uc.Ask(context.Background(), "same question")
			require.NoError(t, err)
			assert.NotEmpty(t, first)
			assert.Equal(t, first, second)
		})
	}
}

func TestAsk_Clarification(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"function":"TotalValueInPeriod","params":{},"missing":["period"],"confidence":0.6,"clarification":"For which period?"}`}}
	repo := &fakeInvoices{invoices: sampleInvoices()}
	uc, rec := newTestUseCase(llm, repo, Options{})

	got, err := uc.Ask(context.Background(), "What is the total value?")
	require.NoError(t, err)
	assert.Equal(t, "For which period?", got)
	assert.Zero(t, repo.callCount())
	assert.Equal(t, "clarification", rec.turns[0].outcome)
}

func TestAsk_MissingParameterWithoutClarification(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"function":"GetInvoiceSummary","params":{},"missing":["invoiceNumber"]}`}}
	repo := &fakeInvoices{invoices: sampleInvoices()}
	uc, _ := newTestUseCase(llm, repo, Options{})

	got, err := uc.Ask(context.Background(), "Summarize the invoice")
	require.NoError(t, err)
	assert.Equal(t, "Please specify the invoice number you are asking about.", got)
	assert.Zero(t, repo.callCount())
}

func TestAsk_RouterFailures(t *testing.T) {
	cases := []struct {
		name    string
		llm     *fakeLLM
		outcome string
		prefix  string
	}{
		{"error de transporte", &fakeLLM{err: errors.New("connection refused")}, "router_unavailable", "The assistant is temporarily unavailable."},
		{"salida malformada", &fakeLLM{responses: []string{"I think you want the count."}}, "router_malformed", "I'm not sure how to answer that."},
		{"función desconocida", &fakeLLM{responses: []string{`{"function":"DeleteEverything","params":{}}`}}, "unknown_intent", "I'm not sure how to answer that."},
		{"function null", &fakeLLM{responses: []string{`{"function":null,"params":{},"missing":[]}`}}, "unknown_intent", "I'm not sure how to answer that."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeInvoices{invoices: sampleInvoices()}
			uc, rec := newTestUseCase(tc.llm, repo, Options{})
			got, err := uc.Ask(context.Background(), "what's the weather?")
			require.NoError(t, err)
			assert.Contains(t, got, tc.prefix)
			assert.Zero(t, repo.callCount())
			assert.Equal(t, tc.outcome, rec.turns[0].outcome)
		})
	}
}

func TestAsk_RouterTimeout(t *testing.T) {
	llm := &fakeLLM{block: true}
	uc, rec := newTestUseCase(llm, &fakeInvoices{}, Options{RouterTimeout: 20 * time.Millisecond})

	got, err := uc.Ask(context.Background(), "how many invoices today?")
	require.NoError(t, err)
	assert.Contains(t, got, "temporarily unavailable")
	assert.Equal(t, "router_unavailable", rec.turns[0].outcome)
}

func TestAsk_CallerCancellation(t *testing.T) {
	llm := &fakeLLM{block: true}
	uc, rec := newTestUseCase(llm, &fakeInvoices{}, Options{RouterTimeout: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	got, err := uc.Ask(ctx, "how many invoices today?")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, got)
	assert.Empty(t, rec.turns)
}

func TestAsk_RetrievalFailureIsGeneric(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"function":"CountInPeriod","params":{"period":"today"}}`}}
	repo := &fakeInvoices{err: errors.New("pq: relation \"invoices\" does not exist")}
	uc, rec := newTestUseCase(llm, repo, Options{})

	got, err := uc.Ask(context.Background(), "how many invoices today?")
	require.NoError(t, err)
	assert.Equal(t, "Something went wrong while retrieving invoice data. Please try again later.", got)
	assert.NotContains(t, got, "relation")
	assert.Equal(t, "retrieval_failure", rec.turns[0].outcome)
}

func TestAsk_NotFound(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"function":"InvoiceSummaryByNumber","params":{"invoiceNumber":"INV-404"}}`}}
	uc, _ := newTestUseCase(llm, &fakeInvoices{invoices: sampleInvoices()}, Options{})

	got, err := uc.Ask(context.Background(), "summary of INV-404")
	require.NoError(t, err)
	assert.Equal(t, "Invoice INV-404 was not found.", got)
}

func TestAsk_EmptyQuestionSkipsLLM(t *testing.T) {
	llm := &fakeLLM{}
	uc, _ := newTestUseCase(llm, &fakeInvoices{}, Options{})

	got, err := uc.Ask(context.Background(), "   ")
	require.NoError(t, err)
	assert.Contains(t, got, "I'm not sure how to answer that.")
	assert.Zero(t, llm.callCount())
}

func TestAsk_Paraphrase(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`{"function":"CountInPeriod","params":{"period":"this month"}}`,
		"  This month you issued 2 invoices.  ",
	}}
	uc, _ := newTestUseCase(llm, &fakeInvoices{invoices: sampleInvoices()}, Options{Paraphrase: true})

	got, err := uc.Ask(context.Background(), "how many invoices this month?")
	require.NoError(t, err)
	assert.Equal(t, "This month you issued 2 invoices.", got)
	require.Equal(t, 2, llm.callCount())
	assert.Contains(t, llm.prompts[1], "You issued 2 invoices from May 1, 2024 to May 31, 2024.")
}

func TestAsk_ParaphraseFailureKeepsDeterministicAnswer(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`{"function":"CountInPeriod","params":{"period":"this month"}}`,
		"",
	}}
	uc, _ := newTestUseCase(llm, &fakeInvoices{invoices: sampleInvoices()}, Options{Paraphrase: true})

	got, err := uc.Ask(context.Background(), "how many invoices this month?")
	require.NoError(t, err)
	assert.Equal(t, "You issued 2 invoices from May 1, 2024 to May 31, 2024.", got)
}

func TestAsk_ParaphraseSkippedForFallbacks(t *testing.T) {
	llm := &fakeLLM{responses: []string{"garbage", "should not be used"}}
	uc, _ := newTestUseCase(llm, &fakeInvoices{}, Options{Paraphrase: true})

	_, err := uc.Ask(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 1, llm.callCount())
}

func TestAsk_ConcurrentTurnsAreIndependent(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"function":"OutstandingBalance","params":{}}`}}
	uc, _ := newTestUseCase(llm, &fakeInvoices{invoices: sampleInvoices()}, Options{})

	var wg sync.WaitGroup
	answers := make([]string, 8)
	for i := range answers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			answers[i], _ = uc.Ask(context.Background(), "what is our outstanding balance?")
		}(i)
	}
	wg.Wait()
	for _, a := range answers {
		assert.Equal(t, "The outstanding balance is EGP 550.00 across 3 invoices.", a)
	}
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 2))

	got := truncate("الفواتير المتأخرة", 3)
	assert.Equal(t, "الف…", got)
	assert.True(t, utf8.ValidString(got))
}
