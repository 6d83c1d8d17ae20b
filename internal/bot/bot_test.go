package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"unilib/internal/analytics"
	"unilib/internal/report"
	"unilib/internal/storage/stubs"
)

const (
	userID = int64(123)
	chatID = int64(456)
)

var clock = time.Date(2025, 1, 1, 9, 45, 0, 0, time.UTC)

// fakeSender records what the bot would have sent to Telegram
type fakeSender struct {
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

// stubSource fails or panics on demand and remembers the last request
type stubSource struct {
	asOf   time.Time
	filter analytics.SubjectFilter
	calls  int
	err    error
	panics bool
}

func (s *stubSource) Build(_ context.Context, asOf time.Time) (*report.Reports, error) {
	s.calls++
	s.asOf = asOf
	if s.panics {
		panic("boom")
	}
	if s.err != nil {
		return nil, s.err
	}
	return &report.Reports{AsOf: asOf}, nil
}

func (s *stubSource) SubjectRanking(_ context.Context, asOf time.Time, filter analytics.SubjectFilter) (analytics.SubjectRanking, error) {
	s.calls++
	s.asOf = asOf
	s.filter = filter
	if s.err != nil {
		return analytics.SubjectRanking{}, s.err
	}
	return analytics.SubjectRanking{UnknownSubject: true}, nil
}

func newTestBot(source ReportSource) (*Bot, *fakeSender) {
	out := &fakeSender{}
	b := newBot(source, []int64{userID}, zap.NewNop())
	b.out = out
	b.now = func() time.Time { return clock }
	return b, out
}

func demoSource(t *testing.T) ReportSource {
	db := stubs.NewMockDB()
	require.NoError(t, db.Initialize(context.Background()))
	return report.NewAssembler(db, zap.NewNop())
}

func command(from int64, text string) tgbotapi.Update {
	cmd, _, _ := strings.Cut(text, " ")
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: from},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(cmd)},
		},
	}}
}

func TestBot_RejectsUnknownUsers(t *testing.T) {
	source := &stubSource{}
	b, out := newTestBot(source)

	b.HandleWebhookUpdate(command(999, "/dashboard"))

	assert.Zero(t, source.calls)
	assert.Contains(t, out.last(t).Text, "not authorized")

	b.HandleWebhookUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "q1",
		From: &tgbotapi.User{ID: 999},
		Data: "subject:1@2024-06-15",
	}})
	assert.Zero(t, source.calls)
	assert.Empty(t, out.requests)
}

func TestBot_Start(t *testing.T) {
	b, out := newTestBot(&stubSource{})
	b.HandleWebhookUpdate(command(userID, "/start"))

	text := out.last(t).Text
	for _, cmd := range []string{"/dashboard", "/overdue", "/risk", "/popular", "/histogram", "/fines",
		"/trend", "/branches", "/coauthors", "/repeat", "/reservations"} {
		assert.Contains(t, text, cmd)
	}
}

func TestBot_UnknownCommandAndPlainText(t *testing.T) {
	b, out := newTestBot(&stubSource{})

	b.HandleWebhookUpdate(command(userID, "/nope"))
	assert.Contains(t, out.last(t).Text, "Unknown command")

	b.HandleWebhookUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: "hello",
	}})
	assert.Len(t, out.sent, 1)
}

func TestBot_AsOfArgument(t *testing.T) {
	t.Run("defaults to midnight today", func(t *testing.T) {
		source := &stubSource{}
		b, _ := newTestBot(source)
		b.HandleWebhookUpdate(command(userID, "/overdue"))
		assert.True(t, source.asOf.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("explicit date", func(t *testing.T) {
		source := &stubSource{}
		b, out := newTestBot(source)
		b.HandleWebhookUpdate(command(userID, "/fines 2024-06-15"))
		assert.True(t, source.asOf.Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)))
		assert.Contains(t, out.last(t).Text, "as of 2024-06-15")
	})

	t.Run("malformed date", func(t *testing.T) {
		source := &stubSource{}
		b, out := newTestBot(source)
		b.HandleWebhookUpdate(command(userID, "/trend June"))
		assert.Zero(t, source.calls)
		assert.Contains(t, out.last(t).Text, "YYYY-MM-DD")
	})
}

func TestBot_SourceErrors(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{"integrity", fmt.Errorf("failed to build ledger: %w", analytics.ErrDataIntegrity), "inconsistent"},
		{"as-of", analytics.ErrInvalidAsOf, "YYYY-MM-DD"},
		{"other", fmt.Errorf("connection refused"), "unavailable"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, out := newTestBot(&stubSource{err: tc.err})
			b.HandleWebhookUpdate(command(userID, "/dashboard"))
			assert.Contains(t, out.last(t).Text, tc.want)
		})
	}
}

func TestBot_RecoversFromPanics(t *testing.T) {
	b, out := newTestBot(&stubSource{panics: true})
	require.NotPanics(t, func() {
		b.HandleWebhookUpdate(command(userID, "/risk"))
	})
	assert.Contains(t, out.last(t).Text, "An error occurred")
}

func TestBot_ReportsFromDemoLedger(t *testing.T) {
	b, out := newTestBot(demoSource(t))

	commands := map[string]string{
		"/dashboard":    "Dashboard",
		"/overdue":      "Overdue loans",
		"/risk":         "Patron risk",
		"/histogram":    "Loan volume",
		"/fines":        "Fines by reason",
		"/trend":        "Monthly loans",
		"/branches":     "several branches",
		"/coauthors":    "Co-authors",
		"/repeat":       "Repeat borrowers",
		"/reservations": "never borrowed",
	}
	for cmd, title := range commands {
		b.HandleWebhookUpdate(command(userID, cmd))
		assert.Contains(t, out.last(t).Text, title, cmd)
		assert.Contains(t, out.last(t).Text, "as of 2025-01-01", cmd)
	}

	b.HandleWebhookUpdate(command(userID, "/dashboard"))
	assert.Contains(t, out.last(t).Text, "Patrons: 6")
}

func TestBot_PopularOffersSubjectKeyboard(t *testing.T) {
	b, out := newTestBot(demoSource(t))
	b.HandleWebhookUpdate(command(userID, "/popular 2024-12-01"))

	msg := out.last(t)
	assert.Contains(t, msg.Text, "Most loaned books")
	keyboard, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)

	// three subjects two per row, then the no-subject row
	require.Len(t, keyboard.InlineKeyboard, 3)
	assert.Len(t, keyboard.InlineKeyboard[0], 2)
	assert.Len(t, keyboard.InlineKeyboard[1], 1)
	last := keyboard.InlineKeyboard[2][0]
	require.NotNil(t, last.CallbackData)
	assert.Equal(t, "subject:none@2024-12-01", *last.CallbackData)
}

func TestBot_SubjectCallback(t *testing.T) {
	b, out := newTestBot(demoSource(t))

	b.HandleWebhookUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "q1",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    "subject:none@2024-12-01",
	}})

	assert.Len(t, out.requests, 1, "callback must be answered")
	text := out.last(t).Text
	assert.Contains(t, text, "Ranking by subject")
	assert.Contains(t, text, "No subject #1")
}

func TestBot_SubjectCallbackUnknownSubject(t *testing.T) {
	source := &stubSource{}
	b, out := newTestBot(source)

	b.handleSubjectCallback(context.Background(), chatID, "404@2024-06-15")

	id, ok := source.filter.SubjectID()
	require.True(t, ok)
	assert.Equal(t, int64(404), id)
	assert.Contains(t, out.last(t).Text, "no longer exists")
}

func TestParseSubjectCallback(t *testing.T) {
	filter, asOf, ok := parseSubjectCallback("3@2024-06-15")
	require.True(t, ok)
	id, only := filter.SubjectID()
	assert.True(t, only)
	assert.Equal(t, int64(3), id)
	assert.True(t, asOf.Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)))

	filter, _, ok = parseSubjectCallback("none@2024-06-15")
	require.True(t, ok)
	_, only = filter.SubjectID()
	assert.False(t, only)

	for _, bad := range []string{"", "3", "x@2024-06-15", "3@June"} {
		_, _, ok := parseSubjectCallback(bad)
		assert.False(t, ok, bad)
	}
}

func TestRenderCapsLongLists(t *testing.T) {
	books := make([]analytics.BookPopularity, maxRows+5)
	for i := range books {
		books[i] = analytics.BookPopularity{Title: fmt.Sprintf("Book %02d", i), TimesLoaned: 1}
	}
	text := renderTopBooks(clock, books)
	assert.Contains(t, text, "Book 19")
	assert.NotContains(t, text, "Book 20")
	assert.Contains(t, text, "…and 5 more")

	assert.Contains(t, renderTopBooks(clock, nil), "No books")
}

func TestSendMessageWithoutAPI(t *testing.T) {
	b := newBot(&stubSource{}, nil, zap.NewNop())
	require.NotPanics(t, func() {
		b.reply(chatID, "hello")
		b.handleCallbackQuery(&tgbotapi.CallbackQuery{ID: "q", From: &tgbotapi.User{ID: userID}})
	})
}
