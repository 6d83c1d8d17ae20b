package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"unilib/internal/analytics"
	"unilib/internal/report"
)

const startText = `Welcome to UniLib! 📚

Every command takes an optional date (YYYY-MM-DD), defaulting to today:
/dashboard - Headline counts, top risk and top books
/overdue - Overdue loans by risk score
/risk - Patron risk classes
/popular - Most loaned books, by subject
/histogram - Books by loan volume
/fines - Fines by reason
/trend - Monthly loans by patron type
/branches - Patrons borrowing from several branches
/coauthors - Authors sharing books
/repeat - Patrons borrowing a book again
/reservations - Patrons reserving without borrowing`

// handleStart shows welcome message and available commands
func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, startText)
}

// asOf reads the optional date argument as midnight UTC; none means today
func (b *Bot) asOf(args string) (time.Time, error) {
	if args == "" {
		now := b.now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	asOf, err := time.Parse(time.DateOnly, args)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", analytics.ErrInvalidAsOf, args)
	}
	return asOf, nil
}

// build assembles the reports for args, replying with the failure if any
func (b *Bot) build(ctx context.Context, chatID int64, args string) (*report.Reports, bool) {
	asOf, err := b.asOf(args)
	if err != nil {
		b.replyError(chatID, err)
		return nil, false
	}
	reports, err := b.source.Build(ctx, asOf)
	if err != nil {
		b.replyError(chatID, err)
		return nil, false
	}
	return reports, true
}

func (b *Bot) replyError(chatID int64, err error) {
	switch {
	case errors.Is(err, analytics.ErrInvalidAsOf):
		b.reply(chatID, "Please give the date as YYYY-MM-DD, for example /dashboard 2024-06-15")
	case errors.Is(err, analytics.ErrDataIntegrity):
		b.logger.Error("Ledger failed integrity checks", zap.Error(err))
		b.reply(chatID, fmt.Sprintf("The ledger is inconsistent: %v", err))
	default:
		b.logger.Error("Failed to build reports", zap.Error(err))
		b.reply(chatID, "Reports are unavailable right now. Please try again later.")
	}
}

func (b *Bot) handleDashboard(ctx context.Context, chatID int64, args string) {
	if r, ok := b.build(ctx, chatID, args); ok {
		b.reply(chatID, renderDashboard(r))
	}
}

func (b *Bot) handleOverdue(ctx context.Context, chatID int64, args string) {
	if r, ok := b.build(ctx, chatID, args); ok {
		b.reply(chatID, renderOverdue(r.AsOf, r.OverdueRisk))
	}
}

func (b *Bot) handlePatronRisk(ctx context.Context, chatID int64, args string) {
	if r, ok := b.build(ctx, chatID, args); ok {
		b.reply(chatID, renderPatronRisk(r.AsOf, r.PatronRisk))
	}
}

// handlePopular lists the top books and offers a keyboard to rank by subject
func (b *Bot) handlePopular(ctx context.Context, chatID int64, args string) {
	r, ok := b.build(ctx, chatID, args)
	if !ok {
		return
	}
	msg := tgbotapi.NewMessage(chatID, renderTopBooks(r.AsOf, r.Popularity.Top))
	if keyboard, ok := subjectKeyboard(r); ok {
		msg.ReplyMarkup = keyboard
	}
	b.sendMessage(msg)
}

func (b *Bot) handleHistogram(ctx context.Context, chatID int64, args string) {
	if r, ok := b.build(ctx, chatID, args); ok {
		b.reply(chatID, renderHistogram(r.AsOf, r.Histogram))
	}
}

func (b *Bot) handleFines(ctx context.Context, chatID int64, args string) {
	if r, ok := b.build(ctx, chatID, args); ok {
		b.reply(chatID, renderFines(r.AsOf, r.Fines))
	}
}

func (b *Bot) handleTrend(ctx context.Context, chatID int64, args string) {
	if r, ok := b.build(ctx, chatID, args); ok {
		b.reply(chatID, renderTrend(r.AsOf, r.Trend))
	}
}

func (b *Bot) handleMultiBranch(ctx context.Context, chatID int64, args string) {
	if r, ok := b.build(ctx, chatID, args); ok {
		b.reply(chatID, renderMultiBranch(r.AsOf, r.MultiBranch))
	}
}

func (b *Bot) handleCoAuthors(ctx context.Context, chatID int64, args string) {
	if r, ok := b.build(ctx, chatID, args); ok {
		b.reply(chatID, renderCoAuthors(r.AsOf, r.CoAuthors))
	}
}

func (b *Bot) handleRepeatBorrowers(ctx context.Context, chatID int64, args string) {
	if r, ok := b.build(ctx, chatID, args); ok {
		b.reply(chatID, renderRepeatBorrowers(r.AsOf, r.RepeatBorrowers))
	}
}

func (b *Bot) handleReservations(ctx context.Context, chatID int64, args string) {
	if r, ok := b.build(ctx, chatID, args); ok {
		b.reply(chatID, renderReservations(r.AsOf, r.ReservationsWithoutLoan))
	}
}
