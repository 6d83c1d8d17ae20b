package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"unilib/internal/analytics"
	"unilib/internal/report"
)

// Callback data is "subject:<id|none>@<YYYY-MM-DD>"
const (
	subjectCallbackPrefix = "subject:"
	noSubject             = "none"
)

func subjectCallbackData(subject string, asOf time.Time) string {
	return subjectCallbackPrefix + subject + "@" + asOf.Format(time.DateOnly)
}

// subjectKeyboard offers one button per subject, two per row, and a final
// button for books filed under no subject
func subjectKeyboard(r *report.Reports) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(r.Subjects) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, s := range r.Subjects {
		id := strconv.FormatInt(s.ID, 10)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(s.Name, subjectCallbackData(id, r.AsOf)))
		if len(row) == 2 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📂 No subject", subjectCallbackData(noSubject, r.AsOf)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// parseSubjectCallback splits "<id|none>@<date>" into a filter and instant
func parseSubjectCallback(data string) (analytics.SubjectFilter, time.Time, bool) {
	subject, date, ok := strings.Cut(data, "@")
	if !ok {
		return analytics.SubjectFilter{}, time.Time{}, false
	}
	asOf, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return analytics.SubjectFilter{}, time.Time{}, false
	}
	if subject == noSubject {
		return analytics.WithoutSubject(), asOf, true
	}
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return analytics.SubjectFilter{}, time.Time{}, false
	}
	return analytics.OnlySubject(id), asOf, true
}

// handleSubjectCallback replies with the ranking for the chosen subject
func (b *Bot) handleSubjectCallback(ctx context.Context, chatID int64, data string) {
	filter, asOf, ok := parseSubjectCallback(data)
	if !ok {
		b.logger.Warn("Malformed subject callback", zap.String("callback_data", data))
		return
	}

	ranking, err := b.source.SubjectRanking(ctx, asOf, filter)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if ranking.UnknownSubject {
		b.reply(chatID, "That subject no longer exists.")
		return
	}
	b.reply(chatID, renderSubjectRanking(asOf, ranking))
}
