package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"unilib/internal/analytics"
	"unilib/internal/report"
)

// ReportSource builds the reports the bot replies with
type ReportSource interface {
	Build(ctx context.Context, asOf time.Time) (*report.Reports, error)
	SubjectRanking(ctx context.Context, asOf time.Time, filter analytics.SubjectFilter) (analytics.SubjectRanking, error)
}

// sender is the part of the Telegram API used to reply
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot represents the Telegram bot wrapper
type Bot struct {
	api          *tgbotapi.BotAPI
	out          sender
	source       ReportSource
	allowedUsers map[int64]bool
	logger       *zap.Logger
	now          func() time.Time
}
