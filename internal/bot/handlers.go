package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			b.reply(message.Chat.ID, "An error occurred while processing your request. Please try again.")
		}
	}()

	if !message.IsCommand() {
		return
	}

	ctx := context.Background()
	args := strings.TrimSpace(message.CommandArguments())
	chatID := message.Chat.ID

	switch message.Command() {
	case "start", "help":
		b.handleStart(chatID)
	case "dashboard":
		b.handleDashboard(ctx, chatID, args)
	case "overdue":
		b.handleOverdue(ctx, chatID, args)
	case "risk":
		b.handlePatronRisk(ctx, chatID, args)
	case "popular":
		b.handlePopular(ctx, chatID, args)
	case "histogram":
		b.handleHistogram(ctx, chatID, args)
	case "fines":
		b.handleFines(ctx, chatID, args)
	case "trend":
		b.handleTrend(ctx, chatID, args)
	case "branches":
		b.handleMultiBranch(ctx, chatID, args)
	case "coauthors":
		b.handleCoAuthors(ctx, chatID, args)
	case "repeat":
		b.handleRepeatBorrowers(ctx, chatID, args)
	case "reservations":
		b.handleReservations(ctx, chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /start to see available commands.")
	}
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	// Answer the callback query to remove loading state
	if b.out != nil {
		if _, err := b.out.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Warn("Failed to answer callback query", zap.Error(err))
		}
	}

	if query.Message == nil {
		return
	}

	ctx := context.Background()
	if data, ok := strings.CutPrefix(query.Data, subjectCallbackPrefix); ok {
		b.handleSubjectCallback(ctx, query.Message.Chat.ID, data)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// sendMessage sends msg, doing nothing when the bot has no API client
func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if b.out == nil {
		return
	}
	if _, err := b.out.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}
