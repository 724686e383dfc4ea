package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"creditbot/bot/common"
)

func (b *Bot) handleCancelCommand(ctx context.Context, msg *tgbotapi.Message) {
	sess, err := b.sessions.Get(ctx, msg.From.ID)
	if err != nil {
		log.WithError(err).WithField("user_id", msg.From.ID).Error("Failed to load session")
	}
	if err != nil || sess.IsIdle() {
		common.Respond(b.client, msg, "❌ No active operation to cancel.", b.menu)
		return
	}

	b.clearSession(ctx, msg.From.ID)
	common.Respond(b.client, msg, "✅ Operation cancelled.", b.menu)
}

func (b *Bot) handleCancelCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) common.Answer {
	b.clearSession(ctx, cb.From.ID)

	if cb.Message != nil {
		common.Delete(b.client, cb.Message.Chat.ID, cb.Message.MessageID)
	}
	if _, err := common.SendHTML(b.client, cb.From.ID, "❌ <b>Operation Cancelled.</b>", b.menu); err != nil {
		log.WithError(err).WithField("user_id", cb.From.ID).Error("Error sending cancel confirmation")
	}
	return common.Answer{}
}

// handleIdleText answers free text sent outside any flow
func (b *Bot) handleIdleText(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() {
		return
	}
	common.Respond(b.client, msg, "Please use the menu buttons to select an option.", b.menu)
}
