package redeem

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"creditbot/bot/common"
	"creditbot/models"
	"creditbot/session"
)

var outcomeMessages = map[models.RedeemOutcome]string{
	models.RedeemAlreadyClaimed: "❌ <b>You have already claimed this code!</b>\nEach user can claim a code only once.",
	models.RedeemInvalid:        "❌ <b>Invalid Code!</b>\nPlease check the code and try again.",
	models.RedeemInactive:       "❌ <b>Code is Inactive!</b>\nThis code has been deactivated by admin.",
	models.RedeemLimitReached:   "❌ <b>Code Limit Reached!</b>\nThis code has been used by maximum users.",
	models.RedeemExpired:        "❌ <b>Code Expired!</b>\nThis code is no longer valid.",
	models.RedeemUserNotFound:   "❌ <b>Account not found!</b>\nSend /start first, then try again.",
}

const errorMessage = "❌ <b>Error processing code!</b>\nPlease try again later."

// HandleStart asks for a code and waits for the next text message
func (f *Feature) HandleStart(ctx context.Context, cb *tgbotapi.CallbackQuery) common.Answer {
	if err := f.sessions.Set(ctx, cb.From.ID, session.Session{State: session.StateAwaitingRedeemCode, UpdatedAt: time.Now()}); err != nil {
		log.WithError(err).WithField("user_id", cb.From.ID).Error("Failed to store redeem session")
		return common.Alert("❌ Error!")
	}

	text := "🎁 <b>Redeem Code</b>\n\nEnter your redeem code below:\n\n📌 <i>Note: Each code can be used only once per user</i>"
	if _, err := common.SendHTML(f.client, cb.From.ID, text, common.CancelButton()); err != nil {
		log.WithError(err).WithField("user_id", cb.From.ID).Error("Error sending redeem prompt")
	}
	return common.Answer{}
}

// HandleCode claims the code the user typed
func (f *Feature) HandleCode(ctx context.Context, msg *tgbotapi.Message, _ session.Session) {
	userID := msg.From.ID
	code := strings.ToUpper(strings.TrimSpace(msg.Text))

	result := f.ledger.RedeemCode(ctx, userID, code)
	if !result.Succeeded() {
		text, ok := outcomeMessages[result.Outcome]
		if !ok {
			text = errorMessage
		}
		common.Respond(f.client, msg, text, f.menu)
		return
	}

	balance := "N/A"
	if user := f.ledger.GetUser(ctx, userID); user != nil {
		balance = fmt.Sprintf("%d", user.Credits)
	}

	text := fmt.Sprintf("✅ <b>Code Redeemed Successfully!</b>\n➕ <b>%d Credits</b> added to your account.\n\n💰 <b>New Balance:</b> %s",
		result.Amount, balance)
	common.Respond(f.client, msg, text, f.menu)
}
