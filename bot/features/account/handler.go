package account

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"creditbot/bot/common"
	"creditbot/service"
)

const brandName = "OSINT LOOKUP"

// HandleStart registers new users, paying the referrer named in a ref_<id> payload
func (f *Feature) HandleStart(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	existing := f.ledger.GetUser(ctx, userID)
	if existing != nil && existing.IsBanned {
		common.Respond(f.client, msg, "🚫 <b>You are BANNED from using this bot.</b>", nil)
		return
	}

	if existing == nil {
		referrerID := ParseReferral(msg.CommandArguments(), userID)
		if f.ledger.RegisterUser(ctx, userID, msg.From.UserName, referrerID) {
			log.WithFields(log.Fields{
				"user_id":     userID,
				"referrer_id": referrerID,
			}).Info("New user started the bot")
		}
	}

	if !f.membership.IsMember(ctx, userID) {
		text := fmt.Sprintf("👋 <b>Welcome to %s</b>\n\n⚠️ <b>Join the channels below to use the bot:</b>", brandName)
		common.Respond(f.client, msg, text, common.JoinKeyboard(f.membership.Links()))
		return
	}

	text := fmt.Sprintf("🔓 <b>Access Granted!</b>\n\nWelcome <b>%s</b>,\n\n<b>%s</b> - Premium Lookup Services\nSelect a service from menu below:",
		common.Escape(msg.From.FirstName), brandName)
	common.Respond(f.client, msg, text, f.menu)
	f.ledger.TouchActivity(ctx, userID)
}

// HandleBalance shows the caller's credits
func (f *Feature) HandleBalance(ctx context.Context, msg *tgbotapi.Message) {
	user := f.ledger.GetUser(ctx, msg.From.ID)
	if user == nil {
		common.Respond(f.client, msg, "❌ <b>Account not found!</b>\nSend /start first.", nil)
		return
	}

	privileged := f.access.Level(ctx, msg.From.ID).IsPrivileged()
	common.Respond(f.client, msg, "💰 <b>Credits:</b> "+common.FormatCredits(user.Credits, privileged), f.menu)
}

// HandleCheckJoin re-runs the membership check after the user joined the channels
func (f *Feature) HandleCheckJoin(ctx context.Context, cb *tgbotapi.CallbackQuery) common.Answer {
	if !f.membership.IsMember(ctx, cb.From.ID) {
		return common.Alert("❌ You still haven't joined all channels!")
	}

	if cb.Message != nil {
		common.Delete(f.client, cb.Message.Chat.ID, cb.Message.MessageID)
	}
	if _, err := common.SendHTML(f.client, cb.From.ID, "✅ <b>Verified!</b>", f.menu); err != nil {
		log.WithError(err).WithField("user_id", cb.From.ID).Error("Error sending verification message")
	}
	return common.Answer{}
}

// HandleProfile shows balance, referral and redemption counters
func (f *Feature) HandleProfile(ctx context.Context, cb *tgbotapi.CallbackQuery) common.Answer {
	stats := f.ledger.UserStats(ctx, cb.From.ID)
	if stats == nil || stats.User == nil {
		return common.Alert("❌ User not found!")
	}
	user := stats.User
	privileged := f.access.Level(ctx, cb.From.ID).IsPrivileged()

	var b strings.Builder
	b.WriteString("👤 <b>User Profile</b>\n\n")
	fmt.Fprintf(&b, "🆔 <b>ID:</b> <code>%d</code>\n", user.UserID)
	fmt.Fprintf(&b, "👤 <b>Username:</b> %s\n", common.Handle(user.Username))
	fmt.Fprintf(&b, "💰 <b>Credits:</b> %s\n", common.FormatCredits(user.Credits, privileged))
	fmt.Fprintf(&b, "📊 <b>Total Earned:</b> %d\n", user.TotalEarned)
	fmt.Fprintf(&b, "👥 <b>Referrals:</b> %d\n", stats.Referrals)
	fmt.Fprintf(&b, "🎫 <b>Codes Claimed:</b> %d\n", stats.CodesClaimed)
	fmt.Fprintf(&b, "📅 <b>Joined:</b> %s\n", user.JoinedAt.Format(common.DateFormat))
	fmt.Fprintf(&b, "🔗 <b>Referral Link:</b>\n<code>%s</code>", f.ReferralLink(user.UserID))

	common.ShowOnCallback(f.client, cb, b.String(), f.menu)
	return common.Answer{}
}

// HandleReferEarn explains the referral program
func (f *Feature) HandleReferEarn(ctx context.Context, cb *tgbotapi.CallbackQuery) common.Answer {
	text := fmt.Sprintf(
		"🔗 <b>Refer &amp; Earn Program</b>\n\n"+
			"Invite your friends and earn free credits!\n"+
			"Per Referral: <b>+%d Credits</b>\n\n"+
			"👇 <b>Your Link:</b>\n"+
			"<code>%s</code>\n\n"+
			"📊 <b>How it works:</b>\n"+
			"1. Share your link\n"+
			"2. Someone joins through it\n"+
			"3. You receive <b>%d credits</b>",
		service.ReferralBonus, f.ReferralLink(cb.From.ID), service.ReferralBonus)

	common.ShowOnCallback(f.client, cb, text, common.BackHome())
	return common.Answer{}
}

// HandleBackHome returns to the main menu
func (f *Feature) HandleBackHome(ctx context.Context, cb *tgbotapi.CallbackQuery) common.Answer {
	common.ShowOnCallback(f.client, cb, "🔓 <b>Main Menu</b>", f.menu)
	return common.Answer{}
}

// ReferralLink is the deep link that credits userID when someone starts the bot through it
func (f *Feature) ReferralLink(userID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=ref_%d", f.botUsername, userID)
}

// ParseReferral extracts the referrer from a ref_<id> start payload. Self-referrals
// and malformed payloads yield nil.
func ParseReferral(payload string, userID int64) *int64 {
	raw, ok := strings.CutPrefix(strings.TrimSpace(payload), "ref_")
	if !ok {
		return nil
	}
	referrerID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || referrerID == userID || referrerID <= 0 {
		return nil
	}
	return &referrerID
}
