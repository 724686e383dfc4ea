package credits

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"creditbot/bot/common"
	"creditbot/events"
	"creditbot/session"
)

const bulkPreview = 10

// ParseTargetAmount reads "user_id amount" with a positive amount
func ParseTargetAmount(args string) (int64, int64, bool) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, 0, false
	}
	userID, err := common.ParseUserID(fields[0])
	if err != nil {
		return 0, 0, false
	}
	amount, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || amount <= 0 {
		return 0, 0, false
	}
	return userID, amount, true
}

// ParseBulkGift reads "amount id1 id2 ...". Ids may be separated by spaces or
// commas; unparseable ids are skipped.
func ParseBulkGift(input string) (int64, []int64, bool) {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\n' || r == '\t'
	})
	if len(fields) < 2 {
		return 0, nil, false
	}
	amount, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || amount <= 0 {
		return 0, nil, false
	}

	seen := make(map[int64]bool)
	var ids []int64
	for _, raw := range fields[1:] {
		id, err := common.ParseUserID(raw)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return 0, nil, false
	}
	return amount, ids, true
}

// HandleGift adds credits to a user
func (f *Feature) HandleGift(ctx context.Context, msg *tgbotapi.Message) {
	userID, amount, ok := ParseTargetAmount(msg.CommandArguments())
	if !ok {
		common.Respond(f.client, msg, "❌ <b>Usage:</b> <code>/gift user_id amount</code>", nil)
		return
	}

	if !f.ledger.AdjustBalance(ctx, userID, amount, events.ReasonAdminGift) {
		common.Respond(f.client, msg, fmt.Sprintf("❌ User <code>%d</code> not found.", userID), nil)
		return
	}

	common.Respond(f.client, msg, fmt.Sprintf("✅ Sent <b>%d credits</b> to user <code>%d</code>.", amount, userID), nil)
	common.Notify(f.client, userID, fmt.Sprintf("🎁 <b>Admin Gift!</b>\n\nYou received <b>%d credits</b>.", amount))
}

// HandleRemoveCredits subtracts credits from a user
func (f *Feature) HandleRemoveCredits(ctx context.Context, msg *tgbotapi.Message) {
	userID, amount, ok := ParseTargetAmount(msg.CommandArguments())
	if !ok {
		common.Respond(f.client, msg, "❌ <b>Usage:</b> <code>/removecredits user_id amount</code>", nil)
		return
	}

	if !f.ledger.AdjustBalance(ctx, userID, -amount, events.ReasonAdminRemoval) {
		common.Respond(f.client, msg, fmt.Sprintf("❌ User <code>%d</code> not found.", userID), nil)
		return
	}

	common.Respond(f.client, msg, fmt.Sprintf("✅ Removed <b>%d credits</b> from user <code>%d</code>.", amount, userID), nil)
	common.Notify(f.client, userID, fmt.Sprintf("⚠️ <b>%d credits</b> were removed from your account by an admin.", amount))
}

// HandleBulkGift gifts many users at once, inline or through the conversation state
func (f *Feature) HandleBulkGift(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	if args != "" {
		f.bulkGift(ctx, msg, args)
		return
	}

	if err := f.sessions.Set(ctx, msg.From.ID, session.Session{State: session.StateAwaitingBulkGift, UpdatedAt: time.Now()}); err != nil {
		log.WithError(err).WithField("user_id", msg.From.ID).Error("Failed to store bulk gift session")
		common.Respond(f.client, msg, "❌ Error!", nil)
		return
	}
	common.Respond(f.client, msg,
		"🎁 <b>Bulk Gift</b>\n\nSend: <code>amount user_id1 user_id2 ...</code>\nExample: <code>5 12345 67890</code>\n\n<i>Type /cancel to cancel</i>",
		common.CancelButton())
}

// HandleBulkGiftInput completes /bulkgift from the conversation state
func (f *Feature) HandleBulkGiftInput(ctx context.Context, msg *tgbotapi.Message, _ session.Session) {
	f.bulkGift(ctx, msg, msg.Text)
}

func (f *Feature) bulkGift(ctx context.Context, msg *tgbotapi.Message, input string) {
	amount, ids, ok := ParseBulkGift(input)
	if !ok {
		common.Respond(f.client, msg, "❌ <b>Invalid format!</b>\nUse: <code>amount user_id1 user_id2 ...</code>", nil)
		return
	}

	applied, reason := f.ledger.BulkAdjust(ctx, ids, amount)
	if !applied {
		common.Respond(f.client, msg, "❌ "+common.Escape(reason), nil)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ <b>Bulk Gift Complete!</b>\n\n💰 <b>Amount:</b> %d credits each\n👥 <b>Users:</b> %d\n\n", amount, len(ids))
	for i, id := range ids {
		if i == bulkPreview {
			fmt.Fprintf(&b, "... and %d more\n", len(ids)-bulkPreview)
			break
		}
		fmt.Fprintf(&b, "• <code>%d</code>\n", id)
	}
	common.Respond(f.client, msg, b.String(), nil)

	for _, id := range ids {
		common.Notify(f.client, id, fmt.Sprintf("🎁 <b>Admin Gift!</b>\n\nYou received <b>%d credits</b>.", amount))
	}
}

// HandleBan bans a user
func (f *Feature) HandleBan(ctx context.Context, msg *tgbotapi.Message) {
	f.setBan(ctx, msg, true)
}

// HandleUnban lifts a ban
func (f *Feature) HandleUnban(ctx context.Context, msg *tgbotapi.Message) {
	f.setBan(ctx, msg, false)
}

func (f *Feature) setBan(ctx context.Context, msg *tgbotapi.Message, banned bool) {
	command := "unban"
	if banned {
		command = "ban"
	}

	userID, err := common.ParseUserID(msg.CommandArguments())
	if err != nil {
		common.Respond(f.client, msg, fmt.Sprintf("❌ <b>Usage:</b> <code>/%s user_id</code>", command), nil)
		return
	}
	if banned && f.access.Level(ctx, userID).IsPrivileged() {
		common.Respond(f.client, msg, "❌ Admins cannot be banned.", nil)
		return
	}

	if !f.ledger.SetBan(ctx, userID, banned) {
		common.Respond(f.client, msg, fmt.Sprintf("❌ User <code>%d</code> not found.", userID), nil)
		return
	}

	if banned {
		common.Respond(f.client, msg, fmt.Sprintf("🚫 User <code>%d</code> banned.", userID), nil)
		return
	}
	common.Respond(f.client, msg, fmt.Sprintf("✅ User <code>%d</code> unbanned.", userID), nil)
	common.Notify(f.client, userID, "✅ <b>You have been unbanned.</b> Send /start to continue.")
}

// HandleDeleteUser removes a user with their redemptions and lookups
func (f *Feature) HandleDeleteUser(ctx context.Context, msg *tgbotapi.Message) {
	userID, err := common.ParseUserID(msg.CommandArguments())
	if err != nil {
		common.Respond(f.client, msg, "❌ <b>Usage:</b> <code>/deleteuser user_id</code>", nil)
		return
	}
	if f.access.Level(ctx, userID).IsPrivileged() {
		common.Respond(f.client, msg, "❌ Admins cannot be deleted.", nil)
		return
	}

	if !f.ledger.DeleteUser(ctx, userID) {
		common.Respond(f.client, msg, fmt.Sprintf("❌ User <code>%d</code> not found.", userID), nil)
		return
	}
	common.Respond(f.client, msg, fmt.Sprintf("🗑 User <code>%d</code> deleted.", userID), nil)
}

// HandleResetCredits sets a user's balance to zero
func (f *Feature) HandleResetCredits(ctx context.Context, msg *tgbotapi.Message) {
	userID, err := common.ParseUserID(msg.CommandArguments())
	if err != nil {
		common.Respond(f.client, msg, "❌ <b>Usage:</b> <code>/resetcredits user_id</code>", nil)
		return
	}

	if !f.ledger.ResetCredits(ctx, userID) {
		common.Respond(f.client, msg, fmt.Sprintf("❌ User <code>%d</code> not found.", userID), nil)
		return
	}
	common.Respond(f.client, msg, fmt.Sprintf("♻️ Credits of user <code>%d</code> reset to 0.", userID), nil)
}
