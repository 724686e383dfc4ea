package lookups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"creditbot/bot/common"
	"creditbot/lookup"
	"creditbot/session"
)

const (
	logChannelPreview = 1500
	maxInputLength    = 200
)

// HandleSelect starts a lookup of the category named in the api_<category> button
func (f *Feature) HandleSelect(ctx context.Context, cb *tgbotapi.CallbackQuery) common.Answer {
	category := strings.TrimPrefix(cb.Data, common.CallbackLookupPref)

	if !f.membership.IsMember(ctx, cb.From.ID) {
		return common.Alert("❌ Join channels first!")
	}
	if !f.runner.Available(category) {
		return common.Alert("❌ This service is temporarily unavailable")
	}

	sess := session.Session{State: session.StateAwaitingLookupInput, Category: category, UpdatedAt: f.now()}
	if err := f.sessions.Set(ctx, cb.From.ID, sess); err != nil {
		log.WithError(err).WithField("user_id", cb.From.ID).Error("Failed to store lookup session")
		return common.Alert("❌ Error!")
	}

	text := fmt.Sprintf("<b>%s</b>\n\n<i>Type /cancel to cancel</i>", common.CategoryPrompt(category))
	if _, err := common.SendHTML(f.client, cb.From.ID, text, common.CancelButton()); err != nil {
		log.WithError(err).WithField("user_id", cb.From.ID).Error("Error sending lookup prompt")
	}
	return common.Answer{}
}

// HandleInput runs the lookup for the category stored in the session
func (f *Feature) HandleInput(ctx context.Context, msg *tgbotapi.Message, sess session.Session) {
	input := strings.TrimSpace(msg.Text)
	if sess.Category == "" || input == "" {
		return
	}
	if utf8.RuneCountInString(input) > maxInputLength {
		common.Respond(f.client, msg, fmt.Sprintf("❌ <b>Input too long!</b> Maximum %d characters.", maxInputLength), f.menu)
		return
	}

	status, statusErr := common.Reply(f.client, msg, "🔄 <b>Fetching Data...</b>")
	showStatus := func(text string) {
		if statusErr != nil {
			common.Respond(f.client, msg, text, nil)
			return
		}
		common.EditHTML(f.client, &status, text, nil)
	}

	result, err := f.runner.Run(ctx, msg.From.ID, sess.Category, input)
	if err != nil {
		switch {
		case errors.Is(err, lookup.ErrBanned):
			if statusErr == nil {
				common.Delete(f.client, status.Chat.ID, status.MessageID)
			}
		case errors.Is(err, lookup.ErrInsufficientCredits):
			showStatus("❌ <b>Insufficient Credits!</b>")
		case errors.Is(err, lookup.ErrUnavailable):
			showStatus("❌ <b>This service is currently unavailable.</b>")
		default:
			log.WithError(err).WithField("user_id", msg.From.ID).Error("Lookup failed")
			showStatus("❌ <b>Error checking your account!</b>")
		}
		return
	}

	if statusErr == nil {
		common.Delete(f.client, status.Chat.ID, status.MessageID)
	}
	_, _ = common.Reply(f.client, msg, f.FormatResult(result))

	f.mirror(msg.From, result)
}

// FormatResult renders a lookup for the user who asked for it
func (f *Feature) FormatResult(result *lookup.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 <b>%s Lookup Results</b>\n\n", strings.ToUpper(common.Escape(result.Category)))
	fmt.Fprintf(&b, "📊 <b>Input:</b> <code>%s</code>\n", common.Escape(result.Input))
	fmt.Fprintf(&b, "📅 <b>Date:</b> %s\n\n", f.now().Format(common.DateTimeFormat))
	if result.Truncated {
		b.WriteString("⚠️ <i>Response truncated for display</i>\n\n")
	}
	fmt.Fprintf(&b, "<pre>%s</pre>\n\n", common.Escape(result.Text))
	b.WriteString("📝 <b>Note:</b> Data is for informational purposes only\n")
	fmt.Fprintf(&b, "👨‍💻 <b>Developer:</b> %s\n", f.meta.Developer)
	fmt.Fprintf(&b, "⚡ <b>Powered by:</b> %s", f.meta.PoweredBy)
	return b.String()
}

// FormatLogEntry renders a lookup for the category's log channel
func (f *Feature) FormatLogEntry(from *tgbotapi.User, result *lookup.Result) string {
	username := "N/A"
	if from.UserName != "" {
		username = "@" + common.Escape(from.UserName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Lookup Log - %s</b>\n\n", strings.ToUpper(common.Escape(result.Category)))
	fmt.Fprintf(&b, "👤 User: %d (%s)\n", from.ID, username)
	fmt.Fprintf(&b, "🔎 Type: %s\n", common.Escape(result.Category))
	fmt.Fprintf(&b, "⌨️ Input: <code>%s</code>\n", common.Escape(result.Input))
	fmt.Fprintf(&b, "📅 Date: %s\n", f.now().Format(common.DateTimeFormat))
	fmt.Fprintf(&b, "📊 Size: %d characters\n\n", utf8.RuneCountInString(result.Payload))
	fmt.Fprintf(&b, "📄 Result:\n<pre>%s</pre>", common.Escape(common.TruncateRunes(result.Text, logChannelPreview)))
	if utf8.RuneCountInString(result.Text) > logChannelPreview {
		b.WriteString("\n... [truncated for log channel]")
	}
	return b.String()
}

func (f *Feature) mirror(from *tgbotapi.User, result *lookup.Result) {
	chatID, ok := f.logChannels[result.Category]
	if !ok || chatID == 0 {
		return
	}
	if _, err := common.SendHTML(f.client, chatID, f.FormatLogEntry(from, result), nil); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"category": result.Category,
			"chat_id":  chatID,
		}).Error("Failed to mirror lookup to log channel")
	}
}
