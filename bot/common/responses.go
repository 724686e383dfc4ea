package common

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Client is the subset of the Telegram Bot API the handlers use.
// *tgbotapi.BotAPI satisfies it.
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// SendHTML sends an HTML message to a chat
func SendHTML(c Client, chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	return c.Send(msg)
}

// Respond sends an HTML message to the chat the message came from
func Respond(c Client, to *tgbotapi.Message, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if _, err := SendHTML(c, to.Chat.ID, text, markup); err != nil {
		log.WithError(err).WithField("chat_id", to.Chat.ID).Error("Error sending message")
	}
}

// Reply sends an HTML message quoting the original
func Reply(c Client, to *tgbotapi.Message, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(to.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyToMessageID = to.MessageID
	sent, err := c.Send(msg)
	if err != nil {
		log.WithError(err).WithField("chat_id", to.Chat.ID).Error("Error sending reply")
	}
	return sent, err
}

// Notify sends a direct message and ignores failures, which are expected when the
// user never started the bot or blocked it
func Notify(c Client, userID int64, text string) {
	if _, err := SendHTML(c, userID, text, nil); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Could not notify user")
	}
}

// EditHTML replaces the text and keyboard of a message the bot sent
func EditHTML(c Client, msg *tgbotapi.Message, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	var edit tgbotapi.EditMessageTextConfig
	if markup != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(msg.Chat.ID, msg.MessageID, text, *markup)
	} else {
		edit = tgbotapi.NewEditMessageText(msg.Chat.ID, msg.MessageID, text)
	}
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	if _, err := c.Request(edit); err != nil {
		log.WithError(err).WithField("chat_id", msg.Chat.ID).Error("Error editing message")
	}
}

// Delete removes a message
func Delete(c Client, chatID int64, messageID int) {
	if _, err := c.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Debug("Error deleting message")
	}
}

// AnswerCallback acknowledges a button press, optionally with a toast or alert
func AnswerCallback(c Client, cb *tgbotapi.CallbackQuery, text string, alert bool) {
	answer := tgbotapi.NewCallback(cb.ID, text)
	if alert {
		answer = tgbotapi.NewCallbackWithAlert(cb.ID, text)
	}
	if _, err := c.Request(answer); err != nil {
		log.WithError(err).WithField("callback_id", cb.ID).Debug("Error answering callback")
	}
}

// Answer is how a button press gets acknowledged
type Answer struct {
	Text  string
	Alert bool
}

// Alert shows text in a modal the user has to dismiss
func Alert(text string) Answer {
	return Answer{Text: text, Alert: true}
}

// Toast shows text briefly at the top of the chat
func Toast(text string) Answer {
	return Answer{Text: text}
}

// ShowOnCallback replaces the message carrying the pressed button, or sends a new
// message when the button was attached to an inline result
func ShowOnCallback(c Client, cb *tgbotapi.CallbackQuery, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if cb.Message != nil {
		EditHTML(c, cb.Message, text, markup)
		return
	}
	if _, err := SendHTML(c, cb.From.ID, text, markup); err != nil {
		log.WithError(err).WithField("user_id", cb.From.ID).Error("Error sending message")
	}
}

// Membership gates features behind joining the configured channels
type Membership interface {
	IsMember(ctx context.Context, userID int64) bool
	Links() []string
}
