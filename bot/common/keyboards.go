package common

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data shared between keyboards and the router
const (
	CallbackProfile    = "profile"
	CallbackReferEarn  = "refer_earn"
	CallbackBackHome   = "back_home"
	CallbackRedeem     = "redeem"
	CallbackCancel     = "cancel"
	CallbackCheckJoin  = "check_join"
	CallbackLookupPref = "api_"

	CallbackQuickStats  = "quick_stats"
	CallbackRecentUsers = "recent_users"
	CallbackActiveCodes = "active_codes"
	CallbackTopRef      = "top_ref"
	CallbackClosePanel  = "close_panel"
)

var categoryLabels = map[string]string{
	"num":       "📱 Number",
	"ifsc":      "🏦 IFSC",
	"email":     "📧 Email",
	"gst":       "📋 GST",
	"vehicle":   "🚗 Vehicle",
	"pincode":   "📮 Pincode",
	"instagram": "📷 Instagram",
	"github":    "🐱 GitHub",
	"pakistan":  "🇵🇰 Pakistan",
	"ip":        "🌐 IP Lookup",
	"ff_info":   "🔥 FF Info",
	"ff_ban":    "🚫 FF Ban",
}

var categoryPrompts = map[string]string{
	"num":       "📱 Enter Mobile Number (10 digits)",
	"ifsc":      "🏦 Enter IFSC Code (11 characters)",
	"email":     "📧 Enter Email Address",
	"gst":       "📋 Enter GST Number (15 characters)",
	"vehicle":   "🚗 Enter Vehicle RC Number",
	"pincode":   "📮 Enter Pincode (6 digits)",
	"instagram": "📷 Enter Instagram Username (without @)",
	"github":    "🐱 Enter GitHub Username",
	"pakistan":  "🇵🇰 Enter Pakistan Mobile Number (with country code)",
	"ip":        "🌐 Enter IP Address",
	"ff_info":   "🔥 Enter Free Fire UID",
	"ff_ban":    "🚫 Enter Free Fire UID for Ban Check",
}

// CategoryLabel returns the button label of a lookup category
func CategoryLabel(category string) string {
	if label, ok := categoryLabels[category]; ok {
		return label
	}
	return "🔍 " + strings.ToUpper(category)
}

// CategoryPrompt returns the input prompt of a lookup category
func CategoryPrompt(category string) string {
	if prompt, ok := categoryPrompts[category]; ok {
		return prompt
	}
	return fmt.Sprintf("🔍 Enter input for %s lookup", strings.ToUpper(category))
}

// MainMenu lists the lookup categories two per row, followed by the account buttons
func MainMenu(categories []string) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(categories); i += 2 {
		row := tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(CategoryLabel(categories[i]), CallbackLookupPref+categories[i]),
		)
		if i+1 < len(categories) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(CategoryLabel(categories[i+1]), CallbackLookupPref+categories[i+1]))
		}
		rows = append(rows, row)
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎁 Redeem", CallbackRedeem),
			tgbotapi.NewInlineKeyboardButtonData("🔗 Refer & earn", CallbackReferEarn),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👤 Profile", CallbackProfile),
		),
	)
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// BackHome is a single button returning to the main menu
func BackHome() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔙 Back", CallbackBackHome)),
	)
	return &markup
}

// CancelButton aborts the pending conversation step
func CancelButton() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", CallbackCancel)),
	)
	return &markup
}

// JoinKeyboard links each required channel and offers a verify button
func JoinKeyboard(links []string) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, link := range links {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(fmt.Sprintf("📢 Join Channel %d", i+1), link),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Verify Join", CallbackCheckJoin),
	))
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// AdminPanel holds the quick actions shown under /admin
func AdminPanel() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Quick Stats", CallbackQuickStats),
			tgbotapi.NewInlineKeyboardButtonData("👥 Recent Users", CallbackRecentUsers),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎫 Active Codes", CallbackActiveCodes),
			tgbotapi.NewInlineKeyboardButtonData("🏆 Top Referrers", CallbackTopRef),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Close", CallbackClosePanel),
		),
	)
	return &markup
}
