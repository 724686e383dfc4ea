package codes

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"creditbot/bot/common"
	"creditbot/models"
	"creditbot/service"
	"creditbot/session"
)

const (
	listChunkSize   = 4000
	filteredPreview = 10
	panelPreview    = 5
)

const (
	genCodeUsage    = "❌ <b>Usage:</b> <code>/gencode amount uses [expiry]</code>\nExample: <code>/gencode 10 50 24h</code>"
	customCodeUsage = "<code>CODE amount uses [expiry]</code>\nExample: <code>WELCOME50 50 10 2d</code>"
)

// CodeSpec is a parsed code definition
type CodeSpec struct {
	Code          string
	Amount        int64
	MaxUses       int
	ExpiryMinutes *int
}

// ParseCodeSpec reads "[CODE] amount uses [expiry]". withName controls whether
// the first field is the code name.
func ParseCodeSpec(fields []string, withName bool) (CodeSpec, bool) {
	var spec CodeSpec
	if withName {
		if len(fields) == 0 {
			return spec, false
		}
		spec.Code = strings.ToUpper(fields[0])
		fields = fields[1:]
	}
	if len(fields) < 2 || len(fields) > 3 {
		return spec, false
	}

	amount, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || amount <= 0 {
		return spec, false
	}
	uses, err := strconv.Atoi(fields[1])
	if err != nil || uses <= 0 {
		return spec, false
	}
	spec.Amount = amount
	spec.MaxUses = uses
	if len(fields) == 3 {
		spec.ExpiryMinutes = service.ParseExpiry(fields[2])
	}
	return spec, true
}

func formatCreated(spec CodeSpec) string {
	return fmt.Sprintf("✅ <b>Code Created!</b>\n\n"+
		"🎫 <b>Code:</b> <code>%s</code>\n"+
		"💰 <b>Amount:</b> %d credits\n"+
		"👥 <b>Max Uses:</b> %d\n"+
		"⏰ <b>Expiry:</b> %s\n\n"+
		"📝 <i>Users can redeem using the Redeem button</i>",
		common.Escape(spec.Code), spec.Amount, spec.MaxUses, service.FormatExpiry(spec.ExpiryMinutes))
}

// HandleGenCode issues a code with a random name
func (f *Feature) HandleGenCode(ctx context.Context, msg *tgbotapi.Message) {
	spec, ok := ParseCodeSpec(strings.Fields(msg.CommandArguments()), false)
	if !ok {
		common.Respond(f.client, msg, genCodeUsage, nil)
		return
	}

	code, created, reason := f.ledger.GenerateCode(ctx, spec.Amount, spec.MaxUses, spec.ExpiryMinutes)
	if !created {
		common.Respond(f.client, msg, "❌ "+common.Escape(reason), nil)
		return
	}
	spec.Code = code
	common.Respond(f.client, msg, formatCreated(spec), nil)
}

// HandleCustomCode creates a named code inline or asks for its definition
func (f *Feature) HandleCustomCode(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		f.prompt(ctx, msg, session.StateAwaitingCustomCode,
			"🎫 <b>Create Custom Code</b>\n\nSend the code definition:\n"+customCodeUsage)
		return
	}
	f.createCustom(ctx, msg, args)
}

// HandleCustomCodeInput completes /customcode from the conversation state
func (f *Feature) HandleCustomCodeInput(ctx context.Context, msg *tgbotapi.Message, _ session.Session) {
	f.createCustom(ctx, msg, strings.Fields(msg.Text))
}

func (f *Feature) createCustom(ctx context.Context, msg *tgbotapi.Message, fields []string) {
	spec, ok := ParseCodeSpec(fields, true)
	if !ok {
		common.Respond(f.client, msg, "❌ <b>Invalid format!</b>\nUse: "+customCodeUsage, nil)
		return
	}

	created, reason := f.ledger.CreateCode(ctx, spec.Code, spec.Amount, spec.MaxUses, spec.ExpiryMinutes)
	if !created {
		common.Respond(f.client, msg, "❌ "+common.Escape(reason), nil)
		return
	}
	common.Respond(f.client, msg, formatCreated(spec), nil)
}

// HandleDeactivate deactivates a code inline or asks for its name
func (f *Feature) HandleDeactivate(ctx context.Context, msg *tgbotapi.Message) {
	code := strings.TrimSpace(msg.CommandArguments())
	if code == "" {
		f.prompt(ctx, msg, session.StateAwaitingDeactivateCode,
			"🚫 <b>Deactivate Code</b>\n\nSend the code to deactivate:")
		return
	}
	f.deactivate(ctx, msg, code)
}

// HandleDeactivateInput completes /deactivatecode from the conversation state
func (f *Feature) HandleDeactivateInput(ctx context.Context, msg *tgbotapi.Message, _ session.Session) {
	f.deactivate(ctx, msg, msg.Text)
}

func (f *Feature) deactivate(ctx context.Context, msg *tgbotapi.Message, code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if f.ledger.DeactivateCode(ctx, code) {
		common.Respond(f.client, msg, fmt.Sprintf("✅ Code <code>%s</code> deactivated.", common.Escape(code)), nil)
		return
	}
	common.Respond(f.client, msg, fmt.Sprintf("❌ Code <code>%s</code> not found.", common.Escape(code)), nil)
}

// HandleDeleteCode removes a code together with its redemption history
func (f *Feature) HandleDeleteCode(ctx context.Context, msg *tgbotapi.Message) {
	code := strings.ToUpper(strings.TrimSpace(msg.CommandArguments()))
	if code == "" {
		common.Respond(f.client, msg, "❌ <b>Usage:</b> <code>/deletecode CODE</code>", nil)
		return
	}
	if f.ledger.DeleteCode(ctx, code) {
		common.Respond(f.client, msg, fmt.Sprintf("✅ Code <code>%s</code> deleted.", common.Escape(code)), nil)
		return
	}
	common.Respond(f.client, msg, fmt.Sprintf("❌ Code <code>%s</code> not found.", common.Escape(code)), nil)
}

// HandleListCodes shows every code with its status, split across messages
func (f *Feature) HandleListCodes(ctx context.Context, msg *tgbotapi.Message) {
	codes := f.reports.ListCodes(ctx, nil)
	if len(codes) == 0 {
		common.Respond(f.client, msg, "📭 No codes found.", nil)
		return
	}

	now := f.now()
	var b strings.Builder
	fmt.Fprintf(&b, "🎫 <b>All Codes (%d)</b>\n\n", len(codes))
	for _, code := range codes {
		status := "✅ Active"
		if !code.IsActive {
			status = "❌ Inactive"
		}
		fmt.Fprintf(&b, "%s\n   %s | %s\n", common.FormatCodeLine(code), status, common.FormatCodeExpiry(code, now))
	}

	for _, chunk := range common.SplitMessage(b.String(), listChunkSize) {
		common.Respond(f.client, msg, chunk, nil)
	}
}

// HandleActiveCodes lists the first active codes
func (f *Feature) HandleActiveCodes(ctx context.Context, msg *tgbotapi.Message) {
	f.listFiltered(ctx, msg, true)
}

// HandleInactiveCodes lists the first inactive codes
func (f *Feature) HandleInactiveCodes(ctx context.Context, msg *tgbotapi.Message) {
	f.listFiltered(ctx, msg, false)
}

func (f *Feature) listFiltered(ctx context.Context, msg *tgbotapi.Message, active bool) {
	title, empty := "✅ <b>Active Codes</b>", "📭 No active codes."
	if !active {
		title, empty = "❌ <b>Inactive Codes</b>", "📭 No inactive codes."
	}

	codes := f.reports.ListCodes(ctx, &active)
	if len(codes) == 0 {
		common.Respond(f.client, msg, empty, nil)
		return
	}
	common.Respond(f.client, msg, f.formatCodeList(title, codes, filteredPreview), nil)
}

func (f *Feature) formatCodeList(title string, codes []*models.RedeemCode, limit int) string {
	now := f.now()
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d)\n\n", title, len(codes))
	for i, code := range codes {
		if i == limit {
			fmt.Fprintf(&b, "\n... and %d more", len(codes)-limit)
			break
		}
		fmt.Fprintf(&b, "%s\n   %s\n", common.FormatCodeLine(code), common.FormatCodeExpiry(code, now))
	}
	return b.String()
}

// HandleCheckExpired lists active codes whose expiry already elapsed
func (f *Feature) HandleCheckExpired(ctx context.Context, msg *tgbotapi.Message) {
	codes := f.reports.ExpiredCodes(ctx)
	if len(codes) == 0 {
		common.Respond(f.client, msg, "✅ No expired codes.", nil)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⌛️ <b>Expired Codes (%d)</b>\n\n", len(codes))
	for _, code := range codes {
		b.WriteString(common.FormatCodeLine(code))
		if at := code.ExpiresAt(); at != nil {
			fmt.Fprintf(&b, "\n   Expired: %s", at.Format(common.DateTimeFormat))
		}
		b.WriteString("\n")
	}
	b.WriteString("\nUse /cleanexpired to deactivate them.")

	for _, chunk := range common.SplitMessage(b.String(), listChunkSize) {
		common.Respond(f.client, msg, chunk, nil)
	}
}

// HandleCleanExpired deactivates every expired code
func (f *Feature) HandleCleanExpired(ctx context.Context, msg *tgbotapi.Message) {
	count := f.ledger.SweepExpiredCodes(ctx)
	if count == 0 {
		common.Respond(f.client, msg, "✅ No expired codes to clean.", nil)
		return
	}
	common.Respond(f.client, msg, fmt.Sprintf("🧹 <b>Cleaned %d expired codes.</b>", count), nil)
}

// HandleCodeStats shows a code and everyone who claimed it
func (f *Feature) HandleCodeStats(ctx context.Context, msg *tgbotapi.Message) {
	code := strings.ToUpper(strings.TrimSpace(msg.CommandArguments()))
	if code == "" {
		common.Respond(f.client, msg, "❌ <b>Usage:</b> <code>/codestats CODE</code>", nil)
		return
	}

	usage := f.ledger.CodeUsage(ctx, code)
	if usage == nil || usage.Code == nil {
		common.Respond(f.client, msg, fmt.Sprintf("❌ Code <code>%s</code> not found.", common.Escape(code)), nil)
		return
	}

	rc := usage.Code
	status := "✅ Active"
	if !rc.IsActive {
		status = "❌ Inactive"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Code Statistics: %s</b>\n\n", common.Escape(rc.Code))
	fmt.Fprintf(&b, "💰 <b>Amount:</b> %d credits\n", rc.Amount)
	fmt.Fprintf(&b, "👥 <b>Uses:</b> %d/%d (%d left)\n", rc.CurrentUses, rc.MaxUses, rc.UsesRemaining())
	fmt.Fprintf(&b, "📌 <b>Status:</b> %s\n", status)
	fmt.Fprintf(&b, "⏰ <b>Expiry:</b> %s\n", common.FormatCodeExpiry(rc, f.now()))
	if rc.CreatedAt != nil {
		fmt.Fprintf(&b, "📅 <b>Created:</b> %s\n", rc.CreatedAt.Format(common.DateTimeFormat))
	}

	if len(usage.Redemptions) > 0 {
		b.WriteString("\n👥 <b>Claimed by:</b>\n")
		for _, r := range usage.Redemptions {
			fmt.Fprintf(&b, "• <code>%d</code> %s - %s\n", r.UserID, common.Handle(r.Username), r.ClaimedAt.Format(common.ShortFormat))
		}
	}

	for _, chunk := range common.SplitMessage(b.String(), listChunkSize) {
		common.Respond(f.client, msg, chunk, nil)
	}
}

// HandleActiveCodesPanel shows the first active codes from the admin panel
func (f *Feature) HandleActiveCodesPanel(ctx context.Context, cb *tgbotapi.CallbackQuery) common.Answer {
	active := true
	codes := f.reports.ListCodes(ctx, &active)
	if len(codes) == 0 {
		return common.Alert("📭 No active codes.")
	}
	common.ShowOnCallback(f.client, cb, f.formatCodeList("✅ <b>Active Codes</b>", codes, panelPreview), common.AdminPanel())
	return common.Answer{}
}

func (f *Feature) prompt(ctx context.Context, msg *tgbotapi.Message, state session.State, text string) {
	if err := f.sessions.Set(ctx, msg.From.ID, session.Session{State: state, UpdatedAt: f.now()}); err != nil {
		log.WithError(err).WithField("user_id", msg.From.ID).Error("Failed to store admin session")
		common.Respond(f.client, msg, "❌ Error!", nil)
		return
	}
	common.Respond(f.client, msg, text+"\n\n<i>Type /cancel to cancel</i>", common.CancelButton())
}
