package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"creditbot/bot/common"
	"creditbot/models"
	"creditbot/session"
)

// permission is the minimum level a route requires
type permission int

const (
	public permission = iota
	adminOnly
	ownerOnly
)

func (p permission) allows(level models.AdminLevel) bool {
	switch p {
	case adminOnly:
		return level.IsPrivileged()
	case ownerOnly:
		return level == models.AdminLevelOwner
	default:
		return true
	}
}

type command struct {
	perm        permission
	description string // shown in the client's command menu when set
	handle      func(ctx context.Context, msg *tgbotapi.Message)
}

type callbackRoute struct {
	perm   permission
	handle func(ctx context.Context, cb *tgbotapi.CallbackQuery) common.Answer
}

type stateRoute struct {
	perm   permission
	handle func(ctx context.Context, msg *tgbotapi.Message, sess session.Session)
}

func (b *Bot) registerRoutes() {
	b.commands = map[string]command{
		"start":   {public, "Start the bot", b.account.HandleStart},
		"balance": {public, "Show your credits", b.account.HandleBalance},
		"cancel":  {public, "Cancel the current operation", b.handleCancelCommand},

		"admin":          {adminOnly, "", b.admins.HandlePanel},
		"listadmins":     {adminOnly, "", b.admins.HandleListAdmins},
		"gift":           {adminOnly, "", b.credits.HandleGift},
		"removecredits":  {adminOnly, "", b.credits.HandleRemoveCredits},
		"bulkgift":       {adminOnly, "", b.credits.HandleBulkGift},
		"ban":            {adminOnly, "", b.credits.HandleBan},
		"unban":          {adminOnly, "", b.credits.HandleUnban},
		"deleteuser":     {adminOnly, "", b.credits.HandleDeleteUser},
		"resetcredits":   {adminOnly, "", b.credits.HandleResetCredits},
		"gencode":        {adminOnly, "", b.codes.HandleGenCode},
		"customcode":     {adminOnly, "", b.codes.HandleCustomCode},
		"deactivatecode": {adminOnly, "", b.codes.HandleDeactivate},
		"deletecode":     {adminOnly, "", b.codes.HandleDeleteCode},
		"listcodes":      {adminOnly, "", b.codes.HandleListCodes},
		"activecodes":    {adminOnly, "", b.codes.HandleActiveCodes},
		"inactivecodes":  {adminOnly, "", b.codes.HandleInactiveCodes},
		"checkexpired":   {adminOnly, "", b.codes.HandleCheckExpired},
		"codestats":      {adminOnly, "", b.codes.HandleCodeStats},
		"stats":          {adminOnly, "", b.reports.HandleStats},
		"leaderboard":    {adminOnly, "", b.reports.HandleLeaderboard},
		"topref":         {adminOnly, "", b.reports.HandleTopReferrers},
		"recentusers":    {adminOnly, "", b.reports.HandleRecentUsers},
		"dailystats":     {adminOnly, "", b.reports.HandleDailyStats},
		"lookupstats":    {adminOnly, "", b.reports.HandleLookupStats},
		"userlookups":    {adminOnly, "", b.reports.HandleUserLookups},
		"premiumusers":   {adminOnly, "", b.reports.HandlePremiumUsers},
		"lowcreditusers": {adminOnly, "", b.reports.HandleLowCreditUsers},
		"inactiveusers":  {adminOnly, "", b.reports.HandleInactiveUsers},
		"searchuser":     {adminOnly, "", b.reports.HandleSearchUser},

		"addadmin":     {ownerOnly, "", b.admins.HandleAddAdmin},
		"removeadmin":  {ownerOnly, "", b.admins.HandleRemoveAdmin},
		"cleanexpired": {ownerOnly, "", b.codes.HandleCleanExpired},
		"dbhealth":     {ownerOnly, "", b.reports.HandleDBHealth},
	}

	b.callbacks = map[string]callbackRoute{
		common.CallbackProfile:   {public, b.account.HandleProfile},
		common.CallbackReferEarn: {public, b.account.HandleReferEarn},
		common.CallbackBackHome:  {public, b.account.HandleBackHome},
		common.CallbackCheckJoin: {public, b.account.HandleCheckJoin},
		common.CallbackRedeem:    {public, b.redeem.HandleStart},
		common.CallbackCancel:    {public, b.handleCancelCallback},

		common.CallbackQuickStats:  {adminOnly, b.reports.HandleQuickStats},
		common.CallbackRecentUsers: {adminOnly, b.reports.HandleRecentUsersPanel},
		common.CallbackTopRef:      {adminOnly, b.reports.HandleTopReferrersPanel},
		common.CallbackClosePanel:  {adminOnly, b.reports.HandleClosePanel},
		common.CallbackActiveCodes: {adminOnly, b.codes.HandleActiveCodesPanel},
	}

	b.states = map[session.State]stateRoute{
		session.StateAwaitingRedeemCode:     {public, b.redeem.HandleCode},
		session.StateAwaitingLookupInput:    {public, b.lookups.HandleInput},
		session.StateAwaitingCustomCode:     {adminOnly, b.codes.HandleCustomCodeInput},
		session.StateAwaitingBulkGift:       {adminOnly, b.credits.HandleBulkGiftInput},
		session.StateAwaitingDeactivateCode: {adminOnly, b.codes.HandleDeactivateInput},
	}
}

// BotCommands returns the public commands advertised in the client's menu
func (b *Bot) BotCommands() []tgbotapi.BotCommand {
	var out []tgbotapi.BotCommand
	for _, name := range []string{"start", "balance", "cancel"} {
		out = append(out, tgbotapi.BotCommand{Command: name, Description: b.commands[name].description})
	}
	return out
}

// isBanned reports whether a non-privileged user is banned. Unknown users are not.
func (b *Bot) isBanned(ctx context.Context, userID int64, level models.AdminLevel) bool {
	if level.IsPrivileged() {
		return false
	}
	user := b.ledger.GetUser(ctx, userID)
	return user != nil && user.IsBanned
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}
	userID := msg.From.ID
	level := b.access.Level(ctx, userID)

	if msg.IsCommand() {
		name := strings.ToLower(msg.Command())
		cmd, ok := b.commands[name]
		if !ok || !cmd.perm.allows(level) {
			return
		}
		// /start renders the ban notice itself
		if name != "start" && b.isBanned(ctx, userID, level) {
			return
		}

		log.WithFields(log.Fields{
			"user_id": userID,
			"command": name,
		}).Debug("Handling command")

		// Any command other than /cancel abandons a pending flow
		if name != "cancel" {
			b.clearSession(ctx, userID)
		}
		cmd.handle(ctx, msg)
		return
	}

	if msg.Text == "" || b.isBanned(ctx, userID, level) {
		return
	}

	sess, err := b.sessions.Get(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to load session")
		return
	}
	if sess.IsIdle() {
		b.handleIdleText(ctx, msg)
		return
	}

	route, ok := b.states[sess.State]
	b.clearSession(ctx, userID)
	if !ok {
		log.WithFields(log.Fields{
			"user_id": userID,
			"state":   sess.State,
		}).Warn("No handler for session state")
		return
	}
	if !route.perm.allows(level) {
		return
	}
	route.handle(ctx, msg, sess)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		return
	}
	level := b.access.Level(ctx, cb.From.ID)
	if b.isBanned(ctx, cb.From.ID, level) {
		common.AnswerCallback(b.client, cb, "", false)
		return
	}

	route, ok := b.callbacks[cb.Data]
	if !ok && strings.HasPrefix(cb.Data, common.CallbackLookupPref) {
		route, ok = callbackRoute{public, b.lookups.HandleSelect}, true
	}
	if !ok {
		log.WithFields(log.Fields{
			"user_id": cb.From.ID,
			"data":    cb.Data,
		}).Debug("Unknown callback")
		common.AnswerCallback(b.client, cb, "", false)
		return
	}
	if !route.perm.allows(level) {
		common.AnswerCallback(b.client, cb, "❌ Admins only!", true)
		return
	}

	answer := route.handle(ctx, cb)
	common.AnswerCallback(b.client, cb, answer.Text, answer.Alert)
}

func (b *Bot) clearSession(ctx context.Context, userID int64) {
	if err := b.sessions.Clear(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to clear session")
	}
}
