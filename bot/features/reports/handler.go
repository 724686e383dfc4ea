package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"creditbot/bot/common"
	"creditbot/models"
	"creditbot/service"
)

const (
	listChunkSize      = 4000
	leaderboardSize    = 10
	statsReferrers     = 5
	recentUsersShown   = 20
	panelRecentUsers   = 10
	panelTopReferrers  = 10
	userLookupsShown   = 10
	searchResultsShown = 15
	inputPreview       = 30
)

var medals = []string{"🥇", "🥈", "🥉"}

func rank(i int) string {
	if i < len(medals) {
		return medals[i]
	}
	return fmt.Sprintf("%d.", i+1)
}

func (f *Feature) respondChunks(msg *tgbotapi.Message, text string) {
	for _, chunk := range common.SplitMessage(text, listChunkSize) {
		common.Respond(f.client, msg, chunk, nil)
	}
}

// FormatStats renders the ledger summary with the top referrers
func FormatStats(stats *models.LedgerStats, referrers []*models.ReferrerEntry) string {
	var b strings.Builder
	b.WriteString("📊 <b>Bot Statistics</b>\n\n")
	fmt.Fprintf(&b, "👥 <b>Total Users:</b> %d\n", stats.TotalUsers)
	fmt.Fprintf(&b, "💰 <b>Users with Credits:</b> %d\n", stats.UsersWithCredits)
	fmt.Fprintf(&b, "💎 <b>Credits Outstanding:</b> %d\n", stats.CreditsOutstanding)
	fmt.Fprintf(&b, "🎁 <b>Credits Distributed:</b> %d\n", stats.CreditsDistributed)
	fmt.Fprintf(&b, "🔍 <b>Total Lookups:</b> %d\n", stats.TotalLookups)
	fmt.Fprintf(&b, "🚫 <b>Banned Users:</b> %d\n", stats.BannedUsers)
	fmt.Fprintf(&b, "🎫 <b>Active Codes:</b> %d\n", stats.ActiveCodes)

	if len(referrers) > 0 {
		b.WriteString("\n🏆 <b>Top Referrers:</b>\n")
		for i, r := range referrers {
			fmt.Fprintf(&b, "%s <code>%d</code> %s - %d referrals\n", rank(i), r.UserID, common.Handle(r.Username), r.Referrals)
		}
	}
	return b.String()
}

// HandleStats shows the ledger summary
func (f *Feature) HandleStats(ctx context.Context, msg *tgbotapi.Message) {
	stats := f.reports.Stats(ctx)
	if stats == nil {
		common.Respond(f.client, msg, "❌ Could not load statistics.", nil)
		return
	}
	common.Respond(f.client, msg, FormatStats(stats, f.reports.TopReferrers(ctx, statsReferrers)), nil)
}

// HandleQuickStats shows the ledger summary from the admin panel
func (f *Feature) HandleQuickStats(ctx context.Context, cb *tgbotapi.CallbackQuery) common.Answer {
	stats := f.reports.Stats(ctx)
	if stats == nil {
		return common.Alert("❌ Could not load statistics.")
	}
	common.ShowOnCallback(f.client, cb, FormatStats(stats, nil), common.AdminPanel())
	return common.Answer{}
}

// HandleLeaderboard ranks users by balance
func (f *Feature) HandleLeaderboard(ctx context.Context, msg *tgbotapi.Message) {
	users := f.reports.Leaderboard(ctx, leaderboardSize)
	if len(users) == 0 {
		common.Respond(f.client, msg, "📭 No users yet.", nil)
		return
	}

	var b strings.Builder
	b.WriteString("🏆 <b>Credits Leaderboard</b>\n\n")
	for i, u := range users {
		fmt.Fprintf(&b, "%s <code>%d</code> %s - <b>%d</b> credits\n", rank(i), u.UserID, common.Handle(u.Username), u.Credits)
	}
	common.Respond(f.client, msg, b.String(), nil)
}

func formatReferrers(referrers []*models.ReferrerEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 <b>Top %d Referrers</b>\n\n", len(referrers))
	for i, r := range referrers {
		fmt.Fprintf(&b, "%s <code>%d</code> %s - %d referrals\n", rank(i), r.UserID, common.Handle(r.Username), r.Referrals)
	}
	return b.String()
}

// HandleTopReferrers ranks users by referrals, /topref [n]
func (f *Feature) HandleTopReferrers(ctx context.Context, msg *tgbotapi.Message) {
	limit := common.ParsePositiveInt(msg.CommandArguments(), panelTopReferrers)
	referrers := f.reports.TopReferrers(ctx, limit)
	if len(referrers) == 0 {
		common.Respond(f.client, msg, "📭 No referrals yet.", nil)
		return
	}
	common.Respond(f.client, msg, formatReferrers(referrers), nil)
}

// HandleTopReferrersPanel ranks referrers from the admin panel
func (f *Feature) HandleTopReferrersPanel(ctx context.Context, cb *tgbotapi.CallbackQuery) common.Answer {
	referrers := f.reports.TopReferrers(ctx, panelTopReferrers)
	if len(referrers) == 0 {
		return common.Alert("📭 No referrals yet.")
	}
	common.ShowOnCallback(f.client, cb, formatReferrers(referrers), common.AdminPanel())
	return common.Answer{}
}

func formatUsers(title string, users []*models.User, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d)\n\n", title, len(users))
	for i, u := range users {
		if limit > 0 && i == limit {
			fmt.Fprintf(&b, "\n... and %d more", len(users)-limit)
			break
		}
		b.WriteString(common.FormatUserLine(u))
		b.WriteString("\n")
	}
	return b.String()
}

// HandleRecentUsers lists users who joined in the last n days, /recentusers [days]
func (f *Feature) HandleRecentUsers(ctx context.Context, msg *tgbotapi.Message) {
	days := common.ParsePositiveInt(msg.CommandArguments(), 7)
	now := f.now()
	users := f.reports.UsersJoinedBetween(ctx, now.AddDate(0, 0, -days), now)
	if len(users) == 0 {
		common.Respond(f.client, msg, fmt.Sprintf("📭 No users joined in the last %d days.", days), nil)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🆕 <b>Users Joined in the Last %d Days</b> (%d)\n\n", days, len(users))
	for i, u := range users {
		if i == recentUsersShown {
			fmt.Fprintf(&b, "\n... and %d more", len(users)-recentUsersShown)
			break
		}
		fmt.Fprintf(&b, "• <code>%d</code> %s - %s\n", u.UserID, common.Handle(u.Username), u.JoinedAt.Format(common.ShortFormat))
	}
	common.Respond(f.client, msg, b.String(), nil)
}

// HandleRecentUsersPanel lists the newest users from the admin panel
func (f *Feature) HandleRecentUsersPanel(ctx context.Context, cb *tgbotapi.CallbackQuery) common.Answer {
	users := f.reports.RecentUsers(ctx, panelRecentUsers)
	if len(users) == 0 {
		return common.Alert("📭 No users yet.")
	}
	common.ShowOnCallback(f.client, cb, formatUsers("🆕 <b>Recent Users</b>", users, 0), common.AdminPanel())
	return common.Answer{}
}

// HandleClosePanel removes the admin panel message
func (f *Feature) HandleClosePanel(ctx context.Context, cb *tgbotapi.CallbackQuery) common.Answer {
	if cb.Message != nil {
		common.Delete(f.client, cb.Message.Chat.ID, cb.Message.MessageID)
	}
	return common.Toast("Panel closed")
}

// HandleDailyStats shows signups per day, /dailystats [days]
func (f *Feature) HandleDailyStats(ctx context.Context, msg *tgbotapi.Message) {
	days := common.ParsePositiveInt(msg.CommandArguments(), 7)
	counts := f.reports.DailySignups(ctx, days)
	if len(counts) == 0 {
		common.Respond(f.client, msg, fmt.Sprintf("📭 No signups in the last %d days.", days), nil)
		return
	}

	var total int64
	var b strings.Builder
	fmt.Fprintf(&b, "📈 <b>Daily Signups (last %d days)</b>\n\n", days)
	for _, c := range counts {
		fmt.Fprintf(&b, "📅 %s: <b>%d</b>\n", c.Day.Format(common.DateFormat), c.Count)
		total += c.Count
	}
	fmt.Fprintf(&b, "\n👥 <b>Total:</b> %d", total)
	common.Respond(f.client, msg, b.String(), nil)
}

// HandleLookupStats shows lookup volume per category
func (f *Feature) HandleLookupStats(ctx context.Context, msg *tgbotapi.Message) {
	counts := f.reports.LookupStats(ctx)
	if len(counts) == 0 {
		common.Respond(f.client, msg, "📭 No lookups yet.", nil)
		return
	}

	var total int64
	var b strings.Builder
	b.WriteString("🔍 <b>Lookup Statistics</b>\n\n")
	for _, c := range counts {
		fmt.Fprintf(&b, "%s: <b>%d</b>\n", common.CategoryLabel(c.APIType), c.Count)
		total += c.Count
	}
	fmt.Fprintf(&b, "\n📊 <b>Total:</b> %d", total)
	common.Respond(f.client, msg, b.String(), nil)
}

// HandleUserLookups shows a user's recent lookups, /userlookups user_id
func (f *Feature) HandleUserLookups(ctx context.Context, msg *tgbotapi.Message) {
	userID, err := common.ParseUserID(msg.CommandArguments())
	if err != nil {
		common.Respond(f.client, msg, "❌ <b>Usage:</b> <code>/userlookups user_id</code>", nil)
		return
	}

	records := f.reports.UserLookups(ctx, userID, userLookupsShown)
	if len(records) == 0 {
		common.Respond(f.client, msg, fmt.Sprintf("📭 No lookups for user <code>%d</code>.", userID), nil)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 <b>Recent Lookups of %d</b>\n\n", userID)
	for _, r := range records {
		fmt.Fprintf(&b, "• %s %s - <code>%s</code>\n",
			r.LookupAt.Format(common.ShortFormat), strings.ToUpper(common.Escape(r.APIType)),
			common.Escape(common.TruncateRunes(r.InputData, inputPreview)))
	}
	common.Respond(f.client, msg, b.String(), nil)
}

// HandlePremiumUsers lists users holding many credits
func (f *Feature) HandlePremiumUsers(ctx context.Context, msg *tgbotapi.Message) {
	users := f.reports.PremiumUsers(ctx)
	if len(users) == 0 {
		common.Respond(f.client, msg, fmt.Sprintf("📭 No users with %d+ credits.", service.PremiumThreshold), nil)
		return
	}
	f.respondChunks(msg, formatUsers(fmt.Sprintf("💎 <b>Premium Users (%d+ credits)</b>", service.PremiumThreshold), users, 0))
}

// HandleLowCreditUsers lists users about to run out of credits
func (f *Feature) HandleLowCreditUsers(ctx context.Context, msg *tgbotapi.Message) {
	users := f.reports.LowCreditUsers(ctx)
	if len(users) == 0 {
		common.Respond(f.client, msg, "📭 No low credit users.", nil)
		return
	}
	f.respondChunks(msg, formatUsers(fmt.Sprintf("⚠️ <b>Low Credit Users (≤%d credits)</b>", service.LowCreditThreshold), users, 0))
}

// HandleInactiveUsers lists users idle for n days, /inactiveusers [days]
func (f *Feature) HandleInactiveUsers(ctx context.Context, msg *tgbotapi.Message) {
	days := common.ParsePositiveInt(msg.CommandArguments(), 30)
	users := f.reports.InactiveUsers(ctx, days)
	if len(users) == 0 {
		common.Respond(f.client, msg, fmt.Sprintf("📭 No users inactive for %d+ days.", days), nil)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "😴 <b>Inactive Users (%d+ days)</b> (%d)\n\n", days, len(users))
	for _, u := range users {
		fmt.Fprintf(&b, "• <code>%d</code> %s - last active %s\n", u.UserID, common.Handle(u.Username), u.LastActive.Format(common.DateFormat))
	}
	f.respondChunks(msg, b.String())
}

// HandleSearchUser finds users by id or username fragment, /searchuser query
func (f *Feature) HandleSearchUser(ctx context.Context, msg *tgbotapi.Message) {
	query := strings.TrimPrefix(strings.TrimSpace(msg.CommandArguments()), "@")
	if query == "" {
		common.Respond(f.client, msg, "❌ <b>Usage:</b> <code>/searchuser username_or_id</code>", nil)
		return
	}

	users := f.reports.SearchUsers(ctx, query)
	if len(users) == 0 {
		common.Respond(f.client, msg, fmt.Sprintf("📭 No users matching <code>%s</code>.", common.Escape(query)), nil)
		return
	}
	common.Respond(f.client, msg, formatUsers(fmt.Sprintf("🔎 <b>Search: %s</b>", common.Escape(query)), users, searchResultsShown), nil)
}

// HandleDBHealth reports row counts and database round trip time
func (f *Feature) HandleDBHealth(ctx context.Context, msg *tgbotapi.Message) {
	started := time.Now()
	counts, err := f.reports.TableCounts(ctx)
	if err != nil {
		log.WithError(err).Error("Database health check failed")
		common.Respond(f.client, msg, "❌ <b>Database Unhealthy!</b>\n\n<code>"+common.Escape(err.Error())+"</code>", nil)
		return
	}

	var b strings.Builder
	b.WriteString("🩺 <b>Database Health</b>\n\n✅ <b>Status:</b> Connected\n")
	fmt.Fprintf(&b, "⏱ <b>Query Time:</b> %dms\n\n", time.Since(started).Milliseconds())
	fmt.Fprintf(&b, "👥 users: %d\n", counts.Users)
	fmt.Fprintf(&b, "🎫 redeem_codes: %d\n", counts.Codes)
	fmt.Fprintf(&b, "🎁 redemptions: %d\n", counts.Redemptions)
	fmt.Fprintf(&b, "🔍 lookup_logs: %d\n", counts.Lookups)
	fmt.Fprintf(&b, "🛡 admins: %d", counts.Admins)
	common.Respond(f.client, msg, b.String(), nil)
}
