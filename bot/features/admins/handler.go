package admins

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"creditbot/bot/common"
	"creditbot/models"
)

const adminCommands = `🛠 <b>Admin Panel</b>

<b>💰 Credits</b>
/gift user_id amount
/removecredits user_id amount
/bulkgift amount id1 id2 ...
/resetcredits user_id

<b>🎫 Codes</b>
/gencode amount uses [expiry]
/customcode CODE amount uses [expiry]
/listcodes, /activecodes, /inactivecodes
/deactivatecode CODE
/deletecode CODE
/codestats CODE
/checkexpired

<b>👥 Users</b>
/ban user_id, /unban user_id
/deleteuser user_id
/searchuser query
/userlookups user_id
/premiumusers, /lowcreditusers
/inactiveusers [days]

<b>📊 Reports</b>
/stats, /leaderboard, /topref [n]
/recentusers [days], /dailystats [days]
/lookupstats
/listadmins`

const ownerCommands = `

<b>👑 Owner</b>
/addadmin user_id
/removeadmin user_id
/cleanexpired
/dbhealth`

// PanelText lists the commands available at the level
func PanelText(level models.AdminLevel) string {
	if level == models.AdminLevelOwner {
		return adminCommands + ownerCommands
	}
	return adminCommands
}

// HandlePanel shows the admin command list with the panel keyboard
func (f *Feature) HandlePanel(ctx context.Context, msg *tgbotapi.Message) {
	common.Respond(f.client, msg, PanelText(f.access.Level(ctx, msg.From.ID)), common.AdminPanel())
}

// HandleAddAdmin grants admin rights
func (f *Feature) HandleAddAdmin(ctx context.Context, msg *tgbotapi.Message) {
	userID, err := common.ParseUserID(msg.CommandArguments())
	if err != nil {
		common.Respond(f.client, msg, "❌ <b>Usage:</b> <code>/addadmin user_id</code>", nil)
		return
	}

	added, reason := f.access.AddAdmin(ctx, userID, msg.From.ID)
	if !added {
		common.Respond(f.client, msg, "❌ "+common.Escape(reason), nil)
		return
	}
	common.Respond(f.client, msg, fmt.Sprintf("✅ User <code>%d</code> is now an admin.", userID), nil)
	common.Notify(f.client, userID, "🛡 <b>You are now an admin.</b> Send /admin to open the panel.")
}

// HandleRemoveAdmin revokes admin rights
func (f *Feature) HandleRemoveAdmin(ctx context.Context, msg *tgbotapi.Message) {
	userID, err := common.ParseUserID(msg.CommandArguments())
	if err != nil {
		common.Respond(f.client, msg, "❌ <b>Usage:</b> <code>/removeadmin user_id</code>", nil)
		return
	}

	removed, reason := f.access.RemoveAdmin(ctx, userID)
	if !removed {
		common.Respond(f.client, msg, "❌ "+common.Escape(reason), nil)
		return
	}
	common.Respond(f.client, msg, fmt.Sprintf("✅ User <code>%d</code> is no longer an admin.", userID), nil)
}

// HandleListAdmins shows the owner and every admin
func (f *Feature) HandleListAdmins(ctx context.Context, msg *tgbotapi.Message) {
	admins := f.access.ListAdmins(ctx)
	if len(admins) == 0 {
		common.Respond(f.client, msg, "📭 No admins.", nil)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🛡 <b>Admins (%d)</b>\n\n", len(admins))
	for _, a := range admins {
		icon := "🛡"
		if a.Level == models.AdminLevelOwner {
			icon = "👑"
		}
		fmt.Fprintf(&b, "%s <code>%d</code> %s - %s", icon, a.UserID, common.Handle(a.Username), a.Level)
		if a.AddedBy != nil {
			fmt.Fprintf(&b, " (added by <code>%d</code>)", *a.AddedBy)
		}
		b.WriteString("\n")
	}
	common.Respond(f.client, msg, b.String(), nil)
}
