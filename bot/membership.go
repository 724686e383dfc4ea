package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"creditbot/bot/common"
	"creditbot/service"
)

// channelMembership checks that a user joined every required channel
type channelMembership struct {
	client   common.Client
	access   service.AccessService
	channels []int64
	links    []string
}

// NewMembership creates the force-join check. With no channels configured
// everyone passes.
func NewMembership(client common.Client, access service.AccessService, channels []int64, links []string) common.Membership {
	return &channelMembership{
		client:   client,
		access:   access,
		channels: channels,
		links:    links,
	}
}

func (m *channelMembership) Links() []string {
	return m.links
}

// IsMember passes operators unconditionally. A channel the bot cannot query is
// skipped rather than locking everyone out.
func (m *channelMembership) IsMember(ctx context.Context, userID int64) bool {
	if len(m.channels) == 0 || m.access.Level(ctx, userID).IsPrivileged() {
		return true
	}

	for _, chatID := range m.channels {
		member, err := m.client.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
		})
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"chat_id": chatID,
				"user_id": userID,
			}).Warn("Failed to check channel membership")
			continue
		}
		if member.HasLeft() || member.WasKicked() {
			return false
		}
	}
	return true
}
