package admins

import (
	"creditbot/bot/common"
	"creditbot/service"
)

// Feature handles the admin panel and the operator allow-list
type Feature struct {
	client common.Client
	access service.AccessService
}

// New creates the admins feature
func New(client common.Client, access service.AccessService) *Feature {
	return &Feature{client: client, access: access}
}
