package app

import (
	handler "github.com/amirasaad/charity/pkg/handler/notification"
)

// setupEventBus registers the bus handlers. Mail templates get the
// organization name and site URL as defaults.
func (a *App) setupEventBus() {
	defaults := map[string]string{}
	if n := a.Config.Notification; n != nil {
		defaults["org"] = n.OrgName
		defaults["site"] = n.SiteURL
	}
	handler.Register(a.Deps.EventBus, a.Deps.Mailer, defaults, a.Deps.Logger)
}
