package app

import (
	"github.com/amirasaad/charity/pkg/config"
	"github.com/amirasaad/charity/pkg/domain/profile"
	"github.com/amirasaad/charity/pkg/service/auth"
	"github.com/amirasaad/charity/pkg/service/contribution"
	"github.com/amirasaad/charity/pkg/service/notification"
	"github.com/amirasaad/charity/pkg/service/records"
)

// App holds the services the HTTP layer and the CLI are built on.
type App struct {
	Deps                *config.Deps
	Config              *config.App
	Dispatcher          *notification.Dispatcher
	AuthService         *auth.Service
	ContributionService *contribution.Service
	Volunteers          *records.Volunteers
	Assessments         *records.Assessments
	Beneficiaries       *records.Resource[profile.Beneficiary]
	Media               *records.Resource[profile.MediaAsset]
	Sessions            *records.Resource[profile.Session]
	Skills              *records.Resource[profile.Skill]
}

// New wires the services on deps and subscribes the notification handlers.
func New(deps *config.Deps) *App {
	cfg := deps.Config
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	app.setupEventBus()

	store, logger := deps.Store, deps.Logger
	app.Dispatcher = notification.NewDispatcher(deps.EventBus, adminEmail(cfg), logger)
	app.AuthService = auth.New(store.Users, auth.NewGuard(cfg.Auth.Jwt), app.Dispatcher, logger)
	app.ContributionService = contribution.New(*deps, app.Dispatcher)
	app.Volunteers = records.NewVolunteers(store.Volunteers, app.Dispatcher, logger)
	app.Assessments = records.NewAssessments(store, logger)
	app.Beneficiaries = records.NewResource(store.Beneficiaries, logger)
	app.Media = records.NewResource(store.Media, logger)
	app.Sessions = records.NewResource(store.Sessions, logger)
	app.Skills = records.NewResource(store.Skills, logger)
	return app
}

func adminEmail(cfg *config.App) string {
	if cfg.Notification == nil {
		return ""
	}
	return cfg.Notification.AdminEmail
}
