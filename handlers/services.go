package handlers

import (
	"clinic_flow_app_go/db"
	"clinic_flow_app_go/services"

	"go.uber.org/zap"
)

var (
	appLogger           = zap.NewNop()
	recordStore         *services.RecordStore
	searchService       *services.SearchService
	notificationService *services.NotificationService
	notificationBroker  services.NotificationBroker
	notificationHistory = services.DefaultNotificationHistory
	loginMonitor        *services.LoginMonitor
)

// Options configures the shared services used by the handlers
type Options struct {
	Logger              *zap.Logger
	Broker              services.NotificationBroker
	SearchLimit         int
	NotificationHistory int
	LoginMonitor        *services.LoginMonitor
}

// InitServices wires the handler services on top of db.DB. It must run after db.Initialize.
func InitServices(opts Options) {
	if opts.Logger != nil {
		appLogger = opts.Logger
	}
	if opts.NotificationHistory > 0 {
		notificationHistory = opts.NotificationHistory
	}
	notificationBroker = opts.Broker
	if notificationBroker == nil {
		notificationBroker = services.NewMemoryBroker(appLogger)
	}

	loginMonitor = opts.LoginMonitor
	if loginMonitor == nil {
		loginMonitor = services.NewLoginMonitor(appLogger.Named("security"))
	}

	recordStore = services.NewRecordStore(db.DB)
	searchService = services.NewSearchService(recordStore, opts.SearchLimit, appLogger.Named("search"))
	notificationService = services.NewNotificationService(db.DB, notificationBroker, appLogger.Named("notifications"))
}

// ClinicDirectory exposes the record store for the clinic middleware
func ClinicDirectory() services.ClinicDirectory {
	return recordStore
}
