package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"clinic_flow_app_go/config"
	"clinic_flow_app_go/db"
	"clinic_flow_app_go/logger"
	"clinic_flow_app_go/palette"
	"clinic_flow_app_go/services"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	cfg := config.Load()

	appLogger, err := logger.NewFileLogger(cfg.LogLevel, cfg.PaletteLogPath, "clinic-palette")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	if err := db.Initialize(db.Options{
		Path:        cfg.DBPath,
		TursoURL:    cfg.TursoDatabaseURL,
		TursoToken:  cfg.TursoAuthToken,
		Environment: cfg.Environment,
		Quiet:       true,
	}, appLogger); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	fmt.Println()

	user, err := services.Authenticate(db.DB, appLogger, email, string(passwordBytes))
	if err != nil {
		log.Fatalf("Sign in failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := services.NewRecordStore(db.DB)
	session := services.NewClinicSession(store, appLogger.Named("session"))
	session.SetUser(ctx, user.ID)

	clinicName := ""
	if current := session.Current(); current.Resolved() {
		clinicName = current.Clinic.Name
	} else {
		fmt.Println("No clinic is associated with this account; search is disabled.")
	}

	var broker services.NotificationBroker
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		broker = services.NewRedisBroker(client, appLogger.Named("broker"))
	} else {
		// without redis only notifications created by this process show up live
		broker = services.NewMemoryBroker(appLogger.Named("broker"))
	}

	events := palette.NewEvents()

	searcher := services.NewSearchService(store, cfg.SearchResultLimit, appLogger.Named("search"))
	coordinator := services.NewSearchCoordinator(searcher, session, events.Navigator(), appLogger.Named("coordinator"),
		services.WithDebounce(cfg.SearchDebounce),
		services.WithRequestTimeout(cfg.RequestTimeout),
		services.WithSearchListener(events.SearchListener()),
	)
	defer coordinator.Stop()

	notifications := services.NewNotificationService(db.DB, broker, appLogger.Named("notifications"))
	feed := services.NewNotificationFeed(notifications, broker, events.Navigator(), appLogger.Named("feed"),
		services.WithHistoryLimit(cfg.NotificationHistory),
		services.WithFeedTimeout(cfg.RequestTimeout),
		services.WithFeedListener(events.FeedListener()),
	)
	defer feed.Close()
	feed.SetUser(ctx, user.ID)

	appLogger.Info("palette started", zap.String("user_id", user.ID), zap.String("clinic_id", session.ClinicID()))

	p := tea.NewProgram(palette.New(ctx, coordinator, feed, events, clinicName), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		appLogger.Error("palette exited with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
