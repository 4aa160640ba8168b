package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_response_system/internal/config"
	"github.com/shenikar/incident_response_system/internal/models"
	"github.com/shenikar/incident_response_system/internal/notify"
	"github.com/shenikar/incident_response_system/pkg/logger"
	"github.com/spf13/cobra"
)

func notifyCommand() *cobra.Command {
	var title, message string

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a test alert through the configured webhook and NOTIFY_URLS",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log := logger.New(cfg.LogLevel, cfg.LogFormat)

			notifier, err := buildNotifier(cfg, log)
			if err != nil {
				return err
			}
			if notifier.Len() == 0 {
				return fmt.Errorf("no notifiers configured: set WEBHOOK_URL or NOTIFY_URLS")
			}

			loc, _ := models.Preset(models.DefaultPreset)
			msg := notify.Message{
				SessionID: uuid.New(),
				Notification: models.Notification{
					ID:          uuid.New(),
					Level:       models.NotificationInfo,
					Title:       title,
					Description: message,
					CreatedAt:   time.Now(),
				},
				Location: loc,
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.WebhookTimeout*time.Duration(cfg.WebhookMaxRetries+1)+5*time.Second)
			defer cancel()
			return notifier.Notify(ctx, msg)
		},
	}

	cmd.Flags().StringVar(&title, "title", "TEST ALERT", "notification title")
	cmd.Flags().StringVar(&message, "message", "Command center notification check.", "notification message")
	return cmd
}
