package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatherle/notification-service/internal/app"
	"github.com/gatherle/notification-service/internal/config"
	"github.com/gatherle/notification-service/internal/ingest"
	"github.com/gatherle/notification-service/internal/notification"
)

func publishCmd() *cobra.Command {
	var (
		req           notification.CreateNotificationRequest
		referenceID   string
		referenceType string
		payload       string
	)

	cmd := &cobra.Command{
		Use:   "publish <social|events|org>",
		Short: "Publish a domain event to an inbound topic",
		Long: `Publish a domain event the way an upstream service would.

Examples:
  notifyctl publish events --type EVENT_CANCELLED --actor org-1 --recipient user-1 --message "Hike cancelled"
  notifyctl publish social --payload '{"type":"MENTION","actorId":"u2","recipientId":"u1","message":"hi"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic, err := ingest.ParseTopic(args[0])
			if err != nil {
				return err
			}

			var raw []byte
			if payload != "" {
				raw = []byte(payload)
			} else {
				if referenceID != "" {
					req.ReferenceID = &referenceID
				}
				if referenceType != "" {
					req.ReferenceType = &referenceType
				}
				if raw, err = json.Marshal(&req); err != nil {
					return fmt.Errorf("failed to encode event: %w", err)
				}
			}
			if _, err := ingest.ParseEvent(raw); err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Transport != config.TransportRedis {
				return fmt.Errorf("publish needs TRANSPORT=%s, the %s transport lives inside the server process", config.TransportRedis, cfg.Transport)
			}

			broker, err := app.OpenBroker(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer broker.Close()

			if err := broker.Publish(cmd.Context(), string(topic), raw); err != nil {
				return fmt.Errorf("failed to publish to %s: %w", topic, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published to %s\n", topic)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Type, "type", "", "Notification type, e.g. EVENT_CANCELLED")
	cmd.Flags().StringVar(&req.ActorID, "actor", "", "Actor ID")
	cmd.Flags().StringVar(&req.RecipientID, "recipient", "", "Recipient ID")
	cmd.Flags().StringVar(&req.Message, "message", "", "Message text")
	cmd.Flags().StringVar(&referenceID, "reference-id", "", "Referenced entity ID")
	cmd.Flags().StringVar(&referenceType, "reference-type", "", "Referenced entity type")
	cmd.Flags().StringVar(&payload, "payload", "", "Raw JSON event; overrides the field flags")

	return cmd
}
