package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/gatherle/notification-service/internal/app"
	"github.com/gatherle/notification-service/internal/config"
	"github.com/gatherle/notification-service/internal/delivery"
	"github.com/gatherle/notification-service/internal/metrics"
	"github.com/gatherle/notification-service/internal/notification"
)

func deliveriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deliveries",
		Short: "Inspect and resubmit email deliveries",
	}

	cmd.AddCommand(deliveriesListCmd())
	cmd.AddCommand(deliveriesStatsCmd())
	cmd.AddCommand(deliveriesResubmitCmd())

	return cmd
}

func deliveriesListCmd() *cobra.Command {
	var (
		status string
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List delivery logs in a status, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := delivery.NewService(delivery.NewRepository(db), notification.NewRepository(db), nil)
			logs, err := svc.ListByStatus(cmd.Context(), delivery.Status(strings.ToUpper(status)), limit)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(delivery.NewLogResponses(logs))
			}
			return printLogs(cmd.OutOrStdout(), logs)
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", string(delivery.StatusFailed), "Delivery status (PENDING, SENT, DELIVERED, FAILED)")
	cmd.Flags().IntVarP(&limit, "limit", "n", delivery.DefaultListLimit, "Maximum number of logs")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func printLogs(w io.Writer, logs []*delivery.Log) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("ID", "NOTIFICATION", "STATUS", "ATTEMPTS", "LAST ATTEMPT", "ERROR")

	for _, l := range logs {
		lastAttempt := "-"
		if l.LastAttemptAt != nil {
			lastAttempt = l.LastAttemptAt.Format(time.RFC3339)
		}
		errMsg := "-"
		if l.ErrorMessage != nil {
			errMsg = *l.ErrorMessage
		}
		t.Row(
			strconv.FormatInt(l.ID, 10),
			strconv.FormatInt(l.NotificationID, 10),
			string(l.Status),
			strconv.Itoa(l.AttemptCount),
			lastAttempt,
			errMsg,
		)
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func deliveriesStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count delivery logs per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			counts, err := delivery.NewRepository(db).CountByStatus(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range delivery.Statuses {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %d\n", s, counts[s])
			}
			return nil
		},
	}
}

func deliveriesResubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resubmit <delivery-id>...",
		Short: "Publish fresh delivery requests for the notifications of existing logs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid delivery id %q", arg)
				}
				ids = append(ids, id)
			}

			cfg, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()
			if cfg.Transport != config.TransportRedis {
				return fmt.Errorf("resubmit needs TRANSPORT=%s, the %s transport lives inside the server process", config.TransportRedis, cfg.Transport)
			}

			broker, err := app.OpenBroker(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer broker.Close()

			dispatcher := delivery.NewDispatcher(broker, metrics.Nop{})
			svc := delivery.NewService(delivery.NewRepository(db), notification.NewRepository(db), dispatcher)
			for _, id := range ids {
				req, err := svc.Resubmit(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Resubmitted delivery %d (notification %d)\n", id, req.NotificationID)
			}
			return nil
		},
	}
}
