package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/vvatanabe/scm"
)

func (f CommandFactory) createNotificationsCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"ntf"},
		Short:   "List notifications, newest first",
		Long:    `List notifications, newest first.`,
		RunE: f.withClient(flgs, func(ctx context.Context, cmd *cobra.Command, client scm.Client) error {
			out, err := client.ListNotifications(ctx, &scm.ListNotificationsInput{})
			if err != nil {
				return err
			}
			notifications := make([]*scm.Notification, 0, len(out.Notifications))
			for _, n := range out.Notifications {
				if flgs.Unread && n.Read {
					continue
				}
				notifications = append(notifications, n)
			}
			printMessageWithData(cmd.OutOrStdout(), "", &scm.ListNotificationsOutput{Notifications: notifications})
			return nil
		}),
	}
	c.Flags().BoolVar(&flgs.Unread, flagMap.Unread.Name, flagMap.Unread.Value, flagMap.Unread.Usage)
	return c
}

func (f CommandFactory) createReadCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "read",
		Short: "Mark a notification read",
		Long:  `Mark a notification read. Marking it again has no effect.`,
		RunE: f.withClient(flgs, func(ctx context.Context, cmd *cobra.Command, client scm.Client) error {
			out, err := client.MarkNotificationRead(ctx, &scm.MarkNotificationReadInput{ID: flgs.ID})
			if err != nil {
				return err
			}
			if out.Notification == nil {
				return errorNotificationNotFound(flgs.ID)
			}
			printMessageWithData(cmd.OutOrStdout(), "", out.Notification)
			return nil
		}),
	}
	c.Flags().StringVar(&flgs.ID, flagMap.ID.Name, "", "Notification ID.")
	return c
}

func (f CommandFactory) createMetricsCommand(flgs *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show shipment performance metrics",
		Long:  `Show total, delivered and delayed shipments and the on-time rate.`,
		RunE: f.withClient(flgs, func(ctx context.Context, cmd *cobra.Command, client scm.Client) error {
			out, err := client.GetPerformanceMetrics(ctx, &scm.GetPerformanceMetricsInput{})
			if err != nil {
				return err
			}
			printMessageWithData(cmd.OutOrStdout(), "", out)
			return nil
		}),
	}
}
