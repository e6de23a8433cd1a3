// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/canonical/center-service/internal/types"
)

var (
	page int64
	size int64
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Manage the calling user's notifications",
}

var listNotificationsCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		q.Set("page", strconv.FormatInt(page, 10))
		q.Set("size", strconv.FormatInt(size, 10))

		var ns []*types.Notification
		if _, err := getClient().do(context.Background(), "GET", "/api/v0/notifications?"+q.Encode(), nil, &ns); err != nil {
			return fmt.Errorf("failed to list notifications: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tREAD\tTITLE\tMESSAGE\tCREATED_AT")
		for _, n := range ns {
			fmt.Fprintf(w, "%s\t%v\t%s\t%s\t%s\n", n.ID, n.Read, n.Title, n.Message, n.CreatedAt)
		}
		w.Flush()
		return nil
	},
}

var readNotificationCmd = &cobra.Command{
	Use:   "read [id]",
	Short: "Mark one notification, or all of them when no id is given, as read",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/v0/notifications/read"
		if len(args) == 1 {
			path = "/api/v0/notifications/" + url.PathEscape(args[0]) + "/read"
		}

		env, err := getClient().do(context.Background(), "POST", path, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to mark notifications as read: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), env.Message)
		return nil
	},
}

var clearNotificationsCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every notification already read",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Deleted int64 `json:"deleted"`
		}
		if _, err := getClient().do(context.Background(), "DELETE", "/api/v0/notifications/read", nil, &resp); err != nil {
			return fmt.Errorf("failed to delete notifications: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d notifications\n", resp.Deleted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.AddCommand(listNotificationsCmd)
	notificationsCmd.AddCommand(readNotificationCmd)
	notificationsCmd.AddCommand(clearNotificationsCmd)

	listNotificationsCmd.Flags().Int64Var(&page, "page", 1, "Page number")
	listNotificationsCmd.Flags().Int64Var(&size, "size", 20, "Page size")
}
