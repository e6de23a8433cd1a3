// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/canonical/center-service/internal/types"
	"github.com/canonical/center-service/pkg/membership"
)

var (
	fromRole   string
	toRole     string
	expectRole string
)

var membersCmd = &cobra.Command{
	Use:   "members [center-id]",
	Short: "List the members of a center",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var members []*types.Member
		if _, err := getClient().do(context.Background(), "GET", "/api/v0/centers/"+url.PathEscape(args[0])+"/members", nil, &members); err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "USER_ID\tEMAIL\tNAME\tCOURSE\tROLE")
		for _, m := range members {
			name := types.Profile{FirstName: m.FirstName, LastName: m.LastName}.DisplayName()
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.UserID, m.Email, name, m.Course, m.Role)
		}
		w.Flush()
		return nil
	},
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role [center-id] [user-id]",
	Short: "Move a member from one role to another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := map[string]string{"from": fromRole, "to": toRole}
		path := "/api/v0/centers/" + url.PathEscape(args[0]) + "/members/" + url.PathEscape(args[1]) + "/role"

		out := cmd.OutOrStdout()

		change := new(membership.Change)
		env, err := getClient().do(context.Background(), "PUT", path, req, change)

		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.kind == string(types.KindNoOp) {
			fmt.Fprintf(out, "User %s already holds %s\n", args[1], toRole)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to change role: %w", err)
		}

		fmt.Fprintf(out, "User %s moved from %s to %s\n", args[1], change.From, change.To)
		printWarnings(out, env.Warnings)
		return nil
	},
}

var removeMemberCmd = &cobra.Command{
	Use:   "remove [center-id] [user-id]",
	Short: "Remove a member from a center",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/v0/centers/" + url.PathEscape(args[0]) + "/members/" + url.PathEscape(args[1])
		if expectRole != "" {
			path += "?" + url.Values{"role": []string{expectRole}}.Encode()
		}

		change := new(membership.Change)
		env, err := getClient().do(context.Background(), "DELETE", path, nil, change)
		if err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "User %s removed (was %s)\n", args[1], change.From)
		printWarnings(out, env.Warnings)
		return nil
	},
}

func init() {
	centerCmd.AddCommand(membersCmd)
	centerCmd.AddCommand(setRoleCmd)
	centerCmd.AddCommand(removeMemberCmd)

	setRoleCmd.Flags().StringVar(&fromRole, "from", "", "Role the member is expected to hold")
	setRoleCmd.Flags().StringVar(&toRole, "to", "", "Role to move the member to")
	_ = setRoleCmd.MarkFlagRequired("from")
	_ = setRoleCmd.MarkFlagRequired("to")

	removeMemberCmd.Flags().StringVar(&expectRole, "role", "", "Role the member is expected to hold, the removal fails if it changed")
}
