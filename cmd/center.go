// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/canonical/center-service/internal/types"
	"github.com/canonical/center-service/pkg/membership"
)

var (
	schoolName     string
	color          string
	animal         string
	educationLevel string
	courses        []string
	country        string
	province       string
	district       string
	nationalID     string

	firstName string
	lastName  string
	course    string
)

var centerCmd = &cobra.Command{
	Use:   "center",
	Short: "Manage centers and memberships",
}

var createCenterCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new center owned by the calling user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := struct {
			membership.TenantAttributes
			NationalID string `json:"national_id,omitempty"`
		}{
			TenantAttributes: membership.TenantAttributes{
				Name:           args[0],
				SchoolName:     schoolName,
				Color:          color,
				Animal:         animal,
				EducationLevel: educationLevel,
				Courses:        courses,
				Location: types.Location{
					Country:  country,
					Province: province,
					District: district,
				},
			},
			NationalID: nationalID,
		}

		outcome := new(membership.Outcome)
		env, err := getClient().do(context.Background(), "POST", "/api/v0/centers", req, outcome)
		if err != nil {
			return fmt.Errorf("failed to create center: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Center created: %s (ID: %s)\n", outcome.Tenant.Name, outcome.Tenant.ID)
		printCodes(out, outcome.Codes)
		printWarnings(out, env.Warnings)
		return nil
	},
}

var listCentersCmd = &cobra.Command{
	Use:   "list",
	Short: "List the centers the calling user belongs to",
	RunE: func(cmd *cobra.Command, args []string) error {
		var centers []*types.Tenant
		if _, err := getClient().do(context.Background(), "GET", "/api/v0/centers", nil, &centers); err != nil {
			return fmt.Errorf("failed to list centers: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tMEMBERS\tVERSION\tCREATED_AT")
		for _, t := range centers {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", t.ID, t.Name, t.Roles.Len(), t.Version, t.CreatedAt)
		}
		w.Flush()
		return nil
	},
}

var getRoleCmd = &cobra.Command{
	Use:   "role [center-id]",
	Short: "Show the calling user's role in a center",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Role types.Role `json:"role"`
		}
		if _, err := getClient().do(context.Background(), "GET", "/api/v0/centers/"+url.PathEscape(args[0])+"/role", nil, &resp); err != nil {
			return fmt.Errorf("failed to get role: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), resp.Role)
		return nil
	},
}

var listCodesCmd = &cobra.Command{
	Use:   "codes [center-id]",
	Short: "List the invitation codes visible to the calling user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var codes []*types.InvitationCode
		if _, err := getClient().do(context.Background(), "GET", "/api/v0/centers/"+url.PathEscape(args[0])+"/invitation-codes", nil, &codes); err != nil {
			return fmt.Errorf("failed to list invitation codes: %w", err)
		}

		printCodes(cmd.OutOrStdout(), codes)
		return nil
	},
}

var previewCodeCmd = &cobra.Command{
	Use:   "preview [code]",
	Short: "Show the center and role an invitation code grants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		preview := new(types.CodePreview)
		if _, err := getClient().do(context.Background(), "GET", "/api/v0/invitations/"+url.PathEscape(args[0]), nil, preview); err != nil {
			return fmt.Errorf("failed to preview invitation code: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Center: %s (ID: %s)\n", preview.Name, preview.TenantID)
		fmt.Fprintf(out, "Role: %s\n", preview.Role)
		if len(preview.Courses) > 0 {
			fmt.Fprintf(out, "Courses: %s\n", strings.Join(preview.Courses, ", "))
		}
		return nil
	},
}

var joinCenterCmd = &cobra.Command{
	Use:   "join [code]",
	Short: "Redeem an invitation code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := struct {
			Code string `json:"code"`
			types.Profile
		}{
			Code: args[0],
			Profile: types.Profile{
				FirstName:  firstName,
				LastName:   lastName,
				NationalID: nationalID,
				Course:     course,
			},
		}

		outcome := new(membership.Outcome)
		env, err := getClient().do(context.Background(), "POST", "/api/v0/invitations/redeem", body, outcome)
		if err != nil {
			return fmt.Errorf("failed to join center: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Joined center %s as %s\n", outcome.Change.TenantID, outcome.Change.To)
		printWarnings(out, env.Warnings)
		return nil
	},
}

var leaveCenterCmd = &cobra.Command{
	Use:   "leave [center-id]",
	Short: "Leave a center",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		change := new(membership.Change)
		env, err := getClient().do(context.Background(), "POST", "/api/v0/centers/"+url.PathEscape(args[0])+"/leave", nil, change)
		if err != nil {
			return fmt.Errorf("failed to leave center: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Left center %s (was %s)\n", change.TenantID, change.From)
		printWarnings(out, env.Warnings)
		return nil
	},
}

func printCodes(out io.Writer, codes []*types.InvitationCode) {
	if len(codes) == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KIND\tCODE\tCREATED_AT")
	for _, c := range codes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Kind, c.Code, c.CreatedAt)
	}
	w.Flush()
}

func printWarnings(out io.Writer, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
}

func init() {
	rootCmd.AddCommand(centerCmd)
	centerCmd.AddCommand(createCenterCmd)
	centerCmd.AddCommand(listCentersCmd)
	centerCmd.AddCommand(getRoleCmd)
	centerCmd.AddCommand(listCodesCmd)
	centerCmd.AddCommand(previewCodeCmd)
	centerCmd.AddCommand(joinCenterCmd)
	centerCmd.AddCommand(leaveCenterCmd)

	createCenterCmd.Flags().StringVar(&schoolName, "school", "", "School name")
	createCenterCmd.Flags().StringVar(&color, "color", "", "Center color")
	createCenterCmd.Flags().StringVar(&animal, "animal", "", "Center animal")
	createCenterCmd.Flags().StringVar(&educationLevel, "education-level", "", "Education level")
	createCenterCmd.Flags().StringSliceVar(&courses, "courses", []string{}, "Comma-separated list of courses")
	createCenterCmd.Flags().StringVar(&country, "country", "", "Country")
	createCenterCmd.Flags().StringVar(&province, "province", "", "Province")
	createCenterCmd.Flags().StringVar(&district, "district", "", "District")
	createCenterCmd.Flags().StringVar(&nationalID, "national-id", "", "Owner national ID")

	joinCenterCmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	joinCenterCmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	joinCenterCmd.Flags().StringVar(&nationalID, "national-id", "", "National ID")
	joinCenterCmd.Flags().StringVar(&course, "course", "", "Course, for students")
}
