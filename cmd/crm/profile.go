// ABOUTME: profile and activity commands
// ABOUTME: profile edit keeps fields that are not given unless --clear is set

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/2389/personal-crm/internal/crm"
	"github.com/2389/personal-crm/internal/store"
)

func (a *app) profileCommand() *cobra.Command {
	show := func(cmd *cobra.Command, args []string) error {
		return a.withSession(cmd, func(s *session) error {
			return s.run(cmd.Context(), crm.ShowProfile{})
		})
	}

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
		Args:  cobra.NoArgs,
		RunE:  show,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show your profile",
			Args:  cobra.NoArgs,
			RunE:  show,
		},
		a.profileEditCommand(),
	)
	return cmd
}

func (a *app) profileEditCommand() *cobra.Command {
	var (
		in    crm.ProfileInput
		blank bool
	)

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Save your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session) error {
				if !blank {
					current, err := s.svc.Profile(cmd.Context())
					if err != nil {
						return fmt.Errorf("loading profile: %w", err)
					}
					flags := cmd.Flags()
					if !flags.Changed("name") {
						in.Name = unsetIfPlaceholder(current.Name)
					}
					if !flags.Changed("email") {
						in.Email = unsetIfPlaceholder(current.Email)
					}
					if !flags.Changed("phone") {
						in.Phone = unsetIfPlaceholder(current.Phone)
					}
					if !flags.Changed("bio") {
						in.Bio = unsetIfPlaceholder(current.Bio)
					}
				}
				return s.run(cmd.Context(), crm.SaveProfile{Input: in})
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "Your name")
	f.StringVar(&in.Email, "email", "", "Your email")
	f.StringVar(&in.Phone, "phone", "", "Your phone (digits only)")
	f.StringVar(&in.Bio, "bio", "", "Short bio in markdown (optional, at least 10 characters)")
	f.BoolVar(&blank, "clear", false, "Start from an empty profile instead of the saved one")
	return cmd
}

func unsetIfPlaceholder(v string) string {
	if v == store.NoInformation {
		return ""
	}
	return v
}

func (a *app) activityCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent changes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			return a.withSession(cmd, func(s *session) error {
				entries, err := s.svc.Activity(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("listing activity: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "  (no activity)")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "  TIME\tACTION\tTARGET\tNAME")
				fmt.Fprintln(w, "  ----\t------\t------\t----")
				for _, e := range entries {
					name, _ := e.Detail["name"].(string)
					fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
						e.Timestamp.Local().Format("Jan 02 15:04:05"), e.Action, e.TargetID, name)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries")
	return cmd
}
