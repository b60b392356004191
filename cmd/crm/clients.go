// ABOUTME: clients command tree: list, search, show, add, edit, delete and count
// ABOUTME: Every subcommand goes through the crm dispatcher and the terminal presenter

package main

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/2389/personal-crm/internal/crm"
	"github.com/2389/personal-crm/internal/store"
)

func (a *app) clientsCommand() *cobra.Command {
	list := func(cmd *cobra.Command, args []string) error {
		return a.withSession(cmd, func(s *session) error {
			return s.run(cmd.Context(), crm.Search{})
		})
	}

	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage clients",
		Args:  cobra.NoArgs,
		RunE:  list,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all clients sorted by name",
			Args:  cobra.NoArgs,
			RunE:  list,
		},
		&cobra.Command{
			Use:   "search <query>",
			Short: "List clients whose name or email contains query (case-sensitive)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withSession(cmd, func(s *session) error {
					return s.run(cmd.Context(), crm.Search{Query: args[0]})
				})
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show one client",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return a.withSession(cmd, func(s *session) error {
					return s.run(cmd.Context(), crm.Open{ID: id})
				})
			},
		},
		a.clientsAddCommand(),
		a.clientsEditCommand(),
		a.clientsDeleteCommand(),
		&cobra.Command{
			Use:   "count",
			Short: "Print the number of stored clients",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withSession(cmd, func(s *session) error {
					n, err := s.svc.CountClients(cmd.Context())
					if err != nil {
						return fmt.Errorf("counting clients: %w", err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), n)
					return nil
				})
			},
		},
	)
	return cmd
}

func (a *app) clientsAddCommand() *cobra.Command {
	var in crm.ClientInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(s *session) error {
				return s.run(cmd.Context(), crm.Create{Input: in})
			})
		},
	}
	addClientFlags(cmd, &in)
	return cmd
}

func (a *app) clientsEditCommand() *cobra.Command {
	var in crm.ClientInput

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a client; fields not given keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(s *session) error {
				current, err := s.svc.GetClient(cmd.Context(), id)
				if errors.Is(err, store.ErrNotFound) {
					return s.run(cmd.Context(), crm.Open{ID: id})
				}
				if err != nil {
					return fmt.Errorf("loading client: %w", err)
				}

				flags := cmd.Flags()
				if !flags.Changed("name") {
					in.Name = current.Name
				}
				if !flags.Changed("email") {
					in.Email = current.Email
				}
				if !flags.Changed("phone") {
					in.Phone = current.Phone
				}
				return s.run(cmd.Context(), crm.Edit{ID: id, Input: in})
			})
		},
	}
	addClientFlags(cmd, &in)
	return cmd
}

func (a *app) clientsDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(s *session) error {
				if !yes {
					c, err := s.svc.GetClient(cmd.Context(), id)
					if errors.Is(err, store.ErrNotFound) {
						return s.run(cmd.Context(), crm.Open{ID: id})
					}
					if err != nil {
						return fmt.Errorf("loading client: %w", err)
					}

					reader := bufio.NewReader(cmd.InOrStdin())
					q := fmt.Sprintf("Are you sure you want to delete %s <%s>? (yes/no)", c.Name, c.Email)
					if !isYes(prompt(reader, cmd.OutOrStdout(), q, "no")) {
						fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
						return nil
					}
				}
				return s.run(cmd.Context(), crm.Delete{ID: id})
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func addClientFlags(cmd *cobra.Command, in *crm.ClientInput) {
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "Client name (at least 3 characters)")
	f.StringVar(&in.Email, "email", "", "Client email (unique)")
	f.StringVar(&in.Phone, "phone", "", "Client phone (digits only, at least 9)")
}

// withSession opens a session for cmd, runs fn and closes the store.
func (a *app) withSession(cmd *cobra.Command, fn func(*session) error) error {
	s, err := a.openSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid client id %q", arg)
	}
	return id, nil
}
