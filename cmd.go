package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func SetupCommands(a *App) *cobra.Command {
	var tab string

	// root command opens the interactive tabbed shell
	rootCmd := &cobra.Command{
		Use:           "vhours",
		Short:         "Log and review volunteer hours",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Shell(cmd.Context(), tab)
		},
	}
	rootCmd.Flags().StringVar(&tab, "tab", "", "tab to open with (log-hours, create-user, view-hours, user-stats, rules)")
	rootCmd.RegisterFlagCompletionFunc("tab", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var tabs []string
		for _, id := range tabOrder {
			if a.tabs.Navigable(id) {
				tabs = append(tabs, string(id))
			}
		}
		return tabs, cobra.ShellCompDirectiveNoFileComp
	})

	// volunteer ids complete from the backend list
	completeVolunteers := func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		users, err := a.api.ListVolunteers(cmd.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		ids := make([]string, 0, len(users))
		for _, u := range users {
			ids = append(ids, strconv.FormatInt(u.ID, 10)+"\t"+u.Name)
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	}

	// command for logging hours
	var logIn LogInput
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Log volunteer hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.LogHours(cmd.Context(), logIn)
			return err
		},
	}
	logCmd.Flags().StringVarP(&logIn.VolunteerID, "volunteer", "v", "", "volunteer id (defaults to the last selected one)")
	logCmd.Flags().StringVarP(&logIn.Date, "date", "d", "", "date as YYYY-MM-DD (defaults to today)")
	logCmd.Flags().StringVarP(&logIn.Hours, "hours", "H", "", "hours worked")
	logCmd.Flags().StringVarP(&logIn.Notes, "notes", "n", "", "notes")
	logCmd.RegisterFlagCompletionFunc("volunteer", completeVolunteers)

	// command for registering a new volunteer
	var regIn RegisterInput
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new volunteer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Register(cmd.Context(), regIn)
		},
	}
	registerCmd.Flags().StringVar(&regIn.Name, "name", "", "full name")
	registerCmd.Flags().StringVar(&regIn.Email, "email", "", "email address")
	registerCmd.Flags().StringVar(&regIn.Phone, "phone", "", "phone number (optional)")

	// command for listing every logged entry
	hoursCmd := &cobra.Command{
		Use:   "hours",
		Short: "List all logged hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ListHours(cmd.Context())
		},
	}

	var date, hours, notes string
	editCmd := &cobra.Command{
		Use:   "edit [entry id]",
		Short: "Edit a logged entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}

			var in EditInput
			if cmd.Flags().Changed("date") {
				in.Date = &date
			}
			if cmd.Flags().Changed("hours") {
				in.Hours = &hours
			}
			if cmd.Flags().Changed("notes") {
				in.Notes = &notes
			}
			return a.EditEntry(cmd.Context(), id, in)
		},
	}
	editCmd.Flags().StringVarP(&date, "date", "d", "", "new date as YYYY-MM-DD")
	editCmd.Flags().StringVarP(&hours, "hours", "H", "", "new hours")
	editCmd.Flags().StringVarP(&notes, "notes", "n", "", "new notes")

	var yes bool
	deleteCmd := &cobra.Command{
		Use:   "delete [entry id]",
		Short: "Delete a logged entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			return a.DeleteEntry(cmd.Context(), id, yes)
		},
	}
	deleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	hoursCmd.AddCommand(editCmd)
	hoursCmd.AddCommand(deleteCmd)

	// command for a single volunteer's history
	statsCmd := &cobra.Command{
		Use:               "stats [volunteer id]",
		Short:             "Show a volunteer's total and history",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeVolunteers,
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			if len(args) > 0 {
				id = args[0]
			}
			return a.Stats(cmd.Context(), id)
		},
	}

	volunteersCmd := &cobra.Command{
		Use:   "volunteers",
		Short: "List registered volunteers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Volunteers(cmd.Context())
		},
	}

	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the volunteer rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Rules(cmd.Context())
		},
	}

	var page, watch bool
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check backend health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Health(cmd.Context(), page, watch)
		},
	}
	healthCmd.Flags().BoolVarP(&page, "page", "p", false, "show the per service status page")
	healthCmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep polling until interrupted")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve backend status, rules and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Serve(cmd.Context())
		},
	}

	subscribeCmd := &cobra.Command{
		Use:   "subscribe [email]",
		Short: "Subscribe to the parish mailing list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var email string
			if len(args) > 0 {
				email = args[0]
			}
			return a.Subscribe(cmd.Context(), email)
		},
	}

	// add commands
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(hoursCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(volunteersCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(subscribeCmd)

	return rootCmd
}

func parseEntryID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", s)
	}
	return id, nil
}
