package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vvatanabe/scm"
)

func (f CommandFactory) createLoginCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "login",
		Short: "Log in with a role",
		Long:  `Log in with a role. There is no password; the user is remembered in the session file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			role, err := scm.ParseHandlerRole(flgs.Role)
			if err != nil {
				return err
			}
			session, err := f.createSession(flgs)
			if err != nil {
				return err
			}
			u, err := session.Login(flgs.Name, flgs.Email, role)
			if err != nil {
				return err
			}
			printMessageWithData(cmd.OutOrStdout(), "", u)
			return nil
		},
	}
	stringFlag(c, &flgs.Role, flagMap.Role)
	stringFlag(c, &flgs.Name, flagMap.Name)
	stringFlag(c, &flgs.Email, flagMap.Email)
	return c
}

func (f CommandFactory) createLogoutCommand(flgs *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the logged-in user",
		Long:  `Forget the logged-in user.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := f.createSession(flgs)
			if err != nil {
				return err
			}
			if err := session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func (f CommandFactory) createWhoamiCommand(flgs *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Long:  `Show the logged-in user.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := f.createSession(flgs)
			if err != nil {
				return err
			}
			u, err := session.Current()
			if err != nil {
				return err
			}
			printMessageWithData(cmd.OutOrStdout(), "", u)
			return nil
		},
	}
}
