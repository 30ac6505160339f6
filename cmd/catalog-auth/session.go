package main

import (
	"github.com/spf13/cobra"
)

func newRegisterCmd(a *app) *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a user and print a session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.close()

			svc, err := a.service(cmd.Context())
			if err != nil {
				printError(cmd.ErrOrStderr(), err)
				return err
			}

			res, err := svc.Register(cmd.Context(), email, password, name)
			if err != nil {
				printError(cmd.ErrOrStderr(), err)
				return err
			}

			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().StringVar(&name, "name", "", "display name")

	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials and print a session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.close()

			svc, err := a.service(cmd.Context())
			if err != nil {
				printError(cmd.ErrOrStderr(), err)
				return err
			}

			res, err := svc.Authenticate(cmd.Context(), email, password)
			if err != nil {
				printError(cmd.ErrOrStderr(), err)
				return err
			}

			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")

	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Verify a session token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()

			svc, err := a.service(cmd.Context())
			if err != nil {
				printError(cmd.ErrOrStderr(), err)
				return err
			}

			claims, err := svc.VerifyToken(args[0])
			if err != nil {
				printError(cmd.ErrOrStderr(), err)
				return err
			}

			printResult(cmd.OutOrStdout(), claims)
			return nil
		},
	}
}
