package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	var (
		email string
		name  string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account at the message store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if email == "" {
				email = cfg.Client.Email
			}
			if email == "" {
				email, err = promptLine(cmd, "Email: ")
				if err != nil {
					return err
				}
			}
			if name == "" {
				name, err = promptLine(cmd, "Display name: ")
				if err != nil {
					return err
				}
			}

			password, err := promptPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			confirm, err := promptPassword(cmd, "Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}

			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			if err := client.Register(cmd.Context(), email, name, password); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s. Run `chat login` to get a session.\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (default from config)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}
