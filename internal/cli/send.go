package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/retrend/chat/internal/api"
)

func newSendCmd() *cobra.Command {
	var conversationID string

	cmd := &cobra.Command{
		Use:   "send <recipient> <message...>",
		Short: "Send a single message without opening the conversation view",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			counterpart := args[0]
			body := strings.Join(args[1:], " ")
			if conversationID == "" {
				conversationID = counterpart
			}

			client, err := newClient(cfg)
			if err != nil {
				return err
			}

			err = client.SendMessage(cmd.Context(), body, conversationID, counterpart)
			switch {
			case err == nil:
				fmt.Fprintln(cmd.OutOrStdout(), "Sent.")
				return nil
			case errors.Is(err, api.ErrSendRejected):
				return fmt.Errorf("you cannot send a message to this user")
			case errors.Is(err, api.ErrUnauthorized):
				return fmt.Errorf("not logged in: run `chat login`")
			default:
				return fmt.Errorf("failed to send message: %w", err)
			}
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation id (defaults to the recipient)")
	return cmd
}
