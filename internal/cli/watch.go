package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retrend/chat/internal/poll"
	"github.com/retrend/chat/internal/tui"
)

func newWatchCmd() *cobra.Command {
	var conversationID string

	cmd := &cobra.Command{
		Use:   "watch <counterpart>",
		Short: "Open a conversation and keep it in sync",
		Long: "watch opens the conversation view for one counterpart. New messages " +
			"are polled in while the window has focus, inbound messages are marked " +
			"read, and the view follows the newest message unless you scroll up.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			self, err := requireIdentity(cfg)
			if err != nil {
				return err
			}

			counterpart := args[0]
			if conversationID == "" {
				conversationID = counterpart
			}

			if _, err := readToken(cfg); err != nil {
				return fmt.Errorf("not logged in: run `chat login`")
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}

			return tui.Run(cmd.Context(), tui.RunConfig{
				Binding: poll.Binding{
					ConversationID: conversationID,
					Counterpart:    counterpart,
					Self:           self,
				},
				Fetcher:      client,
				Marker:       client,
				Sender:       client,
				PollInterval: poll.Config{Interval: cfg.Client.PollInterval},
				NearBottom:   cfg.Client.NearBottomLines,
			})
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation id (defaults to the counterpart)")
	return cmd
}
