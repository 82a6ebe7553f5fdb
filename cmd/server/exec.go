package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func execCmd() *cobra.Command {
	var chatID string

	cmd := &cobra.Command{
		Use:   "exec COMMAND [ARGS...]",
		Short: "Run one bot command against the ledger and print the reply",
		Example: `  catatkas exec --chat 12345 /keluar 50000 MAKAN siang
  catatkas exec --chat 12345 /list`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			line := strings.Join(args, " ")
			if !strings.HasPrefix(line, "/") {
				line = "/" + line
			}

			reply, err := a.dispatcher.Dispatch(ctx, chatID, line)
			if err != nil {
				return err
			}
			if !reply.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&chatID, "chat", "", "Telegram chat id whose ledger to use")
	_ = cmd.MarkFlagRequired("chat")
	return cmd
}
