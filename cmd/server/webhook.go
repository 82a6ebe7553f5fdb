package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/catatkas/backend/internal/config"
	"github.com/catatkas/backend/internal/telegram"
)

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the bot's Telegram webhook registration",
	}

	var url string
	set := &cobra.Command{
		Use:   "set",
		Short: "Point Telegram at this server",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, bot, err := loadBot()
			if err != nil {
				return err
			}
			if url == "" {
				url = cfg.Telegram.WebhookURL
			}
			if url == "" {
				return errors.New("no webhook url: pass --url or set telegram.webhook_url")
			}
			if err := bot.SetWebhook(url, cfg.Telegram.WebhookSecret); err != nil {
				return err
			}
			slog.Info("Webhook registered", "url", url, "secret", cfg.Telegram.WebhookSecret != "")
			return nil
		},
	}
	set.Flags().StringVar(&url, "url", "", "public HTTPS url ending in "+webhookPath)
	cmd.AddCommand(set)

	var dropPending bool
	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook registration",
		RunE: func(_ *cobra.Command, _ []string) error {
			_, bot, err := loadBot()
			if err != nil {
				return err
			}
			if err := bot.DeleteWebhook(dropPending); err != nil {
				return err
			}
			slog.Info("Webhook deleted", "drop_pending", dropPending)
			return nil
		},
	}
	del.Flags().BoolVar(&dropPending, "drop-pending", false, "discard updates Telegram has queued")
	cmd.AddCommand(del)

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show the current webhook registration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, bot, err := loadBot()
			if err != nil {
				return err
			}
			info, err := bot.WebhookInfo()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "url:              %s\n", info.URL)
			fmt.Fprintf(out, "pending updates:  %d\n", info.PendingUpdateCount)
			if info.LastErrorMessage != "" {
				fmt.Fprintf(out, "last error:       %s\n", info.LastErrorMessage)
			}
			return nil
		},
	})

	return cmd
}

func loadBot() (*config.Config, *telegram.Bot, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Telegram.Token == "" {
		return nil, nil, errors.New("telegram.token is required")
	}
	bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.APIEndpoint, "", nil)
	if err != nil {
		return nil, nil, err
	}
	return cfg, bot, nil
}
