// Package telegram wraps the Bot API calls the ledger bot needs.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	DefaultFileEndpoint = "https://api.telegram.org/file/bot%s/%s"

	// Bot API refuses downloads above 20 MB.
	maxFileSize = 20 << 20
)

// Messenger sends replies and fetches voice notes for a chat.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

type Bot struct {
	api          *tgbotapi.BotAPI
	httpClient   *http.Client
	fileEndpoint string
}

// NewBot authenticates against apiEndpoint (a "%s/%s" pattern taking the
// token and method) with getMe.
func NewBot(token, apiEndpoint, fileEndpoint string, client *http.Client) (*Bot, error) {
	if token == "" {
		return nil, errors.New("telegram token is not set")
	}
	if client == nil {
		client = http.DefaultClient
	}
	if fileEndpoint == "" {
		fileEndpoint = DefaultFileEndpoint
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}

	slog.Info("Telegram bot authorized", "username", api.Self.UserName)
	return &Bot{api: api, httpClient: client, fileEndpoint: fileEndpoint}, nil
}

func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// SendMessage delivers text. When Telegram rejects the markup the message is
// resent as plain text.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode

	_, err := b.api.Send(msg)
	if err != nil && parseMode != "" && isEntityParseError(err) {
		slog.WarnContext(ctx, "Reply markup rejected, resending as plain text", "chat_id", chatID, "error", err)
		msg.ParseMode = ""
		_, err = b.api.Send(msg)
	}
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func isEntityParseError(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "can't parse entities")
}

func (b *Bot) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(b.fileEndpoint, b.api.Token, file.FilePath), nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("download file: larger than %d bytes", maxFileSize)
	}
	return data, nil
}

// SetWebhook registers url with Telegram. A non-empty secret is echoed back by
// Telegram in the X-Telegram-Bot-Api-Secret-Token header of every update.
func (b *Bot) SetWebhook(url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)

	resp, err := b.api.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("set webhook: %s", resp.Description)
	}
	return nil
}

func (b *Bot) DeleteWebhook(dropPending bool) error {
	resp, err := b.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending})
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("delete webhook: %s", resp.Description)
	}
	return nil
}

func (b *Bot) WebhookInfo() (tgbotapi.WebhookInfo, error) {
	info, err := b.api.GetWebhookInfo()
	if err != nil {
		return tgbotapi.WebhookInfo{}, fmt.Errorf("get webhook info: %w", err)
	}
	return info, nil
}
