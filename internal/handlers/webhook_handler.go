package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/catatkas/backend/internal/services"
	"github.com/catatkas/backend/internal/telegram"
)

const (
	voiceTooLongText    = "Pesan suara terlalu panjang. Maksimal 60 detik."
	voiceUnreadableText = "Maaf, pesan suara tidak dapat dikenali. Silakan coba lagi atau ketik perintahnya."
	voiceNoCommandText  = "Perintah suara tidak dikenali. Awali dengan nama perintah, misalnya \"keluar 50000 makan\"."
)

// WebhookHandler receives Telegram updates. It always acknowledges with
// 200 OK so Telegram never redelivers; failures are logged instead.
type WebhookHandler struct {
	dispatcher  *services.Dispatcher
	messenger   telegram.Messenger
	transcriber services.Transcriber
}

// NewWebhookHandler wires the handler. A nil transcriber ignores voice notes.
func NewWebhookHandler(dispatcher *services.Dispatcher, messenger telegram.Messenger, transcriber services.Transcriber) *WebhookHandler {
	return &WebhookHandler{
		dispatcher:  dispatcher,
		messenger:   messenger,
		transcriber: transcriber,
	}
}

func (h *WebhookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	defer writeJSON(w, http.StatusOK, map[string]bool{"ok": true})

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		slog.WarnContext(r.Context(), "Failed to decode update", "error", err)
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	ctx := r.Context()
	chatID := msg.Chat.ID

	text := msg.Text
	if text == "" && msg.Voice != nil {
		var fallback services.Reply
		text, fallback = h.voiceText(ctx, chatID, msg.Voice)
		if !fallback.Empty() {
			h.send(ctx, chatID, fallback)
			return
		}
	}
	if text == "" {
		return
	}

	reply, err := h.dispatcher.Dispatch(ctx, strconv.FormatInt(chatID, 10), text)
	if err != nil {
		slog.ErrorContext(ctx, "Command failed", "chat_id", chatID, "update_id", update.UpdateID, "error", err)
		return
	}
	if reply.Empty() {
		return
	}
	h.send(ctx, chatID, reply)
}

// voiceText transcribes a voice note into a command line. When no command
// can be derived it returns a reply to send instead.
func (h *WebhookHandler) voiceText(ctx context.Context, chatID int64, voice *tgbotapi.Voice) (string, services.Reply) {
	if h.transcriber == nil {
		return "", services.Reply{}
	}
	if time.Duration(voice.Duration)*time.Second > services.MaxVoiceDuration {
		return "", services.Reply{Text: voiceTooLongText}
	}

	audio, err := h.messenger.DownloadFile(ctx, voice.FileID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to download voice note", "chat_id", chatID, "error", err)
		return "", services.Reply{Text: voiceUnreadableText}
	}

	transcript, err := h.transcriber.Transcribe(ctx, audio)
	if err != nil {
		slog.WarnContext(ctx, "Voice transcription failed", "chat_id", chatID, "error", err)
		return "", services.Reply{Text: voiceUnreadableText}
	}

	line, ok := services.VoiceCommandLine(transcript)
	if !ok {
		slog.InfoContext(ctx, "Voice note is not a command", "chat_id", chatID, "transcript", transcript)
		return "", services.Reply{Text: voiceNoCommandText}
	}
	slog.InfoContext(ctx, "Voice command transcribed", "chat_id", chatID, "command", line)
	return line, services.Reply{}
}

func (h *WebhookHandler) send(ctx context.Context, chatID int64, reply services.Reply) {
	if err := h.messenger.SendMessage(ctx, chatID, reply.Text, reply.ParseMode); err != nil {
		slog.ErrorContext(ctx, "Failed to deliver reply", "chat_id", chatID, "error", err)
	}
}
