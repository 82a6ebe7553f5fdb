package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "123:abc"

// fakeAPI answers Bot API methods and records the form of every call.
type fakeAPI struct {
	mu     sync.Mutex
	calls  map[string][]map[string]string
	answer map[string]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls: map[string][]map[string]string{},
		answer: map[string]string{
			"getMe":         `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Catat Kas","username":"catatkas_bot"}}`,
			"sendMessage":   `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`,
			"getFile":       `{"ok":true,"result":{"file_id":"voice-1","file_unique_id":"u1","file_path":"voice/file_1.oga"}}`,
			"setWebhook":    `{"ok":true,"result":true,"description":"Webhook was set"}`,
			"deleteWebhook": `{"ok":true,"result":true}`,
		},
	}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/file/bot"+testToken+"/") {
		w.Write([]byte("OggS-voice-bytes"))
		return
	}

	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	_ = r.ParseForm()
	form := map[string]string{}
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}

	f.mu.Lock()
	f.calls[method] = append(f.calls[method], form)
	body, ok := f.answer[method]
	f.mu.Unlock()

	if !ok {
		body = `{"ok":false,"error_code":404,"description":"Not Found"}`
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func (f *fakeAPI) callsTo(method string) []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func newTestBot(t *testing.T, api *fakeAPI) *Bot {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	bot, err := NewBot(testToken, srv.URL+"/bot%s/%s", srv.URL+"/file/bot%s/%s", srv.Client())
	require.NoError(t, err)
	return bot
}

func TestNewBot(t *testing.T) {
	bot := newTestBot(t, newFakeAPI())
	assert.Equal(t, "catatkas_bot", bot.Username())

	_, err := NewBot("", "http://unused/bot%s/%s", "", nil)
	assert.Error(t, err)
}

func TestBot_SendMessage(t *testing.T) {
	api := newFakeAPI()
	bot := newTestBot(t, api)

	err := bot.SendMessage(context.Background(), 42, "*halo*", "Markdown")
	require.NoError(t, err)

	calls := api.callsTo("sendMessage")
	require.Len(t, calls, 1)
	assert.Equal(t, "42", calls[0]["chat_id"])
	assert.Equal(t, "*halo*", calls[0]["text"])
	assert.Equal(t, "Markdown", calls[0]["parse_mode"])
}

func TestBot_SendMessage_FallsBackToPlainText(t *testing.T) {
	api := newFakeAPI()
	bot := newTestBot(t, api)
	api.mu.Lock()
	api.answer["sendMessage"] = `{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities: Can't find end of the entity"}`
	api.mu.Unlock()

	err := bot.SendMessage(context.Background(), 42, "*broken", "Markdown")
	assert.Error(t, err)

	calls := api.callsTo("sendMessage")
	require.Len(t, calls, 2)
	assert.Equal(t, "Markdown", calls[0]["parse_mode"])
	assert.Empty(t, calls[1]["parse_mode"])
}

func TestBot_DownloadFile(t *testing.T) {
	api := newFakeAPI()
	bot := newTestBot(t, api)

	data, err := bot.DownloadFile(context.Background(), "voice-1")
	require.NoError(t, err)
	assert.Equal(t, "OggS-voice-bytes", string(data))
	assert.Equal(t, "voice-1", api.callsTo("getFile")[0]["file_id"])
}

func TestBot_Webhook(t *testing.T) {
	api := newFakeAPI()
	bot := newTestBot(t, api)

	require.NoError(t, bot.SetWebhook("https://example.com/webhook/telegram", "s3cret"))
	calls := api.callsTo("setWebhook")
	require.Len(t, calls, 1)
	assert.Equal(t, "https://example.com/webhook/telegram", calls[0]["url"])
	assert.Equal(t, "s3cret", calls[0]["secret_token"])

	require.NoError(t, bot.DeleteWebhook(true))
	assert.Equal(t, "true", api.callsTo("deleteWebhook")[0]["drop_pending_updates"])
}
