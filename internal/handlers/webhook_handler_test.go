package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/chat"
	"github.com/ternarybob/colligo/internal/services/crawler"
)

// telegramStub captures sendMessage calls made by the webhook handler.
type telegramStub struct {
	server  *httptest.Server
	replies chan string
}

func newTelegramStub(t *testing.T) *telegramStub {
	t.Helper()

	stub := &telegramStub{replies: make(chan string, 10)}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			http.NotFound(w, r)
			return
		}
		var payload struct {
			ChatID int64  `json:"chat_id"`
			Text   string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			stub.replies <- payload.Text
		}
		WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *telegramStub) waitForReply(t *testing.T) string {
	t.Helper()
	select {
	case reply := <-s.replies:
		return reply
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for Telegram reply")
		return ""
	}
}

func newWebhookHandler(t *testing.T, stub *telegramStub, fetcher *mockFetcher, llm *mockLLM) (*WebhookHandler, *crawler.JobManager) {
	t.Helper()
	logger := common.GetLogger()

	chatService := chat.NewService(common.ChatConfig{MaxDocuments: 5, MinSimilarity: 0.3}, llm, &mockEmbedder{}, newMockStore(), logger)
	crawlerService := crawler.NewService(common.CrawlerConfig{
		MaxDepth:       1,
		MaxPages:       5,
		MaxConcurrency: 1,
	}, fetcher, noopKnowledge{}, logger)
	jobs := crawler.NewJobManager(crawlerService, logger)

	handler := NewWebhookHandler(chatService, jobs, common.TelegramConfig{
		BotToken:  "test-token",
		BotHandle: "colligo_bot",
		APIBase:   stub.server.URL,
	}, logger)
	return handler, jobs
}

func postUpdate(t *testing.T, handler *WebhookHandler, update TelegramUpdate) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(update)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/telegram", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.WebhookHandler(rec, req)
	return rec
}

func TestWebhookHandler_MessageWithURLStartsCrawl(t *testing.T) {
	stub := newTelegramStub(t)
	handler, jobs := newWebhookHandler(t, stub, &mockFetcher{pages: map[string]string{
		"https://example.com": "page content",
	}}, &mockLLM{})

	rec := postUpdate(t, handler, TelegramUpdate{Message: &TelegramMessage{
		Chat: TelegramChat{ID: 42},
		Text: "index this please https://example.com",
	}})
	require.Equal(t, http.StatusOK, rec.Code)

	reply := stub.waitForReply(t)
	assert.Contains(t, reply, "Indexing 1 link")

	require.Eventually(t, func() bool {
		all := jobs.ListJobs()
		return len(all) == 1 && all[0].Status == models.CrawlJobCompleted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWebhookHandler_TextLinkEntity(t *testing.T) {
	stub := newTelegramStub(t)
	handler, jobs := newWebhookHandler(t, stub, &mockFetcher{pages: map[string]string{
		"https://example.com/docs": "docs",
	}}, &mockLLM{})

	rec := postUpdate(t, handler, TelegramUpdate{Message: &TelegramMessage{
		Chat:     TelegramChat{ID: 42},
		Text:     "have a look at this",
		Entities: []TelegramEntity{{Type: "text_link", URL: "https://example.com/docs"}},
	}})
	require.Equal(t, http.StatusOK, rec.Code)

	reply := stub.waitForReply(t)
	assert.Contains(t, reply, "Indexing 1 link")

	require.Eventually(t, func() bool {
		return len(jobs.ListJobs()) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWebhookHandler_TextLinkEntityWithQuote(t *testing.T) {
	// A quote is legal in a URL path; the entity target must reach the
	// crawler intact rather than being cut by the free-text URL scan.
	stub := newTelegramStub(t)
	handler, jobs := newWebhookHandler(t, stub, &mockFetcher{pages: map[string]string{
		"https://example.com/it%27s-here": "quoted page",
	}}, &mockLLM{})

	rec := postUpdate(t, handler, TelegramUpdate{Message: &TelegramMessage{
		Chat:     TelegramChat{ID: 42},
		Text:     "this one",
		Entities: []TelegramEntity{{Type: "text_link", URL: "https://example.com/it's-here"}},
	}})
	require.Equal(t, http.StatusOK, rec.Code)

	reply := stub.waitForReply(t)
	assert.Contains(t, reply, "Indexing 1 link")

	require.Eventually(t, func() bool {
		all := jobs.ListJobs()
		return len(all) == 1 && all[0].StartURL == "https://example.com/it%27s-here"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWebhookHandler_QuestionAnsweredViaChat(t *testing.T) {
	stub := newTelegramStub(t)
	handler, _ := newWebhookHandler(t, stub, &mockFetcher{}, &mockLLM{response: "the answer"})

	rec := postUpdate(t, handler, TelegramUpdate{Message: &TelegramMessage{
		Chat: TelegramChat{ID: 42},
		Text: "@colligo_bot what do you know?",
	}})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "the answer", stub.waitForReply(t))
}

func TestWebhookHandler_InvalidPayload(t *testing.T) {
	stub := newTelegramStub(t)
	handler, _ := newWebhookHandler(t, stub, &mockFetcher{}, &mockLLM{})

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/telegram", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	handler.WebhookHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_EmptyUpdateIgnored(t *testing.T) {
	stub := newTelegramStub(t)
	handler, _ := newWebhookHandler(t, stub, &mockFetcher{}, &mockLLM{})

	rec := postUpdate(t, handler, TelegramUpdate{UpdateID: 7})
	assert.Equal(t, http.StatusOK, rec.Code)
}
