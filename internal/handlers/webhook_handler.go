package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/chat"
	"github.com/ternarybob/colligo/internal/services/crawler"
)

// TelegramUpdate is the subset of the bot API update payload we consume.
type TelegramUpdate struct {
	UpdateID int64            `json:"update_id"`
	Message  *TelegramMessage `json:"message"`
}

type TelegramMessage struct {
	MessageID       int64            `json:"message_id"`
	Chat            TelegramChat     `json:"chat"`
	Text            string           `json:"text"`
	Caption         string           `json:"caption"`
	Entities        []TelegramEntity `json:"entities"`
	CaptionEntities []TelegramEntity `json:"caption_entities"`
}

type TelegramChat struct {
	ID int64 `json:"id"`
}

// TelegramEntity carries hyperlink markup. Plain "url" entities point into the
// message text and are picked up by the URL scan; "text_link" entities carry
// the target URL directly.
type TelegramEntity struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// WebhookHandler receives Telegram bot updates. Messages containing URLs kick
// off crawl jobs; everything else is answered through the chat service. The
// webhook acknowledges immediately and does its work in the background.
type WebhookHandler struct {
	chatService *chat.Service
	jobs        *crawler.JobManager
	config      common.TelegramConfig
	client      *http.Client
	logger      arbor.ILogger
}

func NewWebhookHandler(chatService *chat.Service, jobs *crawler.JobManager, config common.TelegramConfig, logger arbor.ILogger) *WebhookHandler {
	return &WebhookHandler{
		chatService: chatService,
		jobs:        jobs,
		config:      config,
		client:      &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

// WebhookHandler handles POST /api/webhook/telegram requests.
func (h *WebhookHandler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var update TelegramUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode Telegram update")
		WriteError(w, http.StatusBadRequest, "Invalid update payload")
		return
	}

	if update.Message != nil {
		go h.processMessage(update.Message)
	}

	// Telegram retries on anything but a prompt 2xx.
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *WebhookHandler) processMessage(msg *TelegramMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	content := msg.Text
	entities := msg.Entities
	if content == "" {
		content = msg.Caption
		entities = msg.CaptionEntities
	}
	if h.config.BotHandle != "" {
		content = strings.ReplaceAll(content, "@"+h.config.BotHandle, "")
	}
	content = strings.TrimSpace(content)

	urls := h.collectURLs(content, entities)
	if len(urls) > 0 {
		h.startCrawls(ctx, msg.Chat.ID, urls)
		return
	}

	if content == "" {
		return
	}

	answer, _, err := h.chatService.Ask(ctx, content, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to answer Telegram message")
		h.sendMessage(ctx, msg.Chat.ID, "Sorry, I could not process that message.")
		return
	}
	h.sendMessage(ctx, msg.Chat.ID, answer)
}

// collectURLs merges text_link targets with the URL scan over the message
// text and dedupes the result. Entity targets are passed through as known
// URLs so the free-text scan cannot mangle them.
func (h *WebhookHandler) collectURLs(content string, entities []TelegramEntity) []string {
	var known []string
	for _, entity := range entities {
		if entity.Type == "text_link" && entity.URL != "" {
			known = append(known, entity.URL)
		}
	}
	return common.ExtractURLs(content, known...)
}

func (h *WebhookHandler) startCrawls(ctx context.Context, chatID int64, urls []string) {
	started := 0
	for _, pageURL := range urls {
		normalized := common.NormalizeURL(pageURL)
		if !common.IsValidURL(normalized) {
			continue
		}
		// Crawl jobs outlive the webhook context.
		if _, err := h.jobs.StartJob(context.Background(), normalized, models.CrawlOptions{}); err != nil {
			h.logger.Warn().Err(err).Str("url", normalized).Msg("Failed to start crawl from Telegram message")
			continue
		}
		started++
	}

	if started == 0 {
		h.sendMessage(ctx, chatID, "No crawlable links found in that message.")
		return
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("Indexing %d link(s). Ask me about them once the crawl finishes.", started))
}

// sendMessage posts a reply through the bot API.
func (h *WebhookHandler) sendMessage(ctx context.Context, chatID int64, text string) {
	if h.config.BotToken == "" {
		h.logger.Debug().Msg("Telegram bot token not configured, dropping reply")
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode Telegram reply")
		return
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", h.config.APIBase, h.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build Telegram reply request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to send Telegram reply")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		h.logger.Warn().
			Int("status", resp.StatusCode).
			Int64("chat_id", chatID).
			Msg("Telegram reply rejected")
	}
}
