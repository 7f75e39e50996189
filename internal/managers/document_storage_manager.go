package managers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/flowbaker/filerelay/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// documentStorageManager keeps files as documents in a Telegram chat.
// The bot token is part of every file URL, so URLs are never logged.
type documentStorageManager struct {
	bot          *tgbotapi.BotAPI
	httpClient   *http.Client
	chatID       int64
	channelName  string
	fileEndpoint string
}

type DocumentStorageManagerDependencies struct {
	BotToken string
	// ChatID is a numeric chat id or a public channel name such as "@files".
	ChatID string

	APIEndpoint  string // Optional, defaults to tgbotapi.APIEndpoint
	FileEndpoint string // Optional, defaults to tgbotapi.FileEndpoint
	HTTPClient   *http.Client
}

// NewDocumentStorageManager connects to the Bot API and verifies the token.
func NewDocumentStorageManager(deps DocumentStorageManagerDependencies) (domain.DocumentStore, error) {
	if deps.BotToken == "" {
		return nil, fmt.Errorf("bot token is required for Telegram document storage")
	}

	chatID, channelName, err := parseChatID(deps.ChatID)
	if err != nil {
		return nil, err
	}

	apiEndpoint := deps.APIEndpoint
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}

	fileEndpoint := deps.FileEndpoint
	if fileEndpoint == "" {
		fileEndpoint = tgbotapi.FileEndpoint
	}

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(deps.BotToken, apiEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot client: %w", err)
	}

	log.Info().Str("bot", bot.Self.UserName).Msg("Telegram document storage ready")

	return &documentStorageManager{
		bot:          bot,
		httpClient:   httpClient,
		chatID:       chatID,
		channelName:  channelName,
		fileEndpoint: fileEndpoint,
	}, nil
}

func parseChatID(chatIDStr string) (int64, string, error) {
	chatIDStr = strings.TrimSpace(chatIDStr)

	if chatIDStr == "" {
		return 0, "", fmt.Errorf("chat_id is required for Telegram document storage")
	}

	if strings.HasPrefix(chatIDStr, "@") {
		return 0, chatIDStr, nil
	}

	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid chat_id: %w", err)
	}

	return chatID, "", nil
}

func (m *documentStorageManager) UploadDocument(ctx context.Context, params domain.UploadDocumentParams) (domain.UploadDocumentResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.UploadDocumentResult{}, err
	}

	documentConfig := tgbotapi.NewDocument(m.chatID, tgbotapi.FileBytes{
		Name:  params.FileName,
		Bytes: params.Content,
	})
	documentConfig.ChannelUsername = m.channelName

	sentMessage, err := m.bot.Send(documentConfig)
	if err != nil {
		return domain.UploadDocumentResult{}, fmt.Errorf("failed to send document: %w", err)
	}

	if sentMessage.Document == nil || sentMessage.Document.FileID == "" {
		return domain.UploadDocumentResult{}, fmt.Errorf("failed to send document: response carried no document")
	}

	return domain.UploadDocumentResult{
		FileID: sentMessage.Document.FileID,
	}, nil
}

func (m *documentStorageManager) ResolveFile(ctx context.Context, params domain.ResolveFileParams) (domain.ResolvedFile, error) {
	if err := ctx.Err(); err != nil {
		return domain.ResolvedFile{}, err
	}

	file, err := m.bot.GetFile(tgbotapi.FileConfig{FileID: params.FileID})
	if err != nil {
		if apiErr, ok := telegramAPIError(err); ok && isUnknownFile(apiErr) {
			return domain.ResolvedFile{}, fmt.Errorf("%w: %s", domain.ErrNotFound, apiErr.Message)
		}
		return domain.ResolvedFile{}, fmt.Errorf("failed to get file info: %w", err)
	}

	// Telegram omits file_path for files it will not serve (larger than 20 MB).
	if file.FilePath == "" {
		return domain.ResolvedFile{}, fmt.Errorf("%w: no file path returned", domain.ErrNotFound)
	}

	return domain.ResolvedFile{
		FileID:   params.FileID,
		FilePath: file.FilePath,
		URL:      fmt.Sprintf(m.fileEndpoint, m.bot.Token, file.FilePath),
	}, nil
}

func (m *documentStorageManager) OpenFile(ctx context.Context, file domain.ResolvedFile) (domain.OpenFileResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return domain.OpenFileResult{}, fmt.Errorf("failed to create file request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		// The error text embeds the URL, which embeds the token.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return domain.OpenFileResult{}, fmt.Errorf("failed to fetch file: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return domain.OpenFileResult{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return domain.OpenFileResult{
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}

func telegramAPIError(err error) (tgbotapi.Error, bool) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return *apiErr, true
	}

	var apiErrValue tgbotapi.Error
	if errors.As(err, &apiErrValue) {
		return apiErrValue, true
	}

	return tgbotapi.Error{}, false
}

// isUnknownFile reports whether getFile rejected the identifier itself.
// Throttling, auth and server errors are upstream failures, not missing files.
func isUnknownFile(apiErr tgbotapi.Error) bool {
	if apiErr.Code == http.StatusBadRequest {
		return true
	}

	message := strings.ToLower(apiErr.Message)
	return strings.Contains(message, "file_id") || strings.Contains(message, "file not found")
}
