package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/nguyentantai21042004/transcript-flow/internal/logger"
)

type implClient struct {
	endpoint    string
	token       string
	pollTimeout int
	http        *http.Client
	logger      logger.Logger
}

// NewTelegram creates a Client backed by the Telegram Bot HTTP API
func NewTelegram(endpoint, token string, pollTimeout int, log logger.Logger) Client {
	return &implClient{
		endpoint:    endpoint,
		token:       token,
		pollTimeout: pollTimeout,
		http:        &http.Client{Timeout: time.Duration(pollTimeout+15) * time.Second},
		logger:      log,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

type apiUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		MessageID int `json:"message_id"`
		From      struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"from"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text  string `json:"text"`
		Voice *struct {
			FileID   string `json:"file_id"`
			Duration int    `json:"duration"`
		} `json:"voice"`
		VideoNote *struct {
			FileID   string `json:"file_id"`
			Duration int    `json:"duration"`
		} `json:"video_note"`
	} `json:"message"`
	CallbackQuery *struct {
		ID   string `json:"id"`
		From struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"from"`
		Message *struct {
			MessageID int `json:"message_id"`
			Chat      struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
		Data string `json:"data"`
	} `json:"callback_query"`
}

func (c *implClient) call(ctx context.Context, method string, params map[string]any, result any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.endpoint, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp.Body, method, result)
}

func decodeResponse(r io.Reader, method string, result any) error {
	var apiResp apiResponse
	if err := json.NewDecoder(r).Decode(&apiResp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}

	if !apiResp.OK {
		if apiResp.Parameters != nil && apiResp.Parameters.RetryAfter > 0 {
			return &RateLimitedError{RetryAfter: time.Duration(apiResp.Parameters.RetryAfter) * time.Second}
		}
		return fmt.Errorf("%s: %s", method, apiResp.Description)
	}

	if result != nil {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// Updates long-polls getUpdates and forwards voice, video-note, text and
// callback events. The channel closes when ctx is cancelled.
func (c *implClient) Updates(ctx context.Context) <-chan Update {
	out := make(chan Update)

	go func() {
		defer close(out)

		offset := 0
		for {
			if ctx.Err() != nil {
				return
			}

			var raw []apiUpdate
			err := c.call(ctx, "getUpdates", map[string]any{
				"offset":          offset,
				"timeout":         c.pollTimeout,
				"allowed_updates": []string{"message", "callback_query"},
			}, &raw)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Warn(ctx, "getUpdates failed: %v", err)
				time.Sleep(3 * time.Second)
				continue
			}

			for _, u := range raw {
				offset = u.UpdateID + 1

				upd, ok := convertUpdate(u)
				if !ok {
					continue
				}
				select {
				case out <- upd:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

func convertUpdate(u apiUpdate) (Update, bool) {
	if u.Message != nil {
		msg := &Message{
			ChatID:    u.Message.Chat.ID,
			MessageID: u.Message.MessageID,
			From:      User{ID: u.Message.From.ID, Username: u.Message.From.Username},
			Text:      u.Message.Text,
		}
		if u.Message.Voice != nil {
			msg.Voice = &Attachment{
				FileID:   u.Message.Voice.FileID,
				Duration: time.Duration(u.Message.Voice.Duration) * time.Second,
			}
		}
		if u.Message.VideoNote != nil {
			msg.VideoNote = &Attachment{
				FileID:   u.Message.VideoNote.FileID,
				Duration: time.Duration(u.Message.VideoNote.Duration) * time.Second,
			}
		}
		return Update{Message: msg}, true
	}

	if u.CallbackQuery != nil && u.CallbackQuery.Message != nil {
		return Update{Callback: &CallbackQuery{
			ID:   u.CallbackQuery.ID,
			From: User{ID: u.CallbackQuery.From.ID, Username: u.CallbackQuery.From.Username},
			Message: MessageRef{
				ChatID:    u.CallbackQuery.Message.Chat.ID,
				MessageID: u.CallbackQuery.Message.MessageID,
			},
			Data: u.CallbackQuery.Data,
		}}, true
	}

	return Update{}, false
}

func (c *implClient) SendMessage(ctx context.Context, chatID int64, text string, kb *Keyboard) (MessageRef, error) {
	params := map[string]any{
		"chat_id":              chatID,
		"text":                 text,
		"disable_notification": true,
	}
	if kb != nil {
		params["reply_markup"] = markupFor(kb)
	}

	var sent struct {
		MessageID int `json:"message_id"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	}
	if err := c.call(ctx, "sendMessage", params, &sent); err != nil {
		return MessageRef{}, err
	}
	return MessageRef{ChatID: sent.Chat.ID, MessageID: sent.MessageID}, nil
}

func (c *implClient) EditMessageText(ctx context.Context, ref MessageRef, text string, kb *Keyboard) error {
	params := map[string]any{
		"chat_id":    ref.ChatID,
		"message_id": ref.MessageID,
		"text":       text,
	}
	if kb != nil {
		params["reply_markup"] = markupFor(kb)
	}
	return c.call(ctx, "editMessageText", params, nil)
}

func (c *implClient) DeleteMessage(ctx context.Context, ref MessageRef) error {
	return c.call(ctx, "deleteMessage", map[string]any{
		"chat_id":    ref.ChatID,
		"message_id": ref.MessageID,
	}, nil)
}

func (c *implClient) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackID,
	}, nil)
}

func (c *implClient) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) (MessageRef, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return MessageRef{}, fmt.Errorf("write chat_id field: %w", err)
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return MessageRef{}, fmt.Errorf("write caption field: %w", err)
		}
	}
	part, err := w.CreateFormFile("document", filename)
	if err != nil {
		return MessageRef{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return MessageRef{}, fmt.Errorf("write document: %w", err)
	}
	if err := w.Close(); err != nil {
		return MessageRef{}, fmt.Errorf("close multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendDocument", c.endpoint, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return MessageRef{}, fmt.Errorf("build sendDocument request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return MessageRef{}, fmt.Errorf("sendDocument: %w", err)
	}
	defer resp.Body.Close()

	var sent struct {
		MessageID int `json:"message_id"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	}
	if err := decodeResponse(resp.Body, "sendDocument", &sent); err != nil {
		return MessageRef{}, err
	}
	return MessageRef{ChatID: sent.Chat.ID, MessageID: sent.MessageID}, nil
}

func (c *implClient) DownloadFile(ctx context.Context, fileID, destDir string) (string, error) {
	var file struct {
		FilePath string `json:"file_path"`
	}
	if err := c.call(ctx, "getFile", map[string]any{"file_id": fileID}, &file); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/file/bot%s/%s", c.endpoint, c.token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	dest := filepath.Join(destDir, filepath.Base(file.FilePath))
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create download target: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("write download target: %w", err)
	}

	return dest, nil
}

func markupFor(kb *Keyboard) map[string]any {
	rows := make([][]map[string]string, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]map[string]string, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, map[string]string{
				"text":          b.Text,
				"callback_data": b.Data,
			})
		}
		rows = append(rows, buttons)
	}
	return map[string]any{"inline_keyboard": rows}
}
