package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/config"
	xhttp "github.com/adityamasineedi/mcpcrypto-sub001/pkg/http"
)

// Client is a thin Telegram Bot API client covering what the approval
// flow needs: outbound messages with inline keyboards, long-poll
// updates and callback acknowledgements.
type Client struct {
	baseURL string
	token   string
	chatID  string
	client  *xhttp.Client
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.Telegram.PollTimeout + 10*time.Second
	return &Client{
		baseURL: cfg.Telegram.APIURL,
		token:   cfg.Telegram.BotToken,
		chatID:  cfg.Telegram.ChatID,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// InlineButton is one button of an inline keyboard row.
type InlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage posts a MarkdownV2-free text message to the configured
// chat, optionally with an inline keyboard.
func (c *Client) SendMessage(ctx context.Context, text string, keyboard [][]InlineButton) error {
	body := map[string]interface{}{
		"chat_id": c.chatID,
		"text":    text,
	}
	if len(keyboard) > 0 {
		body["reply_markup"] = map[string]interface{}{"inline_keyboard": keyboard}
	}

	var resp apiResponse
	if err := c.call(ctx, "sendMessage", body, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("sendMessage: %s", resp.Description)
	}
	return nil
}

// Update is one long-poll update; only callback queries are used.
type Update struct {
	UpdateID int64 `json:"update_id"`
	Callback *struct {
		ID   string `json:"id"`
		From struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"from"`
		Data string `json:"data"`
	} `json:"callback_query"`
}

type updatesResponse struct {
	OK     bool     `json:"ok"`
	Result []Update `json:"result"`
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	var resp updatesResponse
	err := c.call(ctx, "getUpdates", map[string]interface{}{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"callback_query"},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("getUpdates failed")
	}
	return resp.Result, nil
}

// AnswerCallback acknowledges a callback query so the client stops the
// button spinner.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	var resp apiResponse
	return c.call(ctx, "answerCallbackQuery", map[string]interface{}{
		"callback_query_id": callbackID,
		"text":              text,
	}, &resp)
}

func (c *Client) call(ctx context.Context, method string, body, dest interface{}) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     url,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	}, dest)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	return nil
}
