package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/logger"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/queue"
)

// NotifyJob renders workflow events into chat messages. Pending
// approvals carry an inline keyboard wired back through the callback
// poller.
type NotifyJob struct {
	client  *Client
	msgType string
	log     *logger.Logger
}

func NewNotifyJob(client *Client, msgType string, log *logger.Logger) *NotifyJob {
	return &NotifyJob{client: client, msgType: msgType, log: log}
}

func (j *NotifyJob) Name() string { return "telegram-notify" }
func (j *NotifyJob) Type() string { return j.msgType }

func (j *NotifyJob) Handle(ctx context.Context, payload interface{}) error {
	e, err := queue.ParsePayload[models.Event](payload)
	if err != nil {
		return fmt.Errorf("parse event: %w", err)
	}

	text, keyboard := render(e)
	if text == "" {
		return nil
	}
	return j.client.SendMessage(ctx, text, keyboard)
}

func render(e *models.Event) (string, [][]InlineButton) {
	switch e.Type {
	case models.EventApprovalRequested:
		if e.Signal == nil {
			return "", nil
		}
		return renderPending(e.Signal), pendingKeyboard(e.Signal.ID)
	case models.EventSignalApproved:
		return renderResolved("APPROVED", e), nil
	case models.EventSignalRejected:
		return renderResolved("REJECTED", e), nil
	case models.EventSignalTimeout:
		return renderResolved("TIMED OUT", e), nil
	case models.EventSignalDelayed:
		if e.Signal == nil || e.Delay == nil {
			return "", nil
		}
		return fmt.Sprintf("Signal %s delayed by %d minutes", e.Signal.ID, e.Delay.Minutes), nil
	case models.EventEmergencyStop:
		if e.Stop == nil {
			return "", nil
		}
		return fmt.Sprintf("EMERGENCY STOP\nRejected %d pending signals\nReason: %s", e.Stop.Count, e.Stop.Reason), nil
	case models.EventSettingsUpdated:
		var parts []string
		for k, v := range e.Settings {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
		return "Settings updated: " + strings.Join(parts, ", "), nil
	}
	return "", nil
}

func renderPending(s *models.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New %s signal: %s %s\n", s.Strength, s.Direction, s.Symbol)
	fmt.Fprintf(&b, "Confidence: %.1f%%\n", s.FinalConfidence)
	fmt.Fprintf(&b, "Entry: %.4f  SL: %.4f  TP: %.4f\n", s.EntryPrice, s.StopLoss, s.TakeProfit)
	fmt.Fprintf(&b, "Size: %.2f  R/R: %.2f  Risk: %s\n", s.PositionSize, s.RiskRewardRatio, s.RiskTier)
	if s.Reasoning != "" {
		fmt.Fprintf(&b, "%s\n", s.Reasoning)
	}
	fmt.Fprintf(&b, "ID: %s", s.ID)
	return b.String()
}

func renderResolved(verdict string, e *models.Event) string {
	if e.Signal == nil {
		return ""
	}
	text := fmt.Sprintf("Signal %s %s", e.Signal.ID, verdict)
	if e.Outcome != nil && e.Outcome.Reason != "" {
		text += "\nReason: " + e.Outcome.Reason
	}
	return text
}

func pendingKeyboard(id string) [][]InlineButton {
	return [][]InlineButton{
		{
			{Text: "Execute", CallbackData: "execute|" + id},
			{Text: "Reject", CallbackData: "reject|" + id},
		},
		{
			{Text: "Delay 30m", CallbackData: "delay|" + id},
			{Text: "Details", CallbackData: "details|" + id},
		},
	}
}

var _ queue.Job = (*NotifyJob)(nil)
