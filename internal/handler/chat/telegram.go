package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/service/telegram"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/usecase"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/config"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/logger"
)

const defaultDelay = 30 * time.Minute

// TelegramPoller long-polls the bot for callback queries and maps
// button presses onto approval workflow operations.
type TelegramPoller struct {
	client      *telegram.Client
	workflow    *usecase.ApprovalWorkflow
	log         *logger.Logger
	pollTimeout time.Duration
	offset      int64
}

func NewTelegramPoller(cfg *config.Config, client *telegram.Client, workflow *usecase.ApprovalWorkflow, log *logger.Logger) *TelegramPoller {
	return &TelegramPoller{
		client:      client,
		workflow:    workflow,
		log:         log,
		pollTimeout: cfg.Telegram.PollTimeout,
	}
}

// Run polls until ctx is cancelled.
func (p *TelegramPoller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.log.Info("telegram poller stopped")
			return
		default:
		}

		updates, err := p.client.GetUpdates(ctx, p.offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Warn("telegram poll failed", logger.Error(err))
			time.Sleep(5 * time.Second)
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= p.offset {
				p.offset = u.UpdateID + 1
			}
			if u.Callback == nil {
				continue
			}
			reply := p.handleCallback(ctx, u.Callback.Data, u.Callback.From.Username)
			if err := p.client.AnswerCallback(ctx, u.Callback.ID, reply); err != nil {
				p.log.Warn("answer callback failed", logger.Error(err))
			}
		}
	}
}

// handleCallback parses "action|signalId" from a button press.
func (p *TelegramPoller) handleCallback(ctx context.Context, data, username string) string {
	action, id, ok := strings.Cut(data, "|")
	if !ok || id == "" {
		return "malformed action"
	}
	actor := "telegram:" + username

	switch action {
	case "execute":
		err := p.workflow.Approve(id, actor, "approved via telegram")
		return verdict(err, "Signal approved")
	case "reject":
		err := p.workflow.Reject(id, actor, "rejected via telegram")
		return verdict(err, "Signal rejected")
	case "delay":
		err := p.workflow.Delay(id, defaultDelay, actor)
		return verdict(err, "Signal delayed 30m")
	case "details":
		sig, found := p.workflow.GetPendingSignal(id)
		if !found {
			return "signal no longer pending"
		}
		return fmt.Sprintf("%s %s conf %.1f%% entry %.4f", sig.Direction, sig.Symbol, sig.FinalConfidence, sig.EntryPrice)
	}
	return "unknown action"
}

func verdict(err error, ok string) string {
	if err == nil {
		return ok
	}
	if errors.Is(err, usecase.ErrNotPending) {
		return "signal no longer pending"
	}
	return "operation failed"
}
