package api

import (
	"errors"
	"time"

	models "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/models"
	domrepo "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/usecase"
	xhttp "github.com/adityamasineedi/mcpcrypto-sub001/pkg/http"
	xlogger "github.com/adityamasineedi/mcpcrypto-sub001/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ApprovalsEchoHandler exposes the approval workflow over REST.
type ApprovalsEchoHandler struct {
	logger   *xlogger.Logger
	workflow *usecase.ApprovalWorkflow
	settings *usecase.Settings
	events   *usecase.EventPipeline
	history  domrepo.HistoryStore
}

func NewApprovalsEchoHandler(
	logger *xlogger.Logger,
	workflow *usecase.ApprovalWorkflow,
	settings *usecase.Settings,
	events *usecase.EventPipeline,
	history domrepo.HistoryStore,
) *ApprovalsEchoHandler {
	return &ApprovalsEchoHandler{
		logger:   logger,
		workflow: workflow,
		settings: settings,
		events:   events,
		history:  history,
	}
}

func (h *ApprovalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/approvals")
	g.GET("/pending", h.Pending)
	g.GET("/status", h.Status)
	g.GET("/history", h.History)
	g.POST("/:id/approve", h.Approve)
	g.POST("/:id/reject", h.Reject)
	g.POST("/:id/delay", h.Delay)
	g.POST("/bulk", h.BulkApprove)
	g.POST("/emergency-stop", h.EmergencyStop)
	g.PUT("/settings", h.UpdateSettings)
}

func (h *ApprovalsEchoHandler) Pending(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.workflow.GetPendingApprovals())
}

func (h *ApprovalsEchoHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.workflow.GetQueueStatus())
}

func (h *ApprovalsEchoHandler) Approve(c echo.Context) error {
	req := &models.DecisionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	id := c.Param("id")
	if err := h.workflow.Approve(id, req.ActorID, req.Reason); err != nil {
		return h.workflowError(c, id, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"signalId": id, "status": "approved"})
}

func (h *ApprovalsEchoHandler) Reject(c echo.Context) error {
	req := &models.DecisionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	id := c.Param("id")
	if err := h.workflow.Reject(id, req.ActorID, req.Reason); err != nil {
		return h.workflowError(c, id, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"signalId": id, "status": "rejected"})
}

func (h *ApprovalsEchoHandler) Delay(c echo.Context) error {
	req := &models.DelayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	id := c.Param("id")
	d := time.Duration(req.Minutes) * time.Minute
	if err := h.workflow.Delay(id, d, req.ActorID); err != nil {
		return h.workflowError(c, id, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"signalId": id, "status": "delayed", "minutes": req.Minutes})
}

func (h *ApprovalsEchoHandler) BulkApprove(c echo.Context) error {
	req := &models.BulkApproveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	criteria := models.BulkCriteria{MinConfidence: req.MinConfidence}
	for _, d := range req.Directions {
		criteria.Directions = append(criteria.Directions, models.Direction(d))
	}
	for _, t := range req.RiskTiers {
		criteria.RiskTiers = append(criteria.RiskTiers, models.RiskTier(t))
	}

	results := h.workflow.BulkApprove(criteria, "dashboard")
	return xhttp.SuccessResponse(c, results)
}

func (h *ApprovalsEchoHandler) EmergencyStop(c echo.Context) error {
	req := &models.EmergencyStopRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	results := h.workflow.EmergencyRejectAll(req.Reason, "dashboard")
	return xhttp.SuccessResponse(c, results)
}

func (h *ApprovalsEchoHandler) UpdateSettings(c echo.Context) error {
	req := &models.SettingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	applied, err := h.settings.Apply(req.Settings)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	ev := models.NewEvent(models.EventSettingsUpdated)
	ev.Settings = applied
	h.events.Publish(ev)

	return xhttp.SuccessResponse(c, applied)
}

func (h *ApprovalsEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.history == nil {
		return xhttp.SuccessResponse(c, []*models.SignalRecord{})
	}

	to := time.Now()
	from := to.AddDate(0, 0, -7)
	if req.From != "" {
		t, ok := xhttp.ParseTime(req.From)
		if !ok {
			return xhttp.BadRequestResponse(c, "from: expected RFC3339 or unix timestamp")
		}
		from = t
	}
	if req.To != "" {
		t, ok := xhttp.ParseTime(req.To)
		if !ok {
			return xhttp.BadRequestResponse(c, "to: expected RFC3339 or unix timestamp")
		}
		to = t
	}

	records, err := h.history.QuerySignals(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		h.logger.Error("history query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, records)
}

func (h *ApprovalsEchoHandler) workflowError(c echo.Context, id string, err error) error {
	if errors.Is(err, usecase.ErrNotPending) {
		return xhttp.NotFoundResponse(c, map[string]string{"signalId": id, "error": "signal is not pending"})
	}
	h.logger.Error("workflow operation error", xlogger.String("signal_id", id), xlogger.Error(err))
	return xhttp.BadRequestResponse(c, err.Error())
}
