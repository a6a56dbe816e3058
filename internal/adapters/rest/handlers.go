package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/domain"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
	usecases_port "github.com/DaniilsFirgers/dzivoklitis/internal/core/port/usecases"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/usecase"
)

const maxRequestBody = 1 << 16

type OpsHandlers struct {
	// контекст приложения для фоновых циклов обхода
	appCtx        context.Context
	orchestrateUC usecases_port.OrchestrateCrawlPort
	lastRunsUC    usecases_port.LastCrawlRunsPort
	notifications port.NotificationQueuePort
}

func NewOpsHandlers(
	appCtx context.Context,
	orchestrateUC usecases_port.OrchestrateCrawlPort,
	lastRunsUC usecases_port.LastCrawlRunsPort,
	notifications port.NotificationQueuePort,
) *OpsHandlers {
	return &OpsHandlers{
		appCtx:        appCtx,
		orchestrateUC: orchestrateUC,
		lastRunsUC:    lastRunsUC,
		notifications: notifications,
	}
}

// HandleHealth - GET /healthz
func (h *OpsHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleStartCrawl - POST /api/v1/crawls, тело необязательно
func (h *OpsHandlers) HandleStartCrawl(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleStartCrawl"})

	var req StartCrawlRequestDTO
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	targets, err := domain.ResolveTargets(h.orchestrateUC.Targets(), req.Sources, req.DealTypes)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := contextkeys.ContextWithLogger(h.appCtx, contextkeys.LoggerFromContext(r.Context()))
	ctx = contextkeys.ContextWithTraceID(ctx, contextkeys.TraceIDFromContext(r.Context()))
	runID, err := h.orchestrateUC.Start(ctx, targets)
	if err != nil {
		if errors.Is(err, usecase.ErrCrawlInProgress) {
			WriteJSONError(w, http.StatusConflict, err.Error())
			return
		}
		logger.Error("Failed to start crawl cycle", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to start crawl cycle")
		return
	}

	logger.Info("Crawl cycle started", port.Fields{"run_id": runID.String(), "targets": len(targets)})
	RespondWithJSON(w, http.StatusAccepted, StartCrawlResponseDTO{RunID: runID.String()})
}

// HandleLastCrawls - GET /api/v1/crawls/last
func (h *OpsHandlers) HandleLastCrawls(w http.ResponseWriter, r *http.Request) {
	runs, err := h.lastRunsUC.Execute(r.Context())
	if err != nil {
		contextkeys.LoggerFromContext(r.Context()).Error("Failed to load last crawl runs", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to load crawl runs")
		return
	}

	out := make([]CrawlRunDTO, 0, len(runs))
	for _, run := range runs {
		out = append(out, toCrawlRunDTO(run))
	}
	RespondWithJSON(w, http.StatusOK, out)
}

// HandleNotificationStats - GET /api/v1/notifications/stats
func (h *OpsHandlers) HandleNotificationStats(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.notifications.Stats())
}
