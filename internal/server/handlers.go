package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/chart"
	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/KaramelBytes/chartloom/internal/session"
	"github.com/KaramelBytes/chartloom/internal/share"
	"github.com/KaramelBytes/chartloom/internal/suggest"
	"github.com/gin-gonic/gin"
)

// AnalyzeRequest carries rows and an optional configuration override.
type AnalyzeRequest struct {
	Rows   *dataset.Dataset `json:"rows" binding:"required"`
	Config *chart.Config    `json:"config"`
}

// RestoreRequest carries a token or a share URL.
type RestoreRequest struct {
	Token string `json:"token" binding:"required"`
}

// StateResponse describes a session after a command.
type StateResponse struct {
	SessionID   string                `json:"session_id"`
	Columns     []analysis.ColumnMeta `json:"columns"`
	Suggestions []suggest.Suggestion  `json:"suggestions"`
	Config      chart.Config          `json:"config"`
	Plan        chart.Plan            `json:"plan"`
	Token       string                `json:"token,omitempty"`
	ShareURL    string                `json:"share_url,omitempty"`
	Warning     string                `json:"warning,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleAnalyze(c *gin.Context) {
	sess, logger := s.newSession(c)
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid analyze request", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}
	sess.LoadDataset(req.Rows)
	if req.Config != nil {
		if err := sess.ChangeConfig(*req.Config); err != nil {
			logger.Warn("invalid chart config", "error", err)
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_CONFIG"})
			return
		}
	}
	logger.Info("dataset analyzed", "rows", req.Rows.Len(), "columns", len(req.Rows.Columns))
	c.JSON(http.StatusOK, s.stateResponse(sess, logger))
}

func (s *Server) handleRestore(c *gin.Context) {
	sess, logger := s.newSession(c)
	var req RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid restore request", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}
	if err := sess.RestoreFromToken(share.TokenFromURL(req.Token)); err != nil {
		restoresTotal.WithLabelValues("failed").Inc()
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "RESTORE_FAILED"})
		return
	}
	restoresTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, s.stateResponse(sess, logger))
}

func (s *Server) stateResponse(sess *session.Session, logger *slog.Logger) StateResponse {
	start := time.Now()
	plan := sess.Plan()
	planBuildSeconds.Observe(time.Since(start).Seconds())

	resp := StateResponse{
		SessionID:   sess.ID,
		Columns:     sess.Columns(),
		Suggestions: sess.Suggestions(),
		Config:      sess.Config(),
		Plan:        plan,
	}
	tok, err := sess.RequestShare()
	switch {
	case err == nil:
		shareTokensTotal.WithLabelValues("ok").Inc()
		resp.Token = tok
		if s.opts.ShareBaseURL != "" {
			resp.ShareURL = share.ShareURL(s.opts.ShareBaseURL, tok)
		}
	case errors.Is(err, share.ErrTokenTooLarge):
		shareTokensTotal.WithLabelValues("too_large").Inc()
		resp.Warning = "dataset too large to share via link"
	default:
		shareTokensTotal.WithLabelValues("error").Inc()
		logger.Error("share token failed", "error", err)
		resp.Warning = "share link unavailable"
	}
	if resp.Columns == nil {
		resp.Columns = []analysis.ColumnMeta{}
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []suggest.Suggestion{}
	}
	return resp
}
