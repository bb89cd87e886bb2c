package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/ledger"
	"github.com/spigell/jobswipe/internal/logger"
	"github.com/spigell/jobswipe/internal/summary"
)

const maxBodySize = 1 << 16

type feedQuery struct {
	Limit int `validate:"gte=0,lte=500"`
}

type summarizeRequest struct {
	DisplayName string `json:"displayName" validate:"max=200"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	l, err := s.deps.Ledger.Get(r.Context(), r.PathValue("userID"))
	if err != nil {
		s.jsonError(w, httpStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, l.View())
}

func (s *Server) handleLikedJobs(w http.ResponseWriter, r *http.Request) {
	ids, err := s.deps.Ledger.LikedJobs(r.Context(), r.PathValue("userID"))
	s.jsonResponse(w, httpStatus(err), ledger.JobIDsResultOf(ids, err))
}

func (s *Server) handleDislikedJobs(w http.ResponseWriter, r *http.Request) {
	ids, err := s.deps.Ledger.DislikedJobs(r.Context(), r.PathValue("userID"))
	s.jsonResponse(w, httpStatus(err), ledger.JobIDsResultOf(ids, err))
}

// mutation adapts a ledger write to a handler answering with ledger.Result.
func (s *Server) mutation(write func(ctx context.Context, userID, jobID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, jobID := r.PathValue("userID"), r.PathValue("jobID")

		err := write(r.Context(), userID, jobID)
		if err != nil {
			s.logger.Warn("ledger write failed",
				append(logger.UserFields(userID, jobID), zap.String("method", r.Method), zap.Error(err))...)
		}
		s.jsonResponse(w, httpStatus(err), ledger.ResultOf(err))
	}
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	var q feedQuery
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			s.jsonError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		q.Limit = limit
	}
	if err := s.validate.Struct(q); err != nil {
		s.jsonError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	f, err := s.deps.Feed.Build(r.Context(), r.PathValue("userID"), q.Limit)
	if err != nil {
		s.jsonError(w, httpStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, f)
}

func (s *Server) handleFeedFilters(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.deps.Feed.Filters())
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if s.deps.Summaries == nil {
		s.jsonResponse(w, httpStatus(errSummariesDisabled), summary.ResultOf(nil, errSummariesDisabled))
		return
	}

	var req summarizeRequest
	// an empty body falls back to the user id as display name
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.jsonResponse(w, http.StatusBadRequest, summary.ResultOf(nil, errors.New("invalid request body")))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, summary.ResultOf(nil, errors.New(validationMessage(err))))
		return
	}

	userID := r.PathValue("userID")
	sum, err := s.deps.Summaries.Summarize(r.Context(), userID, req.DisplayName)
	if err != nil {
		s.logger.Warn("summary failed", append(logger.UserFields(userID, ""), zap.Error(err))...)
	}
	s.jsonResponse(w, httpStatus(err), summary.ResultOf(sum, err))
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	if s.deps.Summaries == nil {
		s.jsonError(w, httpStatus(errSummariesDisabled), errSummariesDisabled.Error())
		return
	}

	sum, err := s.deps.Summaries.Get(r.Context(), r.PathValue("userID"))
	if err != nil {
		s.jsonError(w, httpStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, sum)
}
