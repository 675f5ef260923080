package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"fightbook/models"
	"fightbook/service"

	"github.com/go-chi/chi/v5"
)

type placeWagerRequest struct {
	AccountID      string `json:"account_id" validate:"required"`
	EventID        string `json:"event_id" validate:"required"`
	FightID        string `json:"fight_id" validate:"required"`
	SelectionID    string `json:"selection_id" validate:"required"`
	SelectionLabel string `json:"selection_label"`
	Stake          int64  `json:"stake" validate:"required,gt=0"`
	OddsAmerican   int    `json:"odds_american" validate:"required"`
}

func (s *Server) placeWager(w http.ResponseWriter, r *http.Request) {
	var req placeWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Accounts bootstrap lazily on first touch
	if _, err := s.accounts.GetOrCreateAccount(r.Context(), req.AccountID); err != nil {
		s.writeServiceError(w, err)
		return
	}

	wager, err := s.placement.PlaceWager(r.Context(), service.PlaceWagerRequest{
		AccountID:      req.AccountID,
		EventID:        req.EventID,
		FightID:        req.FightID,
		SelectionID:    req.SelectionID,
		SelectionLabel: req.SelectionLabel,
		Stake:          req.Stake,
		OddsAmerican:   req.OddsAmerican,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, wager)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	account, err := s.accounts.GetOrCreateAccount(r.Context(), accountID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) listWagers(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	wagers, err := s.accounts.ListWagers(r.Context(), accountID, queryLimit(r, 50))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if wagers == nil {
		wagers = []*models.Wager{}
	}
	writeJSON(w, http.StatusOK, wagers)
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	txns, err := s.accounts.ListTransactions(r.Context(), accountID, queryLimit(r, 50))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if txns == nil {
		txns = []*models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

type grantBonusRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required"`
}

func (s *Server) grantBonus(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var req grantBonusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := s.accounts.GrantBonus(r.Context(), accountID, req.Amount, req.Reason)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.leaderboard.GetLeaderboard(r.Context(), queryLimit(r, 0))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type ingestSnapshotRequest struct {
	EventID        string         `json:"event_id" validate:"required"`
	SourceURL      string         `json:"source_url" validate:"required,url"`
	EventName      string         `json:"event_name"`
	EventStartTime string         `json:"event_start_time"`
	IsActive       *bool          `json:"is_active"`
	ScrapedAt      time.Time      `json:"scraped_at"`
	Fights         []models.Fight `json:"fights"`
}

func (s *Server) ingestSnapshot(w http.ResponseWriter, r *http.Request) {
	var req ingestSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	snapshot := &models.EventSnapshot{
		EventID:        req.EventID,
		SourceURL:      req.SourceURL,
		EventName:      req.EventName,
		EventStartTime: req.EventStartTime,
		IsActive:       isActive,
		ScrapedAt:      req.ScrapedAt,
		Fights:         req.Fights,
	}

	if err := s.processor.IngestSnapshot(r.Context(), snapshot); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"snapshot_id": snapshot.ID.String()})
}

func (s *Server) settleEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	result, err := s.settlement.SettleEvent(r.Context(), eventID)
	if err != nil {
		var partial *service.PartialBatchFailure
		if errors.As(err, &partial) {
			writeJSON(w, http.StatusOK, settlementResponse(result, partial))
			return
		}
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settlementResponse(result, nil))
}

type fightChangeRequest struct {
	FightID    string   `json:"fight_id" validate:"required"`
	Reasons    []string `json:"reasons" validate:"required,min=1"`
	RefundType string   `json:"refund_type" validate:"omitempty,oneof=full partial"`
}

type processRefundsRequest struct {
	Changes []fightChangeRequest `json:"changes" validate:"required,min=1,dive"`
}

func (s *Server) processRefunds(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var req processRefundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	changes := make([]models.FightChange, 0, len(req.Changes))
	for _, c := range req.Changes {
		refundType := models.RefundTypeFull
		if c.RefundType == string(models.RefundTypePartial) {
			refundType = models.RefundTypePartial
		}
		changes = append(changes, models.FightChange{
			FightID:    c.FightID,
			Reasons:    c.Reasons,
			RefundType: refundType,
		})
	}

	result, err := s.refunds.ProcessRefunds(r.Context(), eventID, changes)
	if err != nil {
		var partial *service.PartialBatchFailure
		if errors.As(err, &partial) {
			writeJSON(w, http.StatusOK, refundResponse(result, partial))
			return
		}
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refundResponse(result, nil))
}

func queryLimit(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			return n
		}
	}
	return fallback
}
