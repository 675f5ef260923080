package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"fightbook/models"
	"fightbook/service"

	log "github.com/sirupsen/logrus"
)

type batchItemFailure struct {
	WagerID int64  `json:"wager_id"`
	Error   string `json:"error"`
}

type settlementResult struct {
	SettledCount int                `json:"settled_count"`
	WonCount     int                `json:"won_count"`
	LostCount    int                `json:"lost_count"`
	PaidOut      int64              `json:"paid_out"`
	Failures     []batchItemFailure `json:"failures,omitempty"`
}

type refundResult struct {
	BetsRefunded     int                `json:"bets_refunded"`
	AmountRefunded   int64              `json:"amount_refunded"`
	AccountsAffected int                `json:"accounts_affected"`
	Failures         []batchItemFailure `json:"failures,omitempty"`
}

func batchFailures(partial *service.PartialBatchFailure) []batchItemFailure {
	if partial == nil {
		return nil
	}
	failures := make([]batchItemFailure, 0, len(partial.Items))
	for _, item := range partial.Items {
		failures = append(failures, batchItemFailure{WagerID: item.WagerID, Error: item.Err.Error()})
	}
	return failures
}

func settlementResponse(result *models.SettlementResult, partial *service.PartialBatchFailure) settlementResult {
	resp := settlementResult{Failures: batchFailures(partial)}
	if result != nil {
		resp.SettledCount = result.SettledCount
		resp.WonCount = result.WonCount
		resp.LostCount = result.LostCount
		resp.PaidOut = result.PaidOut
	}
	return resp
}

func refundResponse(result *models.RefundResult, partial *service.PartialBatchFailure) refundResult {
	resp := refundResult{Failures: batchFailures(partial)}
	if result != nil {
		resp.BetsRefunded = result.BetsRefunded
		resp.AmountRefunded = result.AmountRefunded
		resp.AccountsAffected = result.AccountsAffected
	}
	return resp
}

// writeServiceError maps the service error taxonomy onto HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case service.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case service.IsValidation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrConcurrencyConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.WithField("error", err).Error("Unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithField("error", err).Error("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
