package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bridge-lite/auction"
)

type HTTPHandler struct {
	ledger       Service
	defaultLimit int
	log          *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

// resultView is the JSON shape of a Record.
type resultView struct {
	ResultID      string    `json:"result_id"`
	TableID       string    `json:"table_id"`
	Board         int       `json:"board"`
	Dealer        string    `json:"dealer"`
	Vulnerability string    `json:"vulnerability"`
	Calls         []string  `json:"calls"`
	PassedOut     bool      `json:"passed_out"`
	Contract      string    `json:"contract,omitempty"`
	Declarer      string    `json:"declarer,omitempty"`
	Players       [4]string `json:"players"`
	PlayedAt      time.Time `json:"played_at"`
}

func NewHTTPHandler(ledgerService Service, defaultLimit int, log *slog.Logger) *HTTPHandler {
	if defaultLimit <= 0 {
		defaultLimit = defaultResultsLimit
	}
	if log == nil {
		log = slog.Default()
	}
	return &HTTPHandler{
		ledger:       ledgerService,
		defaultLimit: defaultLimit,
		log:          log,
	}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tables/{id}/results", h.handleTableResults)
	mux.HandleFunc("GET /api/results/{resultID}", h.handleGetResult)
}

func (h *HTTPHandler) handleTableResults(w http.ResponseWriter, r *http.Request) {
	tableID := strings.TrimSpace(r.PathValue("id"))
	if tableID == "" {
		writeError(w, http.StatusBadRequest, "missing table id")
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"), h.defaultLimit)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	records, err := h.ledger.ListResults(ctx, tableID, limit)
	if err != nil {
		h.log.Error("list results failed", "table_id", tableID, "err", err)
		writeError(w, http.StatusInternalServerError, "query results failed")
		return
	}

	items := make([]resultView, 0, len(records))
	for _, rec := range records {
		items = append(items, viewOf(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"table_id": tableID,
		"items":    items,
	})
}

func (h *HTTPHandler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	resultID := strings.TrimSpace(r.PathValue("resultID"))
	if resultID == "" {
		writeError(w, http.StatusBadRequest, "missing result id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	rec, err := h.ledger.GetResult(ctx, resultID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "result not found")
			return
		}
		h.log.Error("get result failed", "result_id", resultID, "err", err)
		writeError(w, http.StatusInternalServerError, "query result failed")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(rec))
}

func viewOf(rec Record) resultView {
	v := resultView{
		ResultID:      rec.ResultID,
		TableID:       rec.TableID,
		Board:         rec.Board,
		Dealer:        rec.Dealer.String(),
		Vulnerability: rec.Vulnerability.String(),
		Calls:         make([]string, 0, len(rec.Calls)),
		PassedOut:     rec.PassedOut(),
		Players:       rec.Players,
		PlayedAt:      rec.PlayedAt,
	}
	for _, c := range rec.Calls {
		v.Calls = append(v.Calls, c.String())
	}
	if c := rec.Contract; c != nil {
		v.Contract = c.Bid.String() + auction.DoublingDictionary[c.Doubling]
		v.Declarer = c.Declarer.String()
	}
	return v
}

func parseLimit(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return clampLimit(n)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
