package lobby

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bridge-lite/auction"
	"bridge-lite/bridge"
)

type tableView struct {
	TableID      string    `json:"table_id"`
	Board        int       `json:"board"`
	BoardsPlayed int       `json:"boards_played"`
	Seats        [4]string `json:"seats"`
	Bidding      bool      `json:"bidding"`
}

type auctionView struct {
	TableID       string   `json:"table_id"`
	Dealer        string   `json:"dealer"`
	Vulnerability string   `json:"vulnerability"`
	Phase         string   `json:"phase"`
	Turn          string   `json:"turn,omitempty"`
	Calls         []string `json:"calls"`
	LegalCalls    []string `json:"legal_calls"`
	Outcome       string   `json:"outcome,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RegisterRoutes mounts the read-only table listing.
func (l *Lobby) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tables", l.handleListTables)
	mux.HandleFunc("GET /api/tables/{id}/auction", l.handleTableAuction)
}

func (l *Lobby) handleListTables(w http.ResponseWriter, r *http.Request) {
	views := l.ListTables()
	items := make([]tableView, 0, len(views))
	for _, v := range views {
		items = append(items, tableView{
			TableID:      v.ID,
			Board:        v.Board,
			BoardsPlayed: v.BoardsPlayed,
			Seats:        v.Seats,
			Bidding:      v.Bidding,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (l *Lobby) handleTableAuction(w http.ResponseWriter, r *http.Request) {
	tableID := strings.TrimSpace(r.PathValue("id"))
	t, err := l.GetTable(tableID)
	if err != nil {
		if errors.Is(err, ErrTableNotFound) {
			writeError(w, http.StatusNotFound, "table not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup table failed")
		return
	}
	snap, ok := t.AuctionSnapshot()
	if !ok {
		writeError(w, http.StatusNotFound, "no board dealt yet")
		return
	}
	writeJSON(w, http.StatusOK, auctionViewOf(tableID, snap))
}

func auctionViewOf(tableID string, snap auction.Snapshot) auctionView {
	v := auctionView{
		TableID:       tableID,
		Dealer:        snap.Dealer.String(),
		Vulnerability: snap.Vulnerability.String(),
		Phase:         snap.Phase.String(),
		Calls:         callStrings(snap.CallsOnly()),
		LegalCalls:    callStrings(snap.LegalCalls),
	}
	if snap.Turn.Valid() {
		v.Turn = snap.Turn.String()
	}
	if snap.Outcome != nil {
		v.Outcome = snap.Outcome.String()
	}
	return v
}

func callStrings(calls []bridge.Call) []string {
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.String())
	}
	return out
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
