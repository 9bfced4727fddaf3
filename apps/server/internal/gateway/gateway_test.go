package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bridge-lite/apps/server/internal/ledger"
	"bridge-lite/apps/server/internal/lobby"
	"bridge-lite/apps/server/internal/table"
	"bridge-lite/bridge"
	"bridge-lite/wire"

	"github.com/gorilla/websocket"
)

func dialTestGateway(t *testing.T) *websocket.Conn {
	t.Helper()
	lby := lobby.New(table.Config{}, ledger.NewMemoryService())
	t.Cleanup(lby.Close)
	mux := http.NewServeMux()
	New(lby).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, env *wire.ClientEnvelope) {
	t.Helper()
	data, err := wire.MarshalClient(env)
	if err != nil {
		t.Fatalf("MarshalClient err: %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		t.Fatalf("write err: %v", err)
	}
}

// next reads frames until one with the wanted kind arrives.
func next(t *testing.T, conn *websocket.Conn, kind string) *wire.ServerEnvelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read while waiting for %s: %v", kind, err)
		}
		env, err := wire.UnmarshalServer(data)
		if err != nil {
			t.Fatalf("UnmarshalServer err: %v", err)
		}
		if env.Payload != nil && env.Payload.Kind() == kind {
			return env
		}
	}
}

func TestGateway_JoinSeatAndErrors(t *testing.T) {
	conn := dialTestGateway(t)

	send(t, conn, &wire.ClientEnvelope{ClientSeq: 1, Payload: &wire.MakeCall{Call: wire.CallCodePass}})
	errEnv := next(t, conn, "error")
	if code := errEnv.Payload.(*wire.ErrorResponse).Code; code != wire.ErrorBadRequest {
		t.Fatalf("call before join: code %s, want %s", code, wire.ErrorBadRequest)
	}

	send(t, conn, &wire.ClientEnvelope{ClientSeq: 2, Payload: &wire.JoinTable{}})
	snapEnv := next(t, conn, "snapshot")
	if !strings.HasPrefix(snapEnv.TableID, "table_") {
		t.Fatalf("unexpected table id %q", snapEnv.TableID)
	}
	if snap := snapEnv.Payload.(*wire.AuctionSnapshot); snap.Board != 0 || len(snap.Seats) != 0 {
		t.Fatalf("expected an empty table snapshot, got %+v", snap)
	}

	send(t, conn, &wire.ClientEnvelope{ClientSeq: 3, Payload: &wire.MakeCall{Call: wire.CallCodePass}})
	if code := next(t, conn, "error").Payload.(*wire.ErrorResponse).Code; code != wire.ErrorNotSeated {
		t.Fatalf("call while watching: code %s, want %s", code, wire.ErrorNotSeated)
	}

	send(t, conn, &wire.ClientEnvelope{ClientSeq: 4, Payload: &wire.TakeSeat{Seat: 9}})
	if code := next(t, conn, "error").Payload.(*wire.ErrorResponse).Code; code != wire.ErrorBadRequest {
		t.Fatalf("bad seat: code %s, want %s", code, wire.ErrorBadRequest)
	}

	send(t, conn, &wire.ClientEnvelope{ClientSeq: 5, Payload: &wire.TakeSeat{Seat: wire.SeatCode(bridge.South)}})
	update := next(t, conn, "seatUpdate").Payload.(*wire.SeatUpdate)
	if update.Seat != wire.SeatCode(bridge.South) || !update.Occupied || !strings.HasPrefix(update.UserID, "user_") {
		t.Fatalf("unexpected seat update %+v", update)
	}

	// Re-joining the same table resyncs without dropping the seat.
	send(t, conn, &wire.ClientEnvelope{ClientSeq: 6, TableID: snapEnv.TableID, Payload: &wire.JoinTable{}})
	resync := next(t, conn, "snapshot").Payload.(*wire.AuctionSnapshot)
	if len(resync.Seats) != 1 || resync.Seats[0].Seat != wire.SeatCode(bridge.South) {
		t.Fatalf("resync seats = %+v", resync.Seats)
	}
}

func TestGateway_RejectsGarbage(t *testing.T) {
	conn := dialTestGateway(t)
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0xff, 0xff, 0xff}); err != nil {
		t.Fatalf("write err: %v", err)
	}
	if code := next(t, conn, "error").Payload.(*wire.ErrorResponse).Code; code != wire.ErrorBadRequest {
		t.Fatalf("garbage frame: code %s, want %s", code, wire.ErrorBadRequest)
	}
}
