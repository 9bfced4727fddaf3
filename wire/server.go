package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ServerPayload is the oneof carried by a ServerEnvelope.
type ServerPayload interface {
	// Kind is the short event name used in replay tapes and logs.
	Kind() string
	serverField() protowire.Number
	marshal(b []byte) []byte
}

type ServerEnvelope struct {
	TableID    string
	ServerSeq  uint64
	ServerTsMs int64
	Payload    ServerPayload
}

const (
	fieldServerTableID protowire.Number = 1
	fieldServerSeq     protowire.Number = 2
	fieldServerTsMs    protowire.Number = 3

	fieldBoardStart      protowire.Number = 10
	fieldAuctionSnapshot protowire.Number = 11
	fieldCallPrompt      protowire.Number = 12
	fieldCallResult      protowire.Number = 13
	fieldAuctionEnd      protowire.Number = 14
	fieldSeatUpdate      protowire.Number = 15
	fieldErrorResponse   protowire.Number = 16
)

// BoardStart announces a fresh auction.
type BoardStart struct {
	Board         uint32
	Dealer        uint32
	Vulnerability uint32
}

type SeatInfo struct {
	Seat   uint32
	UserID string
	// Display name; empty on live tables.
	Name string
}

// AuctionSnapshot is the full auction view sent on join and resync.
type AuctionSnapshot struct {
	Board         uint32
	Dealer        uint32
	Vulnerability uint32
	Turn          uint32
	Calls         []uint32
	LegalCalls    []uint32
	Complete      bool
	Seats         []SeatInfo
}

type CallPrompt struct {
	Seat       uint32
	LegalCalls []uint32
	DeadlineMs int64
}

type CallResult struct {
	Seat     uint32
	Call     uint32
	TimedOut bool
}

// AuctionEnd carries the final contract. Declarer, Contract and Doubling are
// zero for a passed-out board.
type AuctionEnd struct {
	Board         uint32
	PassedOut     bool
	Declarer      uint32
	Contract      uint32
	Doubling      uint32
	Vulnerability uint32
	ResultID      string
}

type SeatUpdate struct {
	Seat     uint32
	UserID   string
	Occupied bool
}

type ErrorResponse struct {
	Code    ErrorCode
	Message string
}

func (*BoardStart) Kind() string      { return "boardStart" }
func (*AuctionSnapshot) Kind() string { return "snapshot" }
func (*CallPrompt) Kind() string      { return "callPrompt" }
func (*CallResult) Kind() string      { return "callResult" }
func (*AuctionEnd) Kind() string      { return "auctionEnd" }
func (*SeatUpdate) Kind() string      { return "seatUpdate" }
func (*ErrorResponse) Kind() string   { return "error" }

func (*BoardStart) serverField() protowire.Number      { return fieldBoardStart }
func (*AuctionSnapshot) serverField() protowire.Number { return fieldAuctionSnapshot }
func (*CallPrompt) serverField() protowire.Number      { return fieldCallPrompt }
func (*CallResult) serverField() protowire.Number      { return fieldCallResult }
func (*AuctionEnd) serverField() protowire.Number      { return fieldAuctionEnd }
func (*SeatUpdate) serverField() protowire.Number      { return fieldSeatUpdate }
func (*ErrorResponse) serverField() protowire.Number   { return fieldErrorResponse }

func (m *BoardStart) marshal(b []byte) []byte {
	b = appendUint(b, 1, uint64(m.Board))
	b = appendUint(b, 2, uint64(m.Dealer))
	return appendUint(b, 3, uint64(m.Vulnerability))
}

func (m *BoardStart) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Board = f.uint32()
		case 2:
			m.Dealer = f.uint32()
		case 3:
			m.Vulnerability = f.uint32()
		}
		return nil
	})
}

func (m *SeatInfo) marshal(b []byte) []byte {
	b = appendUint(b, 1, uint64(m.Seat))
	b = appendString(b, 2, m.UserID)
	return appendString(b, 3, m.Name)
}

func (m *SeatInfo) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Seat = f.uint32()
		case 2:
			m.UserID = f.string()
		case 3:
			m.Name = f.string()
		}
		return nil
	})
}

func (m *AuctionSnapshot) marshal(b []byte) []byte {
	b = appendUint(b, 1, uint64(m.Board))
	b = appendUint(b, 2, uint64(m.Dealer))
	b = appendUint(b, 3, uint64(m.Vulnerability))
	b = appendUint(b, 4, uint64(m.Turn))
	b = appendPacked(b, 5, m.Calls)
	b = appendPacked(b, 6, m.LegalCalls)
	b = appendBool(b, 7, m.Complete)
	for i := range m.Seats {
		b = appendMessage(b, 8, m.Seats[i].marshal(nil))
	}
	return b
}

func (m *AuctionSnapshot) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			m.Board = f.uint32()
		case 2:
			m.Dealer = f.uint32()
		case 3:
			m.Vulnerability = f.uint32()
		case 4:
			m.Turn = f.uint32()
		case 5:
			m.Calls, err = f.uint32s(m.Calls)
		case 6:
			m.LegalCalls, err = f.uint32s(m.LegalCalls)
		case 7:
			m.Complete = f.bool()
		case 8:
			var s SeatInfo
			if err = s.unmarshal(f.b); err == nil {
				m.Seats = append(m.Seats, s)
			}
		}
		return err
	})
}

func (m *CallPrompt) marshal(b []byte) []byte {
	b = appendUint(b, 1, uint64(m.Seat))
	b = appendPacked(b, 2, m.LegalCalls)
	return appendInt64(b, 3, m.DeadlineMs)
}

func (m *CallPrompt) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			m.Seat = f.uint32()
		case 2:
			m.LegalCalls, err = f.uint32s(m.LegalCalls)
		case 3:
			m.DeadlineMs = f.int64()
		}
		return err
	})
}

func (m *CallResult) marshal(b []byte) []byte {
	b = appendUint(b, 1, uint64(m.Seat))
	b = appendUint(b, 2, uint64(m.Call))
	return appendBool(b, 3, m.TimedOut)
}

func (m *CallResult) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Seat = f.uint32()
		case 2:
			m.Call = f.uint32()
		case 3:
			m.TimedOut = f.bool()
		}
		return nil
	})
}

func (m *AuctionEnd) marshal(b []byte) []byte {
	b = appendUint(b, 1, uint64(m.Board))
	b = appendBool(b, 2, m.PassedOut)
	b = appendUint(b, 3, uint64(m.Declarer))
	b = appendUint(b, 4, uint64(m.Contract))
	b = appendUint(b, 5, uint64(m.Doubling))
	b = appendUint(b, 6, uint64(m.Vulnerability))
	return appendString(b, 7, m.ResultID)
}

func (m *AuctionEnd) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Board = f.uint32()
		case 2:
			m.PassedOut = f.bool()
		case 3:
			m.Declarer = f.uint32()
		case 4:
			m.Contract = f.uint32()
		case 5:
			m.Doubling = f.uint32()
		case 6:
			m.Vulnerability = f.uint32()
		case 7:
			m.ResultID = f.string()
		}
		return nil
	})
}

func (m *SeatUpdate) marshal(b []byte) []byte {
	b = appendUint(b, 1, uint64(m.Seat))
	b = appendString(b, 2, m.UserID)
	return appendBool(b, 3, m.Occupied)
}

func (m *SeatUpdate) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Seat = f.uint32()
		case 2:
			m.UserID = f.string()
		case 3:
			m.Occupied = f.bool()
		}
		return nil
	})
}

func (m *ErrorResponse) marshal(b []byte) []byte {
	b = appendUint(b, 1, uint64(m.Code))
	return appendString(b, 2, m.Message)
}

func (m *ErrorResponse) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Code = ErrorCode(f.uint32())
		case 2:
			m.Message = f.string()
		}
		return nil
	})
}

// MarshalServer encodes env in protobuf wire format.
func MarshalServer(env *ServerEnvelope) ([]byte, error) {
	if env == nil {
		return nil, fmt.Errorf("nil server envelope")
	}
	b := make([]byte, 0, 64)
	b = appendString(b, fieldServerTableID, env.TableID)
	b = appendUint(b, fieldServerSeq, env.ServerSeq)
	b = appendInt64(b, fieldServerTsMs, env.ServerTsMs)
	if env.Payload != nil {
		b = appendMessage(b, env.Payload.serverField(), env.Payload.marshal(nil))
	}
	return b, nil
}

// UnmarshalServer decodes a ServerEnvelope. Unknown fields are skipped; when
// several payload fields are present the last one wins.
func UnmarshalServer(b []byte) (*ServerEnvelope, error) {
	env := &ServerEnvelope{}
	err := walk(b, func(f field) error {
		switch f.num {
		case fieldServerTableID:
			env.TableID = f.string()
			return nil
		case fieldServerSeq:
			env.ServerSeq = f.u
			return nil
		case fieldServerTsMs:
			env.ServerTsMs = f.int64()
			return nil
		}

		var (
			p   ServerPayload
			err error
		)
		switch f.num {
		case fieldBoardStart:
			m := &BoardStart{}
			p, err = m, m.unmarshal(f.b)
		case fieldAuctionSnapshot:
			m := &AuctionSnapshot{}
			p, err = m, m.unmarshal(f.b)
		case fieldCallPrompt:
			m := &CallPrompt{}
			p, err = m, m.unmarshal(f.b)
		case fieldCallResult:
			m := &CallResult{}
			p, err = m, m.unmarshal(f.b)
		case fieldAuctionEnd:
			m := &AuctionEnd{}
			p, err = m, m.unmarshal(f.b)
		case fieldSeatUpdate:
			m := &SeatUpdate{}
			p, err = m, m.unmarshal(f.b)
		case fieldErrorResponse:
			m := &ErrorResponse{}
			p, err = m, m.unmarshal(f.b)
		default:
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", p.Kind(), err)
		}
		env.Payload = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}
