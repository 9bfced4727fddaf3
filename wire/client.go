package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ClientPayload is the oneof carried by a ClientEnvelope.
type ClientPayload interface {
	Kind() string
	clientField() protowire.Number
	marshal(b []byte) []byte
}

type ClientEnvelope struct {
	TableID   string
	ClientSeq uint64
	Payload   ClientPayload
}

const (
	fieldClientTableID protowire.Number = 1
	fieldClientSeq     protowire.Number = 2

	fieldJoinTable protowire.Number = 10
	fieldTakeSeat  protowire.Number = 11
	fieldLeaveSeat protowire.Number = 12
	fieldMakeCall  protowire.Number = 13
)

// JoinTable subscribes the connection to a table. An empty TableID in the
// envelope asks the lobby for any table with a free seat.
type JoinTable struct{}

type TakeSeat struct {
	Seat uint32
}

type LeaveSeat struct{}

type MakeCall struct {
	Call uint32
}

func (*JoinTable) Kind() string { return "joinTable" }
func (*TakeSeat) Kind() string  { return "takeSeat" }
func (*LeaveSeat) Kind() string { return "leaveSeat" }
func (*MakeCall) Kind() string  { return "makeCall" }

func (*JoinTable) clientField() protowire.Number { return fieldJoinTable }
func (*TakeSeat) clientField() protowire.Number  { return fieldTakeSeat }
func (*LeaveSeat) clientField() protowire.Number { return fieldLeaveSeat }
func (*MakeCall) clientField() protowire.Number  { return fieldMakeCall }

func (*JoinTable) marshal(b []byte) []byte  { return b }
func (*LeaveSeat) marshal(b []byte) []byte  { return b }
func (m *TakeSeat) marshal(b []byte) []byte { return appendUint(b, 1, uint64(m.Seat)) }
func (m *MakeCall) marshal(b []byte) []byte { return appendUint(b, 1, uint64(m.Call)) }

func MarshalClient(env *ClientEnvelope) ([]byte, error) {
	if env == nil {
		return nil, fmt.Errorf("nil client envelope")
	}
	b := make([]byte, 0, 32)
	b = appendString(b, fieldClientTableID, env.TableID)
	b = appendUint(b, fieldClientSeq, env.ClientSeq)
	if env.Payload != nil {
		b = appendMessage(b, env.Payload.clientField(), env.Payload.marshal(nil))
	}
	return b, nil
}

func UnmarshalClient(b []byte) (*ClientEnvelope, error) {
	env := &ClientEnvelope{}
	err := walk(b, func(f field) error {
		switch f.num {
		case fieldClientTableID:
			env.TableID = f.string()
		case fieldClientSeq:
			env.ClientSeq = f.u
		case fieldJoinTable:
			env.Payload = &JoinTable{}
		case fieldLeaveSeat:
			env.Payload = &LeaveSeat{}
		case fieldTakeSeat:
			m := &TakeSeat{}
			if err := walk(f.b, func(f field) error {
				if f.num == 1 {
					m.Seat = f.uint32()
				}
				return nil
			}); err != nil {
				return fmt.Errorf("decode takeSeat: %w", err)
			}
			env.Payload = m
		case fieldMakeCall:
			m := &MakeCall{}
			if err := walk(f.b, func(f field) error {
				if f.num == 1 {
					m.Call = f.uint32()
				}
				return nil
			}); err != nil {
				return fmt.Errorf("decode makeCall: %w", err)
			}
			env.Payload = m
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}
