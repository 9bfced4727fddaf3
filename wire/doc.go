// Package wire encodes the table protocol envelopes in protobuf wire format.
//
// Messages are written field by field with protowire; field numbers are part
// of the protocol and must not be reused.
package wire
