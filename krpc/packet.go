// Package krpc implements the wire codec for the overlay DHT protocol's
// query/response/error packets: transaction tags, node identifiers,
// tokens, and node lists. It is a pure, total codec — decode never
// partially mutates state, and the binding contract is the round-trip
// law decode(encode(p)) == p for every well-formed p.
//
// The packet shapes mirror dht-ocean's original map-based KRPC Packet
// (common/dht/krpc.go, dht/protocol/krpc.go) generalized into Go sum
// types per the "tagged variants for packets" design note: one
// discriminated Kind per top-level variant, one nested discriminated
// body per Query/Response.
package krpc

import "net"

// Kind discriminates the three top-level packet variants.
type Kind byte

const (
	KindQuery Kind = iota
	KindResponse
	KindError
)

// FindMode distinguishes a node-lookup find from a value-lookup find.
type FindMode byte

const (
	ModeNode FindMode = iota
	ModeValue
)

// QueryType discriminates the body of a Query packet.
type QueryType byte

const (
	QueryPing QueryType = iota
	QueryFind
	QueryStore
)

// ResponseType discriminates the body of a Response packet, mirroring
// the query it answers.
type ResponseType byte

const (
	RespPing ResponseType = iota
	RespFindNode
	RespFindValue
	RespStoreAck
)

// NodeDescriptor is a single DHT peer: identifier, address, port.
type NodeDescriptor struct {
	ID   []byte
	IP   net.IP
	Port uint16
}

// Query is the `Query { tag, sender_id, body }` variant.
type Query struct {
	Tag      []byte
	SenderID []byte
	Type     QueryType

	// Find fields (Type == QueryFind)
	FindMode FindMode
	Target   []byte

	// Store fields (Type == QueryStore)
	Token []byte
	KeyID []byte
	Port  uint16
}

// Response is the `Response { tag, responder_id, body }` variant.
type Response struct {
	Tag         []byte
	ResponderID []byte
	Type        ResponseType

	// Find fields (Type == RespFindNode || Type == RespFindValue)
	FindMode FindMode
	Token    []byte // only for RespFindValue
	Nodes    []NodeDescriptor
}

// Error is the `Error { tag, id, code, message }` variant.
type Error struct {
	Tag     []byte
	ID      []byte
	Code    uint64
	Message []byte
}

// Packet is the tagged union of Query, Response, and Error. Exactly one
// of Query, Response, Error is non-nil, selected by Kind.
type Packet struct {
	Kind     Kind
	Query    *Query
	Response *Response
	Error    *Error
}
