package krpc

import (
	"bytes"
	"encoding/binary"
	"net"

	"github.com/pkg/errors"
)

// ErrDecode is returned for any malformed packet: truncated buffers,
// unknown discriminators, or inconsistent length prefixes. It never
// taints subsequent decode calls.
var ErrDecode = errors.New("krpc: malformed packet")

const (
	familyIPv4 byte = 4
	familyIPv6 byte = 16
)

// Encode serializes p to its wire form.
func Encode(p *Packet) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(p.Kind))

	switch p.Kind {
	case KindQuery:
		q := p.Query
		writeLenPrefixed(&buf, q.Tag)
		writeLenPrefixed(&buf, q.SenderID)
		buf.WriteByte(byte(q.Type))
		switch q.Type {
		case QueryPing:
		case QueryFind:
			buf.WriteByte(byte(q.FindMode))
			writeLenPrefixed(&buf, q.Target)
		case QueryStore:
			writeLenPrefixed(&buf, q.Token)
			writeLenPrefixed(&buf, q.KeyID)
			writeUint16(&buf, q.Port)
		default:
			return nil, errors.Errorf("krpc: unknown query type %d", q.Type)
		}
	case KindResponse:
		r := p.Response
		writeLenPrefixed(&buf, r.Tag)
		writeLenPrefixed(&buf, r.ResponderID)
		buf.WriteByte(byte(r.Type))
		switch r.Type {
		case RespPing:
		case RespStoreAck:
		case RespFindNode:
			buf.WriteByte(byte(r.FindMode))
			if err := writeNodeList(&buf, r.Nodes); err != nil {
				return nil, err
			}
		case RespFindValue:
			buf.WriteByte(byte(r.FindMode))
			writeLenPrefixed(&buf, r.Token)
			if err := writeNodeList(&buf, r.Nodes); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Errorf("krpc: unknown response type %d", r.Type)
		}
	case KindError:
		e := p.Error
		writeLenPrefixed(&buf, e.Tag)
		writeLenPrefixed(&buf, e.ID)
		writeUvarint(&buf, e.Code)
		writeLenPrefixed32(&buf, e.Message)
	default:
		return nil, errors.Errorf("krpc: unknown packet kind %d", p.Kind)
	}
	return buf.Bytes(), nil
}

// Decode parses buf into a Packet, returning ErrDecode on any malformed
// input.
func Decode(buf []byte) (*Packet, error) {
	r := &reader{buf: buf}
	kindByte, err := r.readByte()
	if err != nil {
		return nil, err
	}

	p := &Packet{Kind: Kind(kindByte)}
	switch p.Kind {
	case KindQuery:
		q := &Query{}
		if q.Tag, err = r.readLenPrefixed(); err != nil {
			return nil, err
		}
		if q.SenderID, err = r.readLenPrefixed(); err != nil {
			return nil, err
		}
		typeByte, err := r.readByte()
		if err != nil {
			return nil, err
		}
		q.Type = QueryType(typeByte)
		switch q.Type {
		case QueryPing:
		case QueryFind:
			modeByte, err := r.readByte()
			if err != nil {
				return nil, err
			}
			q.FindMode = FindMode(modeByte)
			if q.Target, err = r.readLenPrefixed(); err != nil {
				return nil, err
			}
		case QueryStore:
			if q.Token, err = r.readLenPrefixed(); err != nil {
				return nil, err
			}
			if q.KeyID, err = r.readLenPrefixed(); err != nil {
				return nil, err
			}
			if q.Port, err = r.readUint16(); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Wrapf(ErrDecode, "unknown query type %d", q.Type)
		}
		p.Query = q
	case KindResponse:
		resp := &Response{}
		if resp.Tag, err = r.readLenPrefixed(); err != nil {
			return nil, err
		}
		if resp.ResponderID, err = r.readLenPrefixed(); err != nil {
			return nil, err
		}
		typeByte, err := r.readByte()
		if err != nil {
			return nil, err
		}
		resp.Type = ResponseType(typeByte)
		switch resp.Type {
		case RespPing:
		case RespStoreAck:
		case RespFindNode:
			modeByte, err := r.readByte()
			if err != nil {
				return nil, err
			}
			resp.FindMode = FindMode(modeByte)
			if resp.Nodes, err = r.readNodeList(); err != nil {
				return nil, err
			}
		case RespFindValue:
			modeByte, err := r.readByte()
			if err != nil {
				return nil, err
			}
			resp.FindMode = FindMode(modeByte)
			if resp.Token, err = r.readLenPrefixed(); err != nil {
				return nil, err
			}
			if resp.Nodes, err = r.readNodeList(); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Wrapf(ErrDecode, "unknown response type %d", resp.Type)
		}
		p.Response = resp
	case KindError:
		e := &Error{}
		if e.Tag, err = r.readLenPrefixed(); err != nil {
			return nil, err
		}
		if e.ID, err = r.readLenPrefixed(); err != nil {
			return nil, err
		}
		if e.Code, err = r.readUvarint(); err != nil {
			return nil, err
		}
		if e.Message, err = r.readLenPrefixed32(); err != nil {
			return nil, err
		}
		p.Error = e
	default:
		return nil, errors.Wrapf(ErrDecode, "unknown packet kind %d", kindByte)
	}

	if !r.atEnd() {
		return nil, errors.Wrap(ErrDecode, "trailing bytes")
	}
	return p, nil
}

// --- writing helpers ---

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeLenPrefixed(buf *bytes.Buffer, data []byte) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(len(data)))
	buf.Write(b[:])
	buf.Write(data)
}

func writeLenPrefixed32(buf *bytes.Buffer, data []byte) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(len(data)))
	buf.Write(b[:])
	buf.Write(data)
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], v)
	buf.Write(b[:n])
}

func writeNodeList(buf *bytes.Buffer, nodes []NodeDescriptor) error {
	var countB [2]byte
	binary.BigEndian.PutUint16(countB[:], uint16(len(nodes)))
	buf.Write(countB[:])
	for _, n := range nodes {
		writeLenPrefixed(buf, n.ID)
		ip4 := n.IP.To4()
		if ip4 != nil {
			buf.WriteByte(familyIPv4)
			buf.Write(ip4)
		} else {
			ip16 := n.IP.To16()
			if ip16 == nil {
				return errors.Errorf("krpc: node descriptor has no valid IP address")
			}
			buf.WriteByte(familyIPv6)
			buf.Write(ip16)
		}
		writeUint16(buf, n.Port)
	}
	return nil
}

// --- reading helpers ---

type reader struct {
	buf []byte
	pos int
}

func (r *reader) atEnd() bool {
	return r.pos == len(r.buf)
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errors.Wrap(ErrDecode, "truncated: expected a byte")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readUint16() (uint16, error) {
	if r.pos+2 > len(r.buf) {
		return 0, errors.Wrap(ErrDecode, "truncated: expected uint16")
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos : r.pos+2])
	r.pos += 2
	return v, nil
}

func (r *reader) readLenPrefixed() ([]byte, error) {
	n, err := r.readUint16()
	if err != nil {
		return nil, errors.Wrap(err, "length prefix")
	}
	if r.pos+int(n) > len(r.buf) {
		return nil, errors.Wrap(ErrDecode, "truncated: length prefix exceeds buffer")
	}
	data := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return data, nil
}

func (r *reader) readLenPrefixed32() ([]byte, error) {
	if r.pos+4 > len(r.buf) {
		return nil, errors.Wrap(ErrDecode, "truncated: expected uint32 length prefix")
	}
	n := binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	if r.pos+int(n) > len(r.buf) {
		return nil, errors.Wrap(ErrDecode, "truncated: length prefix exceeds buffer")
	}
	data := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return data, nil
}

func (r *reader) readUvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return 0, errors.Wrap(ErrDecode, "truncated or malformed varint")
	}
	r.pos += n
	return v, nil
}

func (r *reader) readNodeList() ([]NodeDescriptor, error) {
	count, err := r.readUint16()
	if err != nil {
		return nil, errors.Wrap(err, "node list count")
	}
	nodes := make([]NodeDescriptor, 0, count)
	for i := 0; i < int(count); i++ {
		id, err := r.readLenPrefixed()
		if err != nil {
			return nil, errors.Wrapf(err, "node %d id", i)
		}
		family, err := r.readByte()
		if err != nil {
			return nil, errors.Wrapf(err, "node %d family", i)
		}
		var ipLen int
		switch family {
		case familyIPv4:
			ipLen = 4
		case familyIPv6:
			ipLen = 16
		default:
			return nil, errors.Wrapf(ErrDecode, "node %d: unknown address family %d", i, family)
		}
		if r.pos+ipLen > len(r.buf) {
			return nil, errors.Wrapf(ErrDecode, "node %d: truncated address", i)
		}
		ip := make(net.IP, ipLen)
		copy(ip, r.buf[r.pos:r.pos+ipLen])
		r.pos += ipLen
		port, err := r.readUint16()
		if err != nil {
			return nil, errors.Wrapf(err, "node %d port", i)
		}
		nodes = append(nodes, NodeDescriptor{ID: id, IP: ip, Port: port})
	}
	return nodes, nil
}
