package mpsl

import (
	"bytes"
	"encoding/binary"

	"fortio.org/safecast"

	"mpsl/internal/types"
)

// Member is a materialized view of one layout entry.
type Member struct {
	Name     string
	TypeInfo TypeInfo
	Offset   int32
}

// memberRecordSize is the packed size of one member record inside the data
// block: name offset, name length, type info, byte offset (four uint32).
const memberRecordSize = 16

// Layout describes the shape of one argument record: an optional record
// name plus an ordered set of members {name, type, byte offset}.
//
// Storage is a single byte block. Member records grow from the head, name
// bytes are packed from the tail, and dataIndex is the low-water mark of
// the name region. The block may start as a caller-provided buffer and
// moves to the heap on first overflow.
type Layout struct {
	data      []byte
	dataIndex uint32

	nameOff uint32
	nameLen uint32
	hasName bool

	members  uint32
	embedded bool
}

// NewLayout creates an empty layout with no storage reserved.
func NewLayout() *Layout {
	return &Layout{}
}

// NewLayoutWithBuffer creates a layout that packs into buf until it runs
// out of room, then migrates to the heap. The caller keeps ownership of
// buf; after migration it is no longer touched.
func NewLayoutWithBuffer(buf []byte) *Layout {
	n, err := safecast.Conv[uint32](len(buf))
	if err != nil {
		return &Layout{}
	}
	return &Layout{
		data:      buf,
		dataIndex: n,
		embedded:  true,
	}
}

// Configure sets the record's type name. The name becomes visible to
// programs as the identifier bound to this argument slot.
func (l *Layout) Configure(name string) Error {
	if len(name) > MaxIdentifierLength {
		return ErrorInvalidArgument
	}
	if l.hasName {
		return ErrorAlreadyConfigured
	}

	n, err := safecast.Conv[uint32](len(name))
	if err != nil {
		return ErrorInvalidArgument
	}
	if e := l.prepareAdd(n); e != ErrorOk {
		return e
	}

	l.dataIndex -= n
	copy(l.data[l.dataIndex:], name)

	l.nameOff = l.dataIndex
	l.nameLen = n
	l.hasName = true
	return ErrorOk
}

// Add appends a member. Names must be unique within the layout; offsets
// are opaque to the compiler and only dereferenced by generated code.
func (l *Layout) Add(name string, typeInfo TypeInfo, offset int32) Error {
	if len(name) == 0 || len(name) > MaxIdentifierLength {
		return ErrorInvalidArgument
	}
	if !typeInfo.Valid() || typeInfo.IsVoid() || typeInfo.IsObject() {
		return ErrorInvalidArgument
	}
	if l.members >= MaxMembersCount {
		return ErrorTooManyMembers
	}
	if l.find(name) >= 0 {
		return ErrorAlreadyExists
	}

	n, err := safecast.Conv[uint32](len(name))
	if err != nil {
		return ErrorInvalidArgument
	}
	if e := l.prepareAdd(n + memberRecordSize); e != ErrorOk {
		return e
	}

	l.dataIndex -= n
	copy(l.data[l.dataIndex:], name)

	l.writeRecord(l.members, l.dataIndex, n, uint32(typeInfo), uint32(offset))
	l.members++
	return ErrorOk
}

// Get finds a member by name.
func (l *Layout) Get(name string) (Member, bool) {
	i := l.find(name)
	if i < 0 {
		return Member{}, false
	}
	return l.MemberAt(uint32(i)), true
}

// Name returns the record's configured type name, empty when Configure
// was never called.
func (l *Layout) Name() string {
	if !l.hasName {
		return ""
	}
	return string(l.data[l.nameOff : l.nameOff+l.nameLen])
}

// Configured reports whether Configure has been called.
func (l *Layout) Configured() bool { return l.hasName }

// MembersCount returns the number of added members.
func (l *Layout) MembersCount() uint32 { return l.members }

// MemberAt returns the member at index i in insertion order. The index
// must be below MembersCount.
func (l *Layout) MemberAt(i uint32) Member {
	nameOff, nameLen, ti, off := l.readRecord(i)
	return Member{
		Name:     string(l.data[nameOff : nameOff+nameLen]),
		TypeInfo: types.TypeInfo(ti),
		Offset:   int32(off),
	}
}

func (l *Layout) find(name string) int {
	for i := uint32(0); i < l.members; i++ {
		nameOff, nameLen, _, _ := l.readRecord(i)
		if int(nameLen) == len(name) && bytes.Equal(l.data[nameOff:nameOff+nameLen], []byte(name)) {
			return int(i)
		}
	}
	return -1
}

func (l *Layout) remaining() uint32 {
	return l.dataIndex - l.members*memberRecordSize
}

// prepareAdd makes sure n more bytes fit between the record head and the
// name tail, growing the block when they do not. Growth doubles from a
// 512-byte floor, so one step always fits the largest possible request.
func (l *Layout) prepareAdd(n uint32) Error {
	if l.remaining() >= n {
		return ErrorOk
	}
	newSize, err := safecast.Conv[uint32](len(l.data))
	if err != nil {
		return ErrorNoMemory
	}
	newSize *= 2
	if newSize < 512 {
		newSize = 512
	}
	l.resize(newSize)
	return ErrorOk
}

// resize repacks records at the head and names at the tail of a fresh
// block. Name bytes move, so record name offsets are rewritten.
func (l *Layout) resize(newSize uint32) {
	newData := make([]byte, newSize)
	dataIndex := newSize

	if l.hasName {
		dataIndex -= l.nameLen
		copy(newData[dataIndex:], l.data[l.nameOff:l.nameOff+l.nameLen])
		l.nameOff = dataIndex
	}

	for i := uint32(0); i < l.members; i++ {
		nameOff, nameLen, ti, off := l.readRecord(i)
		dataIndex -= nameLen
		copy(newData[dataIndex:], l.data[nameOff:nameOff+nameLen])

		rec := newData[i*memberRecordSize:]
		binary.LittleEndian.PutUint32(rec[0:], dataIndex)
		binary.LittleEndian.PutUint32(rec[4:], nameLen)
		binary.LittleEndian.PutUint32(rec[8:], ti)
		binary.LittleEndian.PutUint32(rec[12:], off)
	}

	l.data = newData
	l.dataIndex = dataIndex
	l.embedded = false
}

func (l *Layout) writeRecord(i, nameOff, nameLen, typeInfo, offset uint32) {
	rec := l.data[i*memberRecordSize:]
	binary.LittleEndian.PutUint32(rec[0:], nameOff)
	binary.LittleEndian.PutUint32(rec[4:], nameLen)
	binary.LittleEndian.PutUint32(rec[8:], typeInfo)
	binary.LittleEndian.PutUint32(rec[12:], offset)
}

func (l *Layout) readRecord(i uint32) (nameOff, nameLen, typeInfo, offset uint32) {
	rec := l.data[i*memberRecordSize:]
	return binary.LittleEndian.Uint32(rec[0:]),
		binary.LittleEndian.Uint32(rec[4:]),
		binary.LittleEndian.Uint32(rec[8:]),
		binary.LittleEndian.Uint32(rec[12:])
}
