package ir

import (
	"encoding/binary"

	"mpsl/internal/ast"
	"mpsl/internal/types"
)

// PoolEntry is one interned constant, padded with zero bytes up to the
// register width that loads it.
type PoolEntry struct {
	Data [32]byte
	Size uint32
}

// Pool interns the constants a function embeds. Identical bytes share
// one entry.
type Pool struct {
	entries []PoolEntry
	index   map[PoolEntry]PoolID
}

func NewPool() *Pool {
	return &Pool{index: make(map[PoolEntry]PoolID)}
}

// Intern stores data and returns its entry, reusing an existing entry
// with the same bytes and size.
func (p *Pool) Intern(data []byte) PoolID {
	var e PoolEntry
	e.Size = uint32(copy(e.Data[:], data))
	if id, ok := p.index[e]; ok {
		return id
	}
	p.entries = append(p.entries, e)
	id := PoolID(len(p.entries))
	p.index[e] = id
	return id
}

// InternValue serializes the lanes of a constant little-endian and
// interns the result.
func (p *Pool) InternValue(v ast.Value, kind types.Kind, lanes uint32) PoolID {
	var buf [32]byte
	n := 0
	for i := uint32(0); i < lanes; i++ {
		if kind == types.KindDouble {
			binary.LittleEndian.PutUint64(buf[n:], v.Lanes[i])
			n += 8
			continue
		}
		bits := uint32(v.Lanes[i])
		if kind == types.KindBool && v.Bool(i) {
			// bool lanes materialize as full masks
			bits = 0xFFFFFFFF
		}
		binary.LittleEndian.PutUint32(buf[n:], bits)
		n += 4
	}
	return p.Intern(buf[:n])
}

func (p *Pool) Get(id PoolID) *PoolEntry {
	return &p.entries[id-1]
}

func (p *Pool) Len() int {
	return len(p.entries)
}

// Compact drops entries not referenced by any instruction and rewrites
// the Extra of each OpConst. Called by the legalization pass after
// folding may have orphaned entries.
func (p *Pool) Compact(fn *Fn) {
	used := make([]bool, len(p.entries))
	for bi := range fn.Blocks {
		for ii := range fn.Blocks[bi].Instrs {
			in := &fn.Blocks[bi].Instrs[ii]
			if in.Op == OpConst {
				used[in.Extra-1] = true
			}
		}
	}

	remap := make([]PoolID, len(p.entries))
	kept := p.entries[:0]
	for i, e := range p.entries {
		if !used[i] {
			continue
		}
		kept = append(kept, e)
		remap[i] = PoolID(len(kept))
	}
	p.entries = kept
	p.index = make(map[PoolEntry]PoolID, len(kept))
	for i, e := range kept {
		p.index[e] = PoolID(i + 1)
	}

	for bi := range fn.Blocks {
		for ii := range fn.Blocks[bi].Instrs {
			in := &fn.Blocks[bi].Instrs[ii]
			if in.Op == OpConst {
				in.Extra = uint32(remap[in.Extra-1])
			}
		}
	}
}
