package ir

// VRegID names a virtual register. IDs are 1-based; zero is "no
// register" so the zero Instr reads as operand-free.
type VRegID uint32

// BlockID names a basic block, 0-based: blocks live in a dense slice.
// A block can be left without predecessors, such as the join block
// after an if whose arms both return.
type BlockID uint32

// PoolID names a constant-pool entry. 1-based, zero means none.
type PoolID uint32

const (
	NoVReg VRegID = 0
	NoPool PoolID = 0
)

func (id VRegID) IsValid() bool { return id != NoVReg }
func (id PoolID) IsValid() bool { return id != NoPool }
