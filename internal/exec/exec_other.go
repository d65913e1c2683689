//go:build !unix

package exec

import "errors"

// Block is a placeholder on platforms without executable mappings.
type Block struct {
	mem []byte
}

func Alloc(image []byte) (*Block, error) {
	return nil, errors.New("exec: executable memory is not supported on this platform")
}

func (b *Block) Entry() uintptr { return 0 }

func (b *Block) Release() error { return nil }

func (b *Block) Size() int { return len(b.mem) }
