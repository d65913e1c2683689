package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"mpsl/internal/x86"
)

const artifactMagic = "MPB1"

// artifact is the serialized form of one compiled kernel. Code is raw
// host machine code; whoever loads it must check the feature flags
// against the target CPU before mapping it.
type artifact struct {
	Magic   string            `msgpack:"magic"`
	Version string            `msgpack:"version"`
	Source  string            `msgpack:"source"`
	SSE41   bool              `msgpack:"sse41"`
	Code    []byte            `msgpack:"code"`
	Dumps   map[string]string `msgpack:"dumps,omitempty"`
}

func newArtifact(srcPath string, feat x86.Features, code []byte, dumps []dumpSection) *artifact {
	a := &artifact{
		Magic:   artifactMagic,
		Version: version,
		Source:  filepath.Base(srcPath),
		SSE41:   feat.SSE41,
		Code:    code,
	}
	if len(dumps) > 0 {
		a.Dumps = make(map[string]string, len(dumps))
		for _, d := range dumps {
			a.Dumps[d.name] = d.text
		}
	}
	return a
}

func writeArtifact(path string, a *artifact) error {
	data, err := msgpack.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readArtifact(path string) (*artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a artifact
	if err := msgpack.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if a.Magic != artifactMagic {
		return nil, fmt.Errorf("%s: not an mpslc artifact", path)
	}
	return &a, nil
}
