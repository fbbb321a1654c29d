package store

// Built-in backends register themselves by name.
import (
	_ "github.com/gezibash/arc-bench/internal/blobstore/physical/badger"
	_ "github.com/gezibash/arc-bench/internal/blobstore/physical/fs"
	_ "github.com/gezibash/arc-bench/internal/blobstore/physical/memory"
	_ "github.com/gezibash/arc-bench/internal/blobstore/physical/s3"
	_ "github.com/gezibash/arc-bench/internal/blobstore/physical/seaweedfs"
	_ "github.com/gezibash/arc-bench/internal/kvstore/physical/badger"
	_ "github.com/gezibash/arc-bench/internal/kvstore/physical/memory"
	_ "github.com/gezibash/arc-bench/internal/kvstore/physical/redis"
)
