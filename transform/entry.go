package transform

import (
	"context"
	"time"
)

// ClassEntry is a classfile inside an archive.
type ClassEntry struct {
	Time time.Time
	Name string
	Data []byte
}

// ResourceEntry is any other file inside an archive.
type ResourceEntry struct {
	Time time.Time
	Name string
	Data []byte
}

// Processor rewrites archive entries. Implementations are safe for
// concurrent use.
type Processor interface {
	ProcessClass(ctx context.Context, e ClassEntry) (ClassEntry, error)
	ProcessResource(ctx context.Context, e ResourceEntry) (ResourceEntry, error)
}
