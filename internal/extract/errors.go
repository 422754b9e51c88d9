// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import "fmt"

// Kind classifies a document-level extraction failure.
type Kind int

const (
	// KindUnavailable means the rasterizer cannot run on this host.
	KindUnavailable Kind = iota + 1
	// KindOpen means the document could not be opened or parsed.
	KindOpen
	// KindUnexpected covers everything else, including renderer panics
	// and cancellation.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindOpen:
		return "open"
	case KindUnexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is returned by ExtractDocument when a whole document fails. Page
// failures are not errors; they are listed in DocumentResult.Failures.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failure for %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Stage names the step at which a page failed.
type Stage string

const (
	StagePage     Stage = "page"
	StageAllocate Stage = "allocate"
	StageDraw     Stage = "draw"
	StageEncode   Stage = "encode"
	StageWrite    Stage = "write"
)

// PageFailure records a page that produced no image.
type PageFailure struct {
	Page     int
	Filename string
	Stage    Stage
	Err      error
}

func (f PageFailure) String() string {
	return fmt.Sprintf("page %d (%s): %v", f.Page, f.Stage, f.Err)
}
