package ports

import (
	"context"

	"go.trai.ch/utica/internal/core/domain"
)

// Builder invokes the external platform build tool for one resolved
// dependency and reports the artifacts it produced.
//
//go:generate go run go.uber.org/mock/mockgen -source=builder.go -destination=mocks/mock_builder.go -package=mocks
type Builder interface {
	// Build compiles the dependency's schemes for the requested platforms.
	// A dependency with no shared schemes returns ErrNoSharedSchemes so the
	// scheduler can downgrade it to a skipped event.
	Build(ctx context.Context, node domain.BuildNode, opts domain.BuildOptions) ([]domain.BuiltArtifact, error)
}
