package git

import (
	"context"

	"github.com/grindlemire/graft"
)

// RunnerNodeID is the unique identifier for the git runner Graft node.
const RunnerNodeID graft.ID = "adapter.git_runner"

func init() {
	graft.Register(graft.Node[Runner]{
		ID:        RunnerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (Runner, error) {
			return ExecRunner{}, nil
		},
	})
}
