package domain

import "fmt"

// EventKind discriminates the variants of ProjectEvent.
type EventKind int

const (
	// EventCloning fires when a mirror is cloned for the first time.
	EventCloning EventKind = iota
	// EventFetching fires when an existing mirror fetches new refs.
	EventFetching
	// EventCheckingOut fires when a working tree is populated at a revision.
	EventCheckingOut
	// EventDownloadingBinaries fires when binary assets are downloaded.
	EventDownloadingBinaries
	// EventSkippedDownloadingBinaries fires when a binary download is skipped.
	EventSkippedDownloadingBinaries
	// EventSkippedBuilding fires when a dependency is not built, with a reason.
	EventSkippedBuilding
	// EventSkippedBuildingCached fires when a cached artifact is reused.
	EventSkippedBuildingCached
	// EventRebuildingCached fires when a cached artifact is invalidated.
	EventRebuildingCached
	// EventBuildingUncached fires when a dependency builds with no cache entry.
	EventBuildingUncached
	// EventSkippedInstallingBinaries fires when a binary install fails and the
	// dependency falls through to a source build.
	EventSkippedInstallingBinaries
)

// ProjectEvent is one observable step of the provisioning pipeline. Events for
// a single dependency are totally ordered; no ordering is promised between
// independent dependencies.
type ProjectEvent struct {
	Kind       EventKind
	Dependency Dependency
	Revision   string
	Reason     string
	Err        error
}

func (e ProjectEvent) String() string {
	name := e.Dependency.Name()
	switch e.Kind {
	case EventCloning:
		return "*** Cloning " + name
	case EventFetching:
		return "*** Fetching " + name
	case EventCheckingOut:
		return fmt.Sprintf("*** Checking out %s at %q", name, e.Revision)
	case EventDownloadingBinaries:
		return fmt.Sprintf("*** Downloading binaries for %s at %q", name, e.Revision)
	case EventSkippedDownloadingBinaries:
		return fmt.Sprintf("*** Skipped downloading binaries for %s: %s", name, e.Reason)
	case EventSkippedBuilding:
		return fmt.Sprintf("*** Skipped building %s: %s", name, e.Reason)
	case EventSkippedBuildingCached:
		return "*** Valid cache found for " + name + ", skipping build"
	case EventRebuildingCached:
		return "*** Invalid cache found for " + name + ", rebuilding"
	case EventBuildingUncached:
		return "*** No cache found for " + name + ", building"
	default:
		return fmt.Sprintf("*** Skipped installing binaries for %s: %v", name, e.Err)
	}
}
