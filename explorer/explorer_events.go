package explorer

import (
	"github.com/crytic/pathfinder/events"
)

// ExplorerEvents defines event emitters for an Explorer. An error returned by a handler aborts the exploration.
type ExplorerEvents struct {
	// ExplorationStarting emits events once candidate assignments were enumerated and workers are about to start.
	ExplorationStarting events.EventEmitter[ExplorationStartingEvent]

	// PathDiscovered emits events when an assignment follows a path no earlier assignment followed.
	PathDiscovered events.EventEmitter[PathDiscoveredEvent]

	// ExplorationFinished emits events once exploration stopped and its results were written.
	ExplorationFinished events.EventEmitter[ExplorationFinishedEvent]
}

// ExplorationStartingEvent describes an exploration about to execute its assignments.
type ExplorationStartingEvent struct {
	// Explorer represents the instance of the Explorer for which the event occurred.
	Explorer *Explorer

	// Assignments is the amount of assignments which will be executed.
	Assignments int

	// TotalAssignments is the amount of assignments the candidate domains allow, before the path limit.
	TotalAssignments int
}

// PathDiscoveredEvent describes a newly discovered path. The path's representative may still change to an
// assignment with a lower index discovered later by another worker.
type PathDiscoveredEvent struct {
	// Explorer represents the instance of the Explorer for which the event occurred.
	Explorer *Explorer

	// Path is the discovered path.
	Path *Path
}

// ExplorationFinishedEvent describes a finished exploration.
type ExplorationFinishedEvent struct {
	// Explorer represents the instance of the Explorer for which the event occurred.
	Explorer *Explorer

	// Result is the result of the exploration.
	Result *ExplorationResult
}
