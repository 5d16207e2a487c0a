package explorer

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/pathfinder/explorer/valuegeneration"
	"github.com/crytic/pathfinder/logging"
	"github.com/crytic/pathfinder/logging/colors"
	"github.com/crytic/pathfinder/utils"
	"github.com/crytic/pathfinder/workspace"
	"golang.org/x/sync/errgroup"
)

// Stop reasons reported in ExplorationResult.StopReason.
const (
	StopReasonTimeout     = "timeout reached"
	StopReasonTerminated  = "terminated"
	StopReasonInterrupted = "interrupted"
)

// exploredSymbols returns the symbolic values referenced by the plan, in creation order.
func (e *Explorer) exploredSymbols() []*SymbolicValue {
	referenced := make(map[*SymbolicValue]bool)
	for _, call := range e.plan {
		for _, symbolic := range call.symbols() {
			referenced[symbolic] = true
		}
	}
	return utils.SliceWhere(e.symbolicValues, func(s *SymbolicValue) bool {
		return referenced[s]
	})
}

// candidateDomains builds the candidate domain of each symbol.
func (e *Explorer) candidateDomains(symbols []*SymbolicValue) ([][]any, error) {
	// Domains are drawn in a fixed order from a single seeded source, so equal seeds yield equal domains.
	rng := rand.New(rand.NewSource(e.config.Exploration.Seed))
	domainConfig := valuegeneration.DomainConfig{
		MaxCandidates:    e.config.Exploration.MaxCandidatesPerSymbol,
		RandomCandidates: e.config.Exploration.RandomCandidates,
	}

	domains := make([][]any, len(symbols))
	for i, symbolic := range symbols {
		domain, err := valuegeneration.CandidateDomain(symbolic.Type(), e.valueSet, rng, domainConfig)
		if err != nil {
			return nil, fmt.Errorf("could not build the candidate domain of %s: %w", symbolic.Name(), err)
		}
		domains[i] = domain
	}
	return domains, nil
}

// Run explores every recorded call for each candidate assignment of the symbolic values they reference, then
// writes the results into the workspace. Exploration stops early once the configured timeout passes, ctx is
// cancelled or Terminate is called; the results gathered until then are still written. Run may only be called once.
func (e *Explorer) Run(ctx context.Context) (*ExplorationResult, error) {
	if e.explored {
		return nil, ErrAlreadyExplored
	}
	e.explored = true

	startedAt := time.Now()
	symbols := e.exploredSymbols()
	domains, err := e.candidateDomains(symbols)
	if err != nil {
		return nil, err
	}
	lengths := utils.SliceSelect(domains, func(d []any) int { return len(d) })
	assignments := utils.CartesianProduct(domains, e.config.Exploration.PathLimit)

	result := &ExplorationResult{
		TotalAssignments: utils.CartesianProductSize(lengths, math.MaxInt),
		StartedAt:        startedAt,
	}

	if e.config.Logging.LogToWorkspace {
		logFile, err := e.workspace.CreateFile(workspace.LogFileName)
		if err != nil {
			return nil, err
		}
		logging.GlobalLogger.AddWriter(logFile, logging.STRUCTURED)
		e.logger = logging.GlobalLogger.NewSubLogger("module", logging.EXPLORER_SERVICE)
		defer func() {
			logging.GlobalLogger.RemoveWriter(logFile)
			_ = logFile.Close()
		}()
	}

	// The run context is cancelled by the timeout, by Terminate, or by the caller.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if timeout := e.config.Exploration.Timeout; timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, time.Duration(timeout)*time.Second)
		defer cancel()
	}
	e.runLock.Lock()
	e.cancelRun = cancel
	if e.terminated {
		cancel()
	}
	e.runLock.Unlock()
	defer func() {
		e.runLock.Lock()
		e.cancelRun = nil
		e.runLock.Unlock()
	}()

	err = e.Events.ExplorationStarting.Publish(ExplorationStartingEvent{
		Explorer:         e,
		Assignments:      len(assignments),
		TotalAssignments: result.TotalAssignments,
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("Exploring ", colors.Bold, len(e.plan), colors.Reset, " call(s) over ", colors.Bold, len(assignments), colors.Reset,
		" assignment(s) of ", len(symbols), " symbolic value(s) with ", e.config.Exploration.Workers, " worker(s)")

	paths, visited, executed, err := e.explore(runCtx, symbols, assignments)
	if err != nil {
		return nil, err
	}
	result.Paths = paths
	result.Assignments = executed
	result.Duration = time.Since(startedAt)
	if executed < len(assignments) {
		result.StopReason = e.stopReason(ctx, runCtx)
	}

	if result.WorkspacePath, err = e.writeResults(result, symbols, domains, visited); err != nil {
		return nil, err
	}
	if result.Truncated() && result.StopReason == "" {
		e.logger.Warn("Explored ", executed, " of ", result.TotalAssignments, " assignments, the path limit was reached")
	}
	e.logger.Info("Found ", colors.Bold, len(paths), colors.Reset, " distinct path(s) in ", result.Duration.Round(time.Millisecond))

	if err = e.Events.ExplorationFinished.Publish(ExplorationFinishedEvent{Explorer: e, Result: result}); err != nil {
		return nil, err
	}
	return result, nil
}

// stopReason describes why runCtx was cancelled.
func (e *Explorer) stopReason(ctx context.Context, runCtx context.Context) string {
	e.runLock.Lock()
	terminated := e.terminated
	e.runLock.Unlock()

	switch {
	case terminated:
		return StopReasonTerminated
	case ctx.Err() != nil:
		return StopReasonInterrupted
	case runCtx.Err() == context.DeadlineExceeded:
		return StopReasonTimeout
	default:
		return StopReasonInterrupted
	}
}

// explore executes assignments on the configured amount of workers and groups them into paths. Returns the paths
// ordered by their representative index, the program counters visited, and the amount of assignments executed.
func (e *Explorer) explore(ctx context.Context, symbols []*SymbolicValue, assignments [][]any) ([]*Path, map[common.Address]map[uint64]struct{}, int, error) {
	group, groupCtx := errgroup.WithContext(ctx)
	indices := make(chan int)
	outcomes := make(chan *assignmentOutcome)

	group.Go(func() error {
		defer close(indices)
		for i := range assignments {
			if groupCtx.Err() != nil {
				return nil
			}
			select {
			case indices <- i:
			case <-groupCtx.Done():
				return nil
			}
		}
		return nil
	})
	for i := 0; i < e.config.Exploration.Workers; i++ {
		worker := &explorerWorker{explorer: e, workerIndex: i, symbols: symbols}
		group.Go(func() error {
			for index := range indices {
				if groupCtx.Err() != nil {
					return nil
				}
				outcome, err := worker.execute(index, assignments[index])
				if err != nil {
					return err
				}
				select {
				case outcomes <- outcome:
				case <-groupCtx.Done():
					return nil
				}
			}
			return nil
		})
	}

	workersDone := make(chan error, 1)
	go func() {
		workersDone <- group.Wait()
		close(outcomes)
	}()

	collector := newPathCollector()
	var handlerErr error
	for outcome := range outcomes {
		if handlerErr != nil {
			continue
		}
		path, discovered := collector.add(outcome)
		if discovered {
			e.logger.Debug("Discovered path ", path.ID, " with assignment #", path.Index)
			handlerErr = e.Events.PathDiscovered.Publish(PathDiscoveredEvent{Explorer: e, Path: path})
		}
		if handlerErr != nil {
			// Stop the workers, and drain their remaining outcomes.
			e.Terminate()
		}
	}
	if err := <-workersDone; err != nil {
		return nil, nil, 0, err
	}
	if handlerErr != nil {
		return nil, nil, 0, handlerErr
	}
	return collector.sortedPaths(), collector.visited, collector.executed, nil
}

// pathCollector groups assignment outcomes into paths.
type pathCollector struct {
	paths    map[common.Hash]*Path
	ids      map[string]bool
	visited  map[common.Address]map[uint64]struct{}
	executed int
}

func newPathCollector() *pathCollector {
	return &pathCollector{
		paths:   make(map[common.Hash]*Path),
		ids:     make(map[string]bool),
		visited: make(map[common.Address]map[uint64]struct{}),
	}
}

// add records an outcome, returning its path and whether the path was new.
func (c *pathCollector) add(outcome *assignmentOutcome) (*Path, bool) {
	c.executed++
	for addr, pcs := range outcome.visited {
		merged, ok := c.visited[addr]
		if !ok {
			merged = make(map[uint64]struct{}, len(pcs))
			c.visited[addr] = merged
		}
		for pc := range pcs {
			merged[pc] = struct{}{}
		}
	}

	path, exists := c.paths[outcome.signature]
	if !exists {
		id := pathID(outcome.signature, func(id string) bool { return c.ids[id] })
		c.ids[id] = true
		path = &Path{ID: id, Signature: outcome.signature, Index: outcome.index}
		c.paths[outcome.signature] = path
		path.setRepresentative(outcome)
	} else if outcome.index < path.Index {
		path.setRepresentative(outcome)
	}
	path.Assignments++
	return path, !exists
}

// sortedPaths returns the paths ordered by the index of their representative.
func (c *pathCollector) sortedPaths() []*Path {
	paths := make([]*Path, 0, len(c.paths))
	for _, path := range c.paths {
		paths = append(paths, path)
	}
	sortPaths(paths)
	return paths
}

// setRepresentative makes outcome the representative assignment of the path.
func (p *Path) setRepresentative(outcome *assignmentOutcome) {
	p.Index = outcome.index
	p.Assignment = outcome.assignment
	p.Calls = outcome.calls
	p.tokens = outcome.tokens
}

// signatureHex returns the hex encoded signature of the path.
func (p *Path) signatureHex() string {
	return hex.EncodeToString(p.Signature[:])
}

// sortPaths orders paths by the index of their representative assignment.
func sortPaths(paths []*Path) {
	sort.Slice(paths, func(i, j int) bool {
		return paths[i].Index < paths[j].Index
	})
}
