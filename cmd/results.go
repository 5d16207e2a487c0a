package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/crytic/pathfinder/cmd/exitcodes"
	"github.com/crytic/pathfinder/workspace"
	"github.com/spf13/cobra"
)

// resultsCmd lists the test cases recorded in a workspace
var resultsCmd = &cobra.Command{
	Use:           "results <workspace>",
	Short:         "Lists the paths recorded in a results workspace",
	Long:          `Lists the run information and the explored paths recorded in the index of a results workspace`,
	Args:          cobra.ExactArgs(1),
	RunE:          cmdRunResults,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

// cmdRunResults executes the results CLI command
func cmdRunResults(cmd *cobra.Command, args []string) error {
	index, err := workspace.OpenIndex(args[0], false)
	if err != nil {
		cmdLogger.Error("Failed to open the workspace index", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}
	defer index.Close()

	var info workspace.RunInfo
	found, err := index.GetMeta(workspace.MetaRunInfo, &info)
	if err != nil {
		cmdLogger.Error("Failed to read the run information", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}
	records, err := index.ListTestCases()
	if err != nil {
		cmdLogger.Error("Failed to read the recorded test cases", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	out := cmd.OutOrStdout()
	if found {
		fmt.Fprintf(out, "pathfinder %s, started %s, took %s\n", info.Version, info.StartedAt.UTC().Format(time.RFC3339), info.Duration.Round(time.Millisecond))
		fmt.Fprintf(out, "Explored %d of %d assignments, %d distinct paths\n", info.Assignments, info.TotalAssignments, info.Paths)
		if info.StopReason != "" {
			fmt.Fprintf(out, "Stopped early: %s\n", info.StopReason)
		}
		fmt.Fprintln(out)
	}
	for _, record := range records {
		fmt.Fprintf(out, "test_%s  #%-6d %-24s %4d assignment(s)  %s\n",
			record.ID, record.Index, strings.Join(record.Statuses, ","), record.Assignments, formatAssignment(record.Assignment))
	}
	return nil
}

// formatAssignment joins an assignment as name=value pairs, ordered by name.
func formatAssignment(assignment map[string]string) string {
	names := make([]string, 0, len(assignment))
	for name := range assignment {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, len(names))
	for i, name := range names {
		pairs[i] = name + "=" + assignment[name]
	}
	return strings.Join(pairs, " ")
}
