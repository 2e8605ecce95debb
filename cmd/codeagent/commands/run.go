package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/relaycode/codeagent/internal/agentloop"
	"github.com/relaycode/codeagent/internal/config"
	"github.com/relaycode/codeagent/internal/provider"
	"github.com/relaycode/codeagent/internal/storage"
	"github.com/relaycode/codeagent/internal/tool"
	"github.com/relaycode/codeagent/pkg/types"
	"github.com/spf13/cobra"
)

var (
	runModel          string
	runDir            string
	runMaxIterations  int
	runSkipPlanning   bool
	runSkipValidation bool
	runSystemPrompt   string
)

var runCmd = &cobra.Command{
	Use:   "run [task...]",
	Short: "Execute a single task with the autonomous agent loop",
	Long: `Run drives the Agent Loop (spec §4.1) against a task description:
git-session bootstrap, an optional planning call, an execute/dispatch
loop against the tool registry until the model reports a final answer
or the iteration cap is reached, an optional validation call, then a
git review of what changed.

Examples:
  codeagent run "Fix the nil pointer panic in parser.go"
  codeagent run --model anthropic/claude-sonnet-4 "Add input validation to the login handler"`,
	RunE: runTask,
}

func init() {
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "Model to use for both simple and complex endpoints (provider/model format)")
	runCmd.Flags().StringVar(&runDir, "directory", "", "Workspace directory (defaults to the current directory)")
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 0, "Override the configured iteration cap")
	runCmd.Flags().BoolVar(&runSkipPlanning, "no-plan", false, "Skip the optional planning call even when multi-model is enabled")
	runCmd.Flags().BoolVar(&runSkipValidation, "no-validate", false, "Skip the optional validation call even when multi-model is enabled")
	runCmd.Flags().StringVar(&runSystemPrompt, "system-prompt", "", "Override the default system directive")
}

func runTask(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(runDir)
	if err != nil {
		return err
	}

	task := strings.Join(args, " ")
	if task == "" {
		return fmt.Errorf("task required. Usage: codeagent run \"<task description>\"")
	}

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return err
	}

	appConfig, err := config.Load(workDir)
	if err != nil {
		return err
	}
	if runModel != "" {
		appConfig.Model = runModel
		appConfig.ModelProviderConfig = &types.ModelProviderConfig{
			Simple:  types.Endpoint{ModelName: runModel},
			Complex: types.Endpoint{ModelName: runModel},
		}
		appConfig.UseMultiModel = false
	}

	ctx := context.Background()
	providerReg, err := provider.InitializeProviders(ctx, appConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize providers: %w", err)
	}

	store := storage.New(paths.StoragePath())
	toolReg := tool.DefaultRegistry(workDir, store)

	loop := agentloop.New(appConfig, toolReg, providerReg)

	result, err := loop.ExecuteTask(ctx, task, agentloop.Options{
		SystemDirective: runSystemPrompt,
		MaxIterations:   runMaxIterations,
		SkipPlanning:    runSkipPlanning,
		SkipValidation:  runSkipValidation,
	})
	if err != nil {
		return fmt.Errorf("executing task: %w", err)
	}

	fmt.Fprintf(os.Stdout, "%s\n\n", result.Response)
	fmt.Fprintf(os.Stdout, "iterations: %d, tool calls: %d, success: %v\n", result.Iterations, result.ActionsCount, result.Success)
	if result.ValidationNote != "" {
		fmt.Fprintf(os.Stdout, "validation: %s\n", result.ValidationNote)
	}
	if result.GitReview != "" {
		fmt.Fprintf(os.Stdout, "\n%s\n", result.GitReview)
	}
	if !result.Success {
		os.Exit(1)
	}
	return nil
}
