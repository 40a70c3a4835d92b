package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Iron-Ham/parplan/internal/analyzer"
	"github.com/Iron-Ham/parplan/internal/config"
	"github.com/Iron-Ham/parplan/internal/conflict"
	"github.com/Iron-Ham/parplan/internal/logging"
	"github.com/Iron-Ham/parplan/internal/task"
	"github.com/Iron-Ham/parplan/internal/tui/styles"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <task-file>",
	Short: "Analyze a task file and print the execution plan",
	Long: `Analyze reads a JSON or YAML task file, builds the dependency graph,
detects duplicates and conflicts, and prints the batched execution plan
with a parallel-or-sequential recommendation.

Examples:
  # Analyze a task file
  parplan analyze tasks.yaml

  # Machine-readable output
  parplan analyze tasks.json --json

  # Tighten the duplicate threshold for one run
  parplan analyze tasks.yaml --duplicate-threshold 0.9`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var analyzeJSON bool // Output the analysis as JSON

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output the analysis as JSON")
	analyzeCmd.Flags().Float64("implicit-threshold", 0, "confidence above which textual ordering hints become dependencies")
	analyzeCmd.Flags().Float64("duplicate-threshold", 0, "edit similarity above which tasks are flagged as duplicates")
	analyzeCmd.Flags().Float64("semantic-threshold", 0, "token overlap above which tasks conflict semantically")
	analyzeCmd.Flags().Float64("speedup-threshold", 0, "estimated speedup required to recommend parallel execution")
	analyzeCmd.Flags().Int("max-batch-size", 0, "maximum tasks per batch (0 = unlimited)")

	_ = viper.BindPFlag("analysis.implicit_threshold", analyzeCmd.Flags().Lookup("implicit-threshold"))
	_ = viper.BindPFlag("analysis.duplicate_threshold", analyzeCmd.Flags().Lookup("duplicate-threshold"))
	_ = viper.BindPFlag("analysis.semantic_threshold", analyzeCmd.Flags().Lookup("semantic-threshold"))
	_ = viper.BindPFlag("analysis.speedup_threshold", analyzeCmd.Flags().Lookup("speedup-threshold"))
	_ = viper.BindPFlag("analysis.max_batch_size", analyzeCmd.Flags().Lookup("max-batch-size"))

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	analysis, err := analyzeFile(args[0], cfg)
	if err != nil {
		return err
	}

	if analyzeJSON || cfg.Output.Format == "json" {
		return printAnalysisJSON(analysis)
	}
	printAnalysisText(analysis, cfg.Output.Color)
	return nil
}

// analyzeFile loads a task file and runs the full analysis with the
// configured thresholds. Shared by analyze, watch, and view.
func analyzeFile(path string, cfg *config.Config) (*analyzer.Analysis, error) {
	raws, err := task.LoadFile(path)
	if err != nil {
		return nil, err
	}

	var logger *logging.Logger
	if cfg.Logging.Enabled {
		logger, err = logging.NewLoggerWithRotation(cfg.Logging.File, strings.ToUpper(cfg.Logging.Level), logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			Compress:   cfg.Logging.Compress,
		})
		if err != nil {
			return nil, err
		}
		defer logger.Close()
		logger = logger.WithInput(path)
	}

	return analyzer.Analyze(raws, analyzer.Options{
		ImplicitThreshold:  cfg.Analysis.ImplicitThreshold,
		DuplicateThreshold: cfg.Analysis.DuplicateThreshold,
		SemanticThreshold:  cfg.Analysis.SemanticThreshold,
		OrderingHintFloor:  cfg.Analysis.OrderingHintFloor,
		SpeedupThreshold:   cfg.Analysis.SpeedupThreshold,
		MaxBatchSize:       cfg.Analysis.MaxBatchSize,
		AppendOnlyPatterns: cfg.Analysis.AppendOnlyPatterns,
		Logger:             logger,
	})
}

func printAnalysisJSON(analysis *analyzer.Analysis) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(analysis)
}

func printAnalysisText(a *analyzer.Analysis, color bool) {
	s := styles.ForColor(color)

	fmt.Println()
	fmt.Println(s.Title.Render("EXECUTION PLAN"))
	fmt.Println(strings.Repeat("─", 50))

	mode := s.Parallel.Render(string(a.Recommendation.Mode))
	if a.Recommendation.Mode == analyzer.ModeSequential {
		mode = s.Sequential.Render(string(a.Recommendation.Mode))
	}
	fmt.Printf("Recommendation: %s\n", mode)
	fmt.Printf("  %s\n", s.Muted.Render(a.Recommendation.Reasoning))
	fmt.Println()

	fmt.Printf("Tasks: %d   Batches: %d   Parallelism: %.0f%%\n",
		a.Stats.TaskCount, a.Stats.BatchCount, a.Stats.ParallelismScore)
	fmt.Printf("Effort: %.1f total, %.1f on the critical path (%.2fx speedup)\n",
		a.Metrics.TotalEffort, a.Metrics.CriticalPathEffort, a.Metrics.EstimatedSpeedup)
	if len(a.Metrics.CriticalPath) > 0 {
		fmt.Printf("Critical path: %s\n", strings.Join(a.Metrics.CriticalPath, " → "))
	}
	fmt.Println()

	fmt.Println(s.Title.Render("BATCHES"))
	fmt.Println(strings.Repeat("─", 50))
	for i, batch := range a.Batches {
		fmt.Printf("%s %s\n", s.BatchLabel.Render(fmt.Sprintf("Batch %d:", i+1)), strings.Join(batch, ", "))
	}

	if len(a.Conflicts) > 0 {
		fmt.Println()
		fmt.Println(s.Title.Render("CONFLICTS"))
		fmt.Println(strings.Repeat("─", 50))
		for _, c := range a.Conflicts {
			fmt.Printf("%s %s ↔ %s (%s): %s\n",
				severityBadge(s, c.Severity), c.TaskA, c.TaskB, c.Type, c.Rationale)
		}
	}

	if len(a.Duplicates) > 0 {
		fmt.Println()
		fmt.Println(s.Title.Render("DUPLICATES"))
		fmt.Println(strings.Repeat("─", 50))
		for _, d := range a.Duplicates {
			fmt.Printf("%s duplicates %s (similarity %.2f)\n", d.Duplicate, d.Original, d.Similarity)
		}
	}

	if len(a.ImplicitEdges) > 0 {
		fmt.Println()
		fmt.Println(s.Title.Render("INFERRED DEPENDENCIES"))
		fmt.Println(strings.Repeat("─", 50))
		for _, e := range a.ImplicitEdges {
			fmt.Printf("%s → %s (%s %q, confidence %.2f)\n", e.From, e.To, e.Phrase, e.Reference, e.Confidence)
		}
	}

	if len(a.RedundantEdges) > 0 {
		fmt.Println()
		fmt.Println(s.Title.Render("REDUNDANT DEPENDENCIES"))
		fmt.Println(strings.Repeat("─", 50))
		for _, e := range a.RedundantEdges {
			fmt.Printf("%s → %s is already implied transitively\n", e.From, e.To)
		}
	}
	fmt.Println()
}

func severityBadge(s styles.Set, severity conflict.Severity) string {
	switch severity {
	case conflict.SeverityHigh:
		return s.High.Render("[high]")
	case conflict.SeverityMedium:
		return s.Medium.Render("[medium]")
	default:
		return s.Low.Render("[low]")
	}
}
