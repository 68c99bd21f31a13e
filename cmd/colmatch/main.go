// colmatch matches source column headers against target headers using an AI
// provider, with a local library of confirmed mappings.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"colmatch/internal/config"
	"colmatch/internal/domain"
	"colmatch/internal/logging"
	"colmatch/internal/mappingstore"
	"colmatch/internal/matching"
	"colmatch/internal/provider"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	timeout time.Duration

	// Logger
	logger *zap.Logger

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "colmatch",
	Short: "AI-powered column header matching",
	Long: `colmatch matches column headers from a source dataset against a target
schema using an AI provider (OpenAI, Anthropic, or Google Gemini).

Confirmed mappings are stored locally and bypass the AI backend on later
runs, as well as steering the prompt as few-shot examples.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.LogLevel, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	sourceHeaders []string
	targetHeaders []string

	providerFlag string
	modelFlag    string
	contextFlag  string

	saveConfirmed bool
	outputJSON    bool
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match source headers against target headers",
	Example: `  colmatch match --source "Qty,Desc,Amt" --target "Quantity,Description,Amount"
  colmatch match --source-file headers.txt --target "Quantity,Amount" --json`,
	RunE: runMatch,
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List available providers and their models",
	RunE:  runProviders,
}

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Manage the confirmed mapping library",
}

var mappingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List confirmed mappings",
	RunE:  runMappingsList,
}

var mappingsAddCmd = &cobra.Command{
	Use:   "add <source> <target>",
	Short: "Confirm a source→target mapping",
	Args:  cobra.ExactArgs(2),
	RunE:  runMappingsAdd,
}

var mappingsRemoveCmd = &cobra.Command{
	Use:   "remove <source>",
	Short: "Remove the mapping for a source column",
	Args:  cobra.ExactArgs(1),
	RunE:  runMappingsRemove,
}

var mappingsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import mappings from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runMappingsImport,
}

var mappingsExportCmd = &cobra.Command{
	Use:   "export <file.yaml>",
	Short: "Export confirmed mappings to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runMappingsExport,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./colmatch.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	matchCmd.Flags().StringSliceVar(&sourceHeaders, "source", nil, "Source headers to match (comma-separated)")
	matchCmd.Flags().StringSliceVar(&targetHeaders, "target", nil, "Target headers to match against (comma-separated)")
	matchCmd.Flags().String("source-file", "", "File with one source header per line")
	matchCmd.Flags().String("target-file", "", "File with one target header per line")
	matchCmd.Flags().StringVar(&providerFlag, "provider", "", "Provider ID (overrides config)")
	matchCmd.Flags().StringVar(&modelFlag, "model", "", "Model ID (overrides config)")
	matchCmd.Flags().StringVar(&contextFlag, "context", "", "Industry context hint (overrides config)")
	matchCmd.Flags().BoolVar(&saveConfirmed, "save-confirmed", false, "Store 100%-confidence results as confirmed mappings")
	matchCmd.Flags().BoolVar(&outputJSON, "json", false, "Emit the full report as JSON")

	mappingsAddCmd.Flags().String("context", "", "Optional context note for the mapping")

	mappingsCmd.AddCommand(mappingsListCmd)
	mappingsCmd.AddCommand(mappingsAddCmd)
	mappingsCmd.AddCommand(mappingsRemoveCmd)
	mappingsCmd.AddCommand(mappingsImportCmd)
	mappingsCmd.AddCommand(mappingsExportCmd)

	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(mappingsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runMatch(cmd *cobra.Command, args []string) error {
	source, err := headersFromFlags(cmd, sourceHeaders, "source-file")
	if err != nil {
		return err
	}
	target, err := headersFromFlags(cmd, targetHeaders, "target-file")
	if err != nil {
		return err
	}

	if providerFlag != "" {
		cfg.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	industryContext := cfg.IndustryContext
	if contextFlag != "" {
		industryContext = contextFlag
	}

	providerCfg, err := cfg.ProviderConfig()
	if err != nil {
		return err
	}

	registry := provider.NewDefaultRegistry(logger)
	backend, err := registry.Resolve(providerCfg)
	if err != nil {
		return err
	}

	store, err := mappingstore.Open(cfg.MappingsPath)
	if err != nil {
		return err
	}
	defer store.Close()

	mappings, err := store.List()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	matcher := matching.NewMatcher(logger)
	report, err := matcher.Match(ctx, backend, matching.MatchRequest{
		SourceHeaders:    source,
		TargetHeaders:    target,
		ExistingMappings: mappings,
		IndustryContext:  industryContext,
		Model:            cfg.ModelConfig(),
	})
	if err != nil {
		return err
	}

	if saveConfirmed {
		if err := store.RecordConfirmed(report.Results); err != nil {
			logger.Warn("Failed to store confirmed mappings", zap.Error(err))
		}
	}

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(report)
	return nil
}

func printReport(report *matching.MatchReport) {
	fmt.Printf("Provider: %s\n\n", report.ProviderName)
	for _, r := range report.Results {
		marker := " "
		if r.UsedExistingMapping {
			marker = "*"
		}
		fmt.Printf("%s %-30s → %-30s %5.1f%%  %s\n",
			marker, r.SourceHeader, r.MatchedTargetHeader, r.ConfidencePercentage, r.Reasoning)
	}
	s := report.Stats
	fmt.Printf("\nMatched %d header(s), average confidence %.1f%%\n", s.MatchedHeadersCount, s.AverageConfidence)
	if s.ExistingMappingsUsedCount > 0 {
		fmt.Printf("Existing mappings used: %d (%.0f%% of headers)\n",
			s.ExistingMappingsUsedCount, s.ExistingMappingUtilizationRate)
	}
}

func runProviders(cmd *cobra.Command, args []string) error {
	registry := provider.NewDefaultRegistry(logger)
	for _, id := range registry.Available() {
		models, err := registry.Models(id)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", id, strings.Join(models, ", "))
	}
	return nil
}

func openStore() (*mappingstore.Store, error) {
	return mappingstore.Open(cfg.MappingsPath)
}

func runMappingsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	mappings, err := store.List()
	if err != nil {
		return err
	}
	if len(mappings) == 0 {
		fmt.Println("No confirmed mappings.")
		return nil
	}
	for _, m := range mappings {
		fmt.Println(m.PromptLine())
	}
	return nil
}

func runMappingsAdd(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	note, _ := cmd.Flags().GetString("context")
	m := domain.ColumnMapping{
		SourceColumn: args[0],
		TargetColumn: args[1],
		Context:      note,
	}
	if err := store.Put(m); err != nil {
		return err
	}
	fmt.Println("Confirmed", m.PromptLine())
	return nil
}

func runMappingsRemove(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.Delete(args[0])
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("no mapping found for %q", args[0])
	}
	fmt.Printf("Removed mapping for %q\n", args[0])
	return nil
}

func runMappingsImport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.ImportYAML(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d mapping(s)\n", n)
	return nil
}

func runMappingsExport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ExportYAML(args[0]); err != nil {
		return err
	}
	fmt.Println("Exported to", args[0])
	return nil
}

// headersFromFlags merges the list flag with an optional file of one header
// per line.
func headersFromFlags(cmd *cobra.Command, fromFlag []string, fileFlag string) ([]string, error) {
	headers := append([]string(nil), fromFlag...)

	path, _ := cmd.Flags().GetString(fileFlag)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				headers = append(headers, line)
			}
		}
	}
	return headers, nil
}
