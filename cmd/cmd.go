// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/LyricZhao/DLMO/envconfig"
	"github.com/LyricZhao/DLMO/format"
	"github.com/LyricZhao/DLMO/logutil"
	"github.com/LyricZhao/DLMO/runner"
	"github.com/LyricZhao/DLMO/version"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "dlmo",
		Short:         "Deep-learning memory optimizer",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Println(version.Version)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	runCmd := &cobra.Command{
		Use:   "run CONFIG",
		Short: "Run all cases of a config file (one \"<input> <limit>\" per line)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.Run(args[0])
		},
	}

	optimizeCmd := &cobra.Command{
		Use:   "optimize INPUT OUTPUT LIMIT",
		Short: "Optimize a single case into OUTPUT under the memory LIMIT",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := format.ParseBytes(args[2])
			if err != nil {
				return err
			}
			_, err = runner.RunCase(runner.Case{Input: args[0], Limit: limit}, args[1])
			return err
		},
	}

	envVars := envconfig.AsMap()
	envs := []envconfig.EnvVar{
		envVars["DLMO_DEBUG"],
		envVars["DLMO_SEARCH_LIMIT"],
		envVars["DLMO_PROGRESS_EVERY"],
		envVars["DLMO_REGEN_DEPTH"],
		envVars["DLMO_OCCUPIES_PER_SCORE"],
		envVars["DLMO_QUEUE_LIMIT"],
		envVars["DLMO_PARALLEL"],
		envVars["DLMO_RECONSIDER_RATIO"],
		envVars["DLMO_TIME_TOLERANCE"],
	}
	for _, cmd := range []*cobra.Command{runCmd, optimizeCmd} {
		appendEnvDocs(cmd, envs)
	}

	rootCmd.AddCommand(runCmd, optimizeCmd)

	return rootCmd
}
