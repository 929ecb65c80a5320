package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/surge-devops/surge/internal/ai"
	"github.com/surge-devops/surge/internal/runner"
)

func newAICmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Summarize system health with an LLM and offer fixes",
		Long: `Collect load, memory and disk metrics, ask a language model for a
SUMMARY / ISSUES / ACTIONS report and offer to run the suggested commands.

The gemini provider reads its key from GEMINI_API_KEY. The ollama provider
talks to a local server (default http://localhost:11434).

Diagnostic commands (systemctl status, journalctl, ps aux, ...) run without
per-command confirmation; anything else asks first.`,
		Example: `  surge ai
  surge ai -f structured -v concise
  surge ai --provider ollama --model llama3.2`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.AI
			format, err := ai.ParseDataFormat(c.Format)
			if err != nil {
				return usageError("%v", err)
			}
			verbosity, err := ai.ParseVerbosity(c.Verbosity)
			if err != nil {
				return usageError("%v", err)
			}
			provider := ai.Provider(strings.ToLower(c.Provider))
			if provider != ai.ProviderGemini && provider != ai.ProviderOllama {
				return usageError("invalid provider: %s (must be 'gemini' or 'ollama')", c.Provider)
			}

			model, err := a.deps.NewModel(ai.ModelConfig{
				Provider: provider,
				Model:    c.Model,
				Endpoint: c.Endpoint,
				APIKey:   a.deps.Getenv("GEMINI_API_KEY"),
			})
			if err != nil {
				return err
			}

			fixes := ai.NewExecutor(a.runner(runner.WithTimeout(ai.FixTimeout)))
			mon := ai.NewMonitor(a.collector(a.runner()), model, fixes, a.deps.Confirm, cmd.OutOrStdout(), ai.Options{
				Format:    format,
				Verbosity: verbosity,
				AutoFix:   c.AutoFix,
			})
			return mon.Run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringP("format", "f", string(ai.FormatHybrid), "Data format sent to the model: raw, structured or hybrid")
	f.StringP("verbosity", "v", string(ai.VerbosityNormal), "Response detail: concise, normal or detailed")
	f.Bool("auto-fix", false, "Run diagnostic commands without asking to review fixes")
	f.String("provider", string(ai.ProviderGemini), "LLM provider: gemini or ollama")
	f.String("model", "", "Model name (provider default when empty)")
	f.String("endpoint", "", "Provider endpoint URL (provider default when empty)")

	a.bind(f, map[string]string{
		"ai.format":    "format",
		"ai.verbosity": "verbosity",
		"ai.auto_fix":  "auto-fix",
		"ai.provider":  "provider",
		"ai.model":     "model",
		"ai.endpoint":  "endpoint",
	})
	return cmd
}
