package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/odoo-odev/odev-ai/pkg/addons"
	"github.com/odoo-odev/odev-ai/pkg/config"
	"github.com/odoo-odev/odev-ai/pkg/llm"
	"github.com/odoo-odev/odev-ai/pkg/prompt"
	"github.com/odoo-odev/odev-ai/pkg/provider"
	"github.com/odoo-odev/odev-ai/pkg/secrets"
	"github.com/odoo-odev/odev-ai/pkg/setup"
	"github.com/odoo-odev/odev-ai/pkg/usage"
)

var logger = logrus.New()

func main() {
	// A .env file is optional; most installs will not have one.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "odev-ai",
	Short: "AI plugin for the odev framework",
	Long: `Unified access to LLM providers for odev tooling.

Run 'odev-ai setup' once to pick a provider and store an API key, then
'odev-ai ask' to send tasks. The configured provider and its model
fallback order apply to every invocation.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			logger.SetLevel(logrus.DebugLevel)
		}
	},
}

// --- setup command ---

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure the AI provider and API key",
	Long: `Interactively select an LLM provider and store its API key.

The provider choice is written to the config file; the key goes into the
local secret store. Pass --provider (and optionally --api-key) to skip
the prompts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Path()
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		vendorFlag, _ := cmd.Flags().GetString("provider")
		keyFlag, _ := cmd.Flags().GetString("api-key")
		if keyFlag != "" && vendorFlag == "" {
			return fmt.Errorf("--api-key requires --provider")
		}
		if vendorFlag != "" {
			if err := setup.Apply(path, store, vendorFlag, keyFlag); err != nil {
				return err
			}
			fmt.Printf("AI plugin configured: %s\n", vendorFlag)
			return nil
		}

		return setup.New(os.Stdin, os.Stdout, store, path).Run()
	},
}

// --- ask command ---

var askCmd = &cobra.Command{
	Use:   "ask <instruction>",
	Short: "Send a task to the configured provider",
	Long: `Send a task to the configured LLM provider and print the answer.

The instruction is the task text; --context supplies system-level
framing and --file attaches source files. With --schema the answer is
validated JSON; with --preset the prompt comes from a template filled
by --var values.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instruction := strings.Join(args, " ")
		contextText, _ := cmd.Flags().GetString("context")
		files, _ := cmd.Flags().GetStringArray("file")
		model, _ := cmd.Flags().GetString("model")
		schemaPath, _ := cmd.Flags().GetString("schema")
		presetPath, _ := cmd.Flags().GetString("preset")
		vars, _ := cmd.Flags().GetStringToString("var")
		showUsage, _ := cmd.Flags().GetBool("show-usage")

		client, recorder, err := buildClient(model)
		if err != nil {
			return err
		}

		p, err := buildPrompt(instruction, contextText, presetPath, vars, files)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if schemaPath != "" {
			schema, err := os.ReadFile(schemaPath)
			if err != nil {
				return fmt.Errorf("reading schema %s: %w", schemaPath, err)
			}
			raw, err := client.CompletePromptJSON(ctx, p, string(schema))
			if err != nil {
				return err
			}
			fmt.Println(string(raw))
		} else {
			res, err := client.CompletePrompt(ctx, p)
			if err != nil {
				return err
			}
			fmt.Println(res.Text)
		}

		if showUsage {
			report, err := recorder.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, string(report))
		}
		return nil
	},
}

// --- models command ---

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List supported providers and their models",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		current := cfg.Vendor()

		for _, v := range provider.Vendors() {
			marker := ""
			if v == current {
				marker = " (default)"
			}
			fmt.Printf("%s [%s]%s\n", v.Display(), v, marker)
			for i, m := range v.Models() {
				fmt.Printf("  %d. %s\n", i+1, m)
			}
		}

		if current.Known() {
			refs := llm.New(cfg.Settings("")).Models()
			names := make([]string, len(refs))
			for i, r := range refs {
				names[i] = r.String()
			}
			fmt.Printf("\nFallback order: %s\n", strings.Join(names, ", "))
		}
		return nil
	},
}

// --- config command ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the plugin configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		fmt.Print(string(out))

		fmt.Printf("# API key: %s\n", keySource(cfg.Vendor()))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Path()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

// --- deps command ---

var depsCmd = &cobra.Command{
	Use:   "deps <addon>...",
	Short: "Show addon dependencies and install order",
	Long: `Build the dependency graph of the given addons from their manifests
and print the dependency tree plus a topological installation order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, _ := cmd.Flags().GetStringArray("addons-path")
		maxDepth, _ := cmd.Flags().GetInt("max-depth")

		g, err := addons.Build(paths, args, maxDepth)
		if err != nil {
			return err
		}

		for _, name := range g.Missing() {
			logger.Warnf("addon %q not found in addons paths", name)
		}

		fmt.Printf("Dependency tree for: %s\n\n", strings.Join(args, ", "))
		names := g.Addons()
		sort.Strings(names)
		for _, name := range names {
			deps := g.Dependencies(name)
			if len(deps) == 0 {
				continue
			}
			sort.Strings(deps)
			fmt.Printf("  %s -> %s\n", name, strings.Join(deps, ", "))
		}

		order, err := g.InstallOrder()
		if err != nil {
			return err
		}
		fmt.Printf("\nInstallation order:\n")
		for _, name := range order {
			fmt.Printf("  - %s\n", name)
		}
		return nil
	},
}

// --- helpers ---

func loadConfig() (*config.Config, error) {
	path, err := config.Path()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openStore() (*secrets.Store, error) {
	path, err := secrets.DefaultPath()
	if err != nil {
		return nil, err
	}
	return secrets.Open(path)
}

// buildClient assembles the facade from config, secret store, and an
// optional model override restricting the walk to a single model.
func buildClient(modelOverride string) (*llm.Client, *usage.Recorder, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	vendor := cfg.Vendor()
	var order []provider.ModelRef
	if modelOverride != "" {
		ref, err := provider.ParseModelRef(modelOverride, vendor)
		if err != nil {
			return nil, nil, err
		}
		vendor = ref.Vendor
		order = []provider.ModelRef{ref}
	} else {
		order = cfg.ModelOrder()
	}

	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	key, err := config.ResolveAPIKey(vendor, store)
	if err != nil {
		return nil, nil, err
	}

	settings := llm.Settings{
		Vendor:   vendor,
		APIKey:   key,
		Order:    order,
		BaseURLs: cfg.VendorBaseURLs(),
	}

	recorder := usage.NewRecorder()
	client := llm.New(settings,
		llm.WithLogger(logger),
		llm.WithRecorder(recorder),
	)
	return client, recorder, nil
}

func buildPrompt(instruction, contextText, presetPath string, vars map[string]string, files []string) (*prompt.Prompt, error) {
	var p *prompt.Prompt
	if presetPath != "" {
		preset, err := prompt.LoadPreset(presetPath)
		if err != nil {
			return nil, err
		}
		p, err = preset.Build(toAnyMap(vars))
		if err != nil {
			return nil, err
		}
		p.AddText(instruction)
		if contextText != "" {
			p.SetSystem(contextText)
		}
	} else {
		p = prompt.New()
		p.SetSystem(contextText)
		p.AddText(instruction)
	}

	for _, f := range files {
		if err := p.AddFile(f); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func toAnyMap(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// keySource reports where the API key would come from, never the key itself.
func keySource(v provider.Vendor) string {
	if name := v.KeyEnvVar(); name != "" && os.Getenv(name) != "" {
		return "environment (" + name + ")"
	}
	store, err := openStore()
	if err != nil {
		return "not set"
	}
	defer store.Close()
	if key, err := store.Get(config.KeySecretName, config.KeySecretScope); err == nil && key != "" {
		return "secret store"
	}
	return "not set"
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	// setup command flags
	setupCmd.Flags().String("provider", "", "Configure this vendor without prompting")
	setupCmd.Flags().String("api-key", "", "API key to store (requires --provider)")

	// ask command flags
	askCmd.Flags().StringP("context", "c", "", "System context for the task")
	askCmd.Flags().StringArrayP("file", "f", nil, "Attach a file (repeatable)")
	askCmd.Flags().StringP("model", "m", "", "Restrict to one model (vendor/model or bare model name)")
	askCmd.Flags().String("schema", "", "Path to a JSON schema the answer must satisfy")
	askCmd.Flags().String("preset", "", "Path to a prompt preset YAML file")
	askCmd.Flags().StringToString("var", nil, "Preset template variable (key=value, repeatable)")
	askCmd.Flags().Bool("show-usage", false, "Print a token usage report to stderr")

	// deps command flags
	depsCmd.Flags().StringArrayP("addons-path", "p", []string{"."}, "Addons directory to search (repeatable)")
	depsCmd.Flags().Int("max-depth", 1, "Dependency expansion depth (-1 for unlimited)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)

	// register all subcommands
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(depsCmd)
}
