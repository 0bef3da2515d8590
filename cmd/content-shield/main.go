package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bnema/content-shield/internal/bus"
	"github.com/bnema/content-shield/internal/dom"
	"github.com/bnema/content-shield/internal/engine"
	"github.com/bnema/content-shield/internal/fetcher"
	"github.com/bnema/content-shield/internal/models"
	"github.com/bnema/content-shield/internal/pattern"
	"github.com/bnema/content-shield/internal/settings"
)

var (
	cfgFile string
	debug   bool
	cfg     models.Config
	logger  = zap.NewNop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "content-shield",
	Short: "Keyword-based content filtering for web pages",
	Long: `A tool that obscures page content matching configured keywords:
blur it, censor it with an opaque block, or remove it entirely.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			l, err := zap.NewDevelopment()
			if err == nil {
				logger = l
			}
		}
	},
}

var filterCmd = &cobra.Command{
	Use:   "filter [file]",
	Short: "Filter a document once and write the result",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFilter,
}

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Filter a document and keep refiltering on settings changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Manage the keyword set and filter mode",
}

var keywordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured keywords",
	RunE:  runKeywordsList,
}

var keywordsAddCmd = &cobra.Command{
	Use:   "add <keyword>...",
	Short: "Add a keyword phrase",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runKeywordsAdd,
}

var keywordsRemoveCmd = &cobra.Command{
	Use:   "remove <keyword>...",
	Short: "Remove a keyword phrase",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runKeywordsRemove,
}

var keywordsModeCmd = &cobra.Command{
	Use:   "mode <blur|censor|remove>",
	Short: "Set the filter mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeywordsMode,
}

var keywordsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import keywords from a plain-text list, one phrase per line",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeywordsImport,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	RunE:  runInit,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./configs/content-shield.toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	filterCmd.Flags().StringP("url", "u", "", "fetch the document from a URL")
	filterCmd.Flags().StringP("output", "o", "", "write the filtered document to a file (default: stdout)")
	filterCmd.Flags().Bool("verbose", false, "verbose output")

	keywordsCmd.AddCommand(keywordsListCmd, keywordsAddCmd, keywordsRemoveCmd, keywordsModeCmd, keywordsImportCmd)
	rootCmd.AddCommand(filterCmd, watchCmd, keywordsCmd, initCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("content-shield")
		viper.SetConfigType("toml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	// Set defaults
	viper.SetDefault("http.timeout", "15s")
	viper.SetDefault("http.retries", 3)
	viper.SetDefault("settings.path", "./configs/settings.toml")
	viper.SetDefault("scan.max_ancestor_depth", 15)
	viper.SetDefault("scan.min_container_width", 200)
	viper.SetDefault("scan.min_container_height", 200)
	viper.SetDefault("scan.poll_interval", "500ms")
	viper.SetDefault("scan.settle_delay", "300ms")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing config: %v\n", err)
	}
}

func engineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.MaxAncestorDepth = cfg.Scan.MaxAncestorDepth
	opts.MinContainerWidth = cfg.Scan.MinContainerWidth
	opts.MinContainerHeight = cfg.Scan.MinContainerHeight
	opts.PollInterval = cfg.Scan.PollInterval
	opts.SettleDelay = cfg.Scan.SettleDelay
	return opts
}

func loadDocument(cmd *cobra.Command, args []string) (*dom.Document, error) {
	ctx := cmd.Context()
	url, _ := cmd.Flags().GetString("url")

	var r io.Reader
	switch {
	case url != "":
		f := fetcher.New(cfg.HTTP)
		data, err := f.FetchPage(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", url, err)
		}
		r = bytes.NewReader(data)
	case len(args) > 0:
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	default:
		r = os.Stdin
	}

	return dom.Parse(r)
}

func runFilter(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	verbose, _ := cmd.Flags().GetBool("verbose")

	doc, err := loadDocument(cmd, args)
	if err != nil {
		return err
	}

	store := settings.New(cfg.Settings.Path)
	eng := engine.New(doc, store, engineOptions(), logger)

	if err := eng.RunOnce(cmd.Context()); err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := doc.Render(w); err != nil {
		return err
	}

	stats := eng.Stats()
	fmt.Fprintf(os.Stderr, "Filtered: %d elements (mode: %s, candidates: %d, matched: %d)\n",
		stats.Filtered, eng.Mode(), stats.Candidates, stats.Matched)
	if verbose && len(stats.SkipReasons) > 0 {
		fmt.Fprintln(os.Stderr, "Skipped:")
		for reason, count := range stats.SkipReasons {
			fmt.Fprintf(os.Stderr, "  - %s: %d\n", reason, count)
		}
	}

	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	doc, err := dom.Parse(f)
	f.Close()
	if err != nil {
		return err
	}
	doc.SetLocation("file://" + args[0])

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := settings.New(cfg.Settings.Path)
	eng := engine.New(doc, store, engineOptions(), logger)
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	dispatcher := bus.NewDispatcher(logger)
	id := dispatcher.Register(eng)
	defer dispatcher.Unregister(id)

	store.Watch(func() {
		fmt.Println("Settings changed, refiltering...")
		dispatcher.Broadcast(ctx, bus.Message{Action: bus.ActionRefilter})
	})

	fmt.Printf("Watching %s (settings: %s), Ctrl-C to stop\n", args[0], store.Path())
	<-ctx.Done()

	stats := eng.Stats()
	fmt.Printf("\nFiltered: %d, revealed: %d, revised: %d\n",
		stats.Filtered, stats.Revealed, stats.Revised)
	return nil
}

func runKeywordsList(cmd *cobra.Command, args []string) error {
	store := settings.New(cfg.Settings.Path)
	s, err := store.Load()
	if err != nil {
		return err
	}

	fmt.Printf("Filter mode: %s\n", s.FilterMode)
	if len(s.Keywords) == 0 {
		fmt.Println("No keywords configured.")
		return nil
	}
	fmt.Printf("Keywords (%d):\n", len(s.Keywords))
	for _, kw := range s.Keywords {
		fmt.Printf("  %s\n", kw)
	}
	return nil
}

func runKeywordsAdd(cmd *cobra.Command, args []string) error {
	store := settings.New(cfg.Settings.Path)
	for _, kw := range args {
		added, err := store.AddKeyword(kw)
		if err != nil {
			return err
		}
		if added {
			fmt.Printf("Added %q\n", kw)
		} else {
			fmt.Printf("Already present: %q\n", kw)
		}
	}
	return nil
}

func runKeywordsRemove(cmd *cobra.Command, args []string) error {
	store := settings.New(cfg.Settings.Path)
	for _, kw := range args {
		removed, err := store.RemoveKeyword(kw)
		if err != nil {
			return err
		}
		if removed {
			fmt.Printf("Removed %q\n", kw)
		} else {
			fmt.Printf("Not found: %q\n", kw)
		}
	}
	return nil
}

func runKeywordsMode(cmd *cobra.Command, args []string) error {
	store := settings.New(cfg.Settings.Path)
	if err := store.SetMode(args[0]); err != nil {
		return err
	}
	fmt.Printf("Filter mode set to %s\n", args[0])
	return nil
}

func runKeywordsImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	keywords, stats, err := pattern.ParseList(f)
	if err != nil {
		return err
	}

	store := settings.New(cfg.Settings.Path)
	added, err := store.AddKeywords(keywords)
	if err != nil {
		return err
	}

	fmt.Printf("Imported: %d keywords (%d lines, %d comments)\n",
		added, stats.Total, stats.Comments)
	if len(stats.SkipReasons) > 0 {
		fmt.Println("Skipped:")
		for reason, count := range stats.SkipReasons {
			fmt.Printf("  - %s: %d\n", reason, count)
		}
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := "./configs/content-shield.toml"
	if cfgFile != "" {
		configPath = cfgFile
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	defaultConfig := `# content-shield configuration

# HTTP client settings for fetching pages
[http]
timeout = "15s"
retries = 3

# Settings store (keywords and filter mode)
[settings]
path = "./configs/settings.toml"

# Engine tuning
[scan]
max_ancestor_depth = 15
min_container_width = 200
min_container_height = 200
poll_interval = "500ms"
settle_delay = "300ms"
`

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return err
	}

	fmt.Printf("Created config file: %s\n", configPath)
	return nil
}
