// gserver CLI - checks scripts and runs the script language server
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/tliron/commonlog"

	"github.com/torchlight/gserver/builtins"
	"github.com/torchlight/gserver/config"
	"github.com/torchlight/gserver/engine"
	"github.com/torchlight/gserver/script"
	"github.com/torchlight/gserver/server"
	"github.com/torchlight/gserver/storage"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	configPath := flag.String("config", "", "Path to gserver.toml")
	check := flag.Bool("check", false, "Parse and compile the given script files, then exit")
	lspMode := flag.Bool("lsp", false, "Start the language server on stdio")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gserver [options] [scripts...]\n\n")
		fmt.Fprintf(os.Stderr, "Loads GS1/GS2 scripts (by .gs1/.gs2 extension) into the script engine.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  gserver -check npc/*.gs1 npc/*.gs2  # Validate scripts\n")
		fmt.Fprintf(os.Stderr, "  gserver -lsp                        # Editor tooling on stdio\n")
		fmt.Fprintf(os.Stderr, "  gserver -config gserver.toml -lsp   # With configured limits\n")
	}
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	commonlog.Configure(cfg.Logging.Verbosity, nil)
	if *verbose && cfg.Logging.Verbosity < 1 {
		commonlog.Configure(1, nil)
	}

	limits, err := cfg.VMLimits()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	eng := engine.New(builtins.NopWorld{}, engine.Options{
		Limits:      limits,
		MaxParallel: cfg.Server.MaxParallel,
		CacheSize:   cfg.Server.ScriptCacheSize,
	})
	defer eng.Close()

	if cfg.Storage.Path != "" {
		store, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		eng.AttachStore(store)
	}

	if *check {
		if flag.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "Error: -check needs script files")
			os.Exit(1)
		}
		failed := 0
		for _, path := range flag.Args() {
			if err := checkFile(eng, path, *verbose); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
				failed++
			}
		}
		if failed > 0 {
			fmt.Fprintf(os.Stderr, "%d of %d scripts failed\n", failed, flag.NArg())
			os.Exit(1)
		}
		if *verbose {
			fmt.Printf("%d scripts OK\n", flag.NArg())
		}
		return
	}

	if *lspMode {
		if err := server.NewLSP(eng).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Run mode: bind each script to an owner named after its file,
	// fire Created, then serve timer events until interrupted.
	for _, path := range flag.Args() {
		if err := loadFile(eng, path, *verbose); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			os.Exit(1)
		}
	}
	eng.Broadcast(script.EventCreated, script.EventArgs{})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

// loadFile binds one script file; the owner id is the file name without
// its extension.
func loadFile(eng *engine.Engine, path string, verbose bool) error {
	lang, ok := languageForPath(path)
	if !ok {
		return fmt.Errorf("unknown script extension (want .gs1 or .gs2)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	base := filepath.Base(path)
	owner := strings.TrimSuffix(base, filepath.Ext(base))
	if _, err := eng.LoadScript(owner, string(data), lang); err != nil {
		return err
	}
	if verbose {
		fmt.Printf("%s: bound to %s (%s)\n", path, owner, lang)
	}
	return nil
}

// checkFile validates one script, picking the front end from the file
// extension.
func checkFile(eng *engine.Engine, path string, verbose bool) error {
	lang, ok := languageForPath(path)
	if !ok {
		return fmt.Errorf("unknown script extension (want .gs1 or .gs2)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := eng.CheckScript(string(data), lang); err != nil {
		return err
	}
	if verbose {
		fmt.Printf("%s: OK (%s)\n", path, lang)
	}
	return nil
}

func languageForPath(path string) (engine.Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gs1":
		return engine.LangGS1, true
	case ".gs2":
		return engine.LangGS2, true
	}
	return 0, false
}
