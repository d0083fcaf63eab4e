package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hdnguyen/bandexam/internal/gateway"
	"github.com/hdnguyen/bandexam/internal/handler"
	appI18n "github.com/hdnguyen/bandexam/internal/i18n"
	"github.com/hdnguyen/bandexam/internal/llm"
	"github.com/hdnguyen/bandexam/internal/session"
	"github.com/hdnguyen/bandexam/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bandexam",
		Short: "Band-scored language exam server powered by LLMs",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `bandexam --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP exam server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "bandexam.db", "SQLite archive database path")
	f.String("llm-provider", "gemini", "LLM provider (gemini, openai, mock)")
	f.String("llm-key", "", "API key for LLM (or set BANDEXAM_LLM_KEY)")
	f.String("llm-model", "", "LLM model name (empty = provider default)")
	f.String("llm-url", "", "OpenAI-compatible API base URL override")
	f.Duration("llm-timeout", 60*time.Second, "Timeout per LLM call")
	f.StringP("lang", "l", "en", "Response language (en, vi)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export archived exam results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "bandexam.db", "SQLite archive database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("BANDEXAM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("bandexam")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/bandexam")
	v.AddConfigPath("/etc/bandexam")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	archive, err := store.NewArchive(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	llmCfg := llm.DefaultConfig()
	llmCfg.Provider = v.GetString("llm-provider")
	llmCfg.APIKey = v.GetString("llm-key")
	llmCfg.Model = v.GetString("llm-model")
	llmCfg.BaseURL = v.GetString("llm-url")
	llmCfg.Timeout = v.GetDuration("llm-timeout")
	if err := llmCfg.Validate(); err != nil {
		return fmt.Errorf("LLM config: %w", err)
	}

	provider, err := llm.New(cmd.Context(), llmCfg)
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}
	slog.Info("LLM provider ready", "provider", llmCfg.Provider, "model", provider.ModelID())

	gw := gateway.New(provider, llmCfg.Timeout)
	sessions := store.NewSessionStore()
	svc := session.New(sessions, gw, gw, archive)
	h := handler.New(svc, archive)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"provider", llmCfg.Provider,
		"model", provider.ModelID(),
		"lang", lang,
		"db", v.GetString("db"),
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	archive, err := store.NewArchive(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	results, err := archive.ExportAll()
	if err != nil {
		return fmt.Errorf("export sessions: %w", err)
	}

	export := struct {
		ExportedAt time.Time              `json:"exported_at"`
		Count      int                    `json:"count"`
		Results    []store.ArchivedResult `json:"results"`
	}{
		ExportedAt: time.Now(),
		Count:      len(results),
		Results:    results,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	return nil
}
