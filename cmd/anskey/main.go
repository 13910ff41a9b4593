package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/anskey/internal/detect"
	"github.com/pavelanni/anskey/internal/exam"
	"github.com/pavelanni/anskey/internal/fetch"
	"github.com/pavelanni/anskey/internal/handler"
	appI18n "github.com/pavelanni/anskey/internal/i18n"
	"github.com/pavelanni/anskey/internal/loader"
	"github.com/pavelanni/anskey/internal/model"
	"github.com/pavelanni/anskey/internal/report"
)

//go:generate templ generate -path ../../internal/handler/views

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "anskey",
		Short: "SSC answer key parser and score calculator",
	}

	serve := serveCmd()
	root.AddCommand(serve, scoreCmd(), detectCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `anskey --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP score calculator",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "en", "Default UI language (en, hi)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /ssc)")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
	f.String("upload-dir", "", "Directory for uploaded answer keys (default: system temp dir)")
	f.Int64("max-upload", handler.DefaultMaxUpload, "Maximum request body size in bytes")
	f.String("public-url", "", "Absolute URL prefix listed in /sitemap.xml (default: derived from the request)")
	addFetchFlags(f)
	addLogFlags(f)
	return cmd
}

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score <url-or-path>",
		Short: "Score an answer key and print the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runScore,
	}
	f := cmd.Flags()
	f.BoolP("file", "f", false, "Treat the source as a local file path")
	f.StringP("exam", "e", exam.MTS.Name, "Exam type (mts, je, chsl)")
	f.StringP("output", "o", report.FormatJSON, "Output format (json, yaml, text)")
	f.Bool("no-color", false, "Disable colors in text output")
	f.Bool("questions", false, "Include the question-wise table in text output")
	addFetchFlags(f)
	addLogFlags(f)
	return cmd
}

func detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <url-or-path>",
		Short: "Print which answer key grammar a document uses",
		Args:  cobra.ExactArgs(1),
		RunE:  runDetect,
	}
	f := cmd.Flags()
	f.BoolP("file", "f", false, "Treat the source as a local file path")
	addFetchFlags(f)
	addLogFlags(f)
	return cmd
}

func addFetchFlags(f *pflag.FlagSet) {
	def := fetch.DefaultConfig()
	f.Duration("fetch-timeout", def.Timeout, "Timeout per fetch request")
	f.Int("fetch-attempts", def.MaxAttempts, "Fetch attempts per route")
	f.Duration("fetch-delay", def.BaseDelay, "Base pause between fetch attempts")
	f.StringSlice("fetch-mirrors", def.Mirrors, "Mirror URL templates tried after the direct route; {url} is the raw target, {qurl} the query-escaped target, a \"json:\" prefix marks mirrors answering with a JSON {\"contents\": ...} envelope")
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
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

	v.SetEnvPrefix("ANSKEY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("anskey")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/anskey")
	v.AddConfigPath("/etc/anskey")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// newLoader builds the answer key loader from the fetch settings.
func newLoader(v *viper.Viper) *loader.Loader {
	cfg := fetch.Config{
		Timeout:     v.GetDuration("fetch-timeout"),
		MaxAttempts: v.GetInt("fetch-attempts"),
		BaseDelay:   v.GetDuration("fetch-delay"),
		Mirrors:     v.GetStringSlice("fetch-mirrors"),
	}
	slog.Debug("fetch settings",
		"timeout", cfg.Timeout,
		"attempts", cfg.MaxAttempts,
		"delay", cfg.BaseDelay,
		"mirrors", len(cfg.Mirrors),
	)
	return loader.New(fetch.New(cfg))
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	serverCfg := model.ServerConfig{
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		UploadDir:     v.GetString("upload-dir"),
		MaxUpload:     v.GetInt64("max-upload"),
		PublicURL:     v.GetString("public-url"),
	}

	h, err := handler.New(exam.New(newLoader(v)), serverCfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"languages", appI18n.Languages(),
		"base_path", basePath,
		"upload_dir", serverCfg.UploadDir,
		"max_upload", serverCfg.MaxUpload,
	)
	return http.ListenAndServe(addr, r)
}

func runScore(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	t, err := exam.Lookup(v.GetString("exam"))
	if err != nil {
		return err
	}

	res, err := exam.New(newLoader(v)).Evaluate(cmd.Context(), t, args[0], v.GetBool("file"))
	if err != nil {
		return fmt.Errorf("score %s answer key: %w", t.Title, err)
	}

	return report.Render(cmd.OutOrStdout(), res, v.GetString("output"), report.Options{
		NoColor:   v.GetBool("no-color"),
		Questions: v.GetBool("questions"),
	})
}

func runDetect(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	markup, err := newLoader(v).Load(cmd.Context(), args[0], v.GetBool("file"))
	if err != nil {
		return err
	}
	format := detect.Detect(args[0], markup)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), format)
	return err
}
