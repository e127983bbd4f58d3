package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/allyourbase/dialplan/internal/cli/ui"
	"github.com/allyourbase/dialplan/internal/config"
	"github.com/allyourbase/dialplan/internal/server"
	"github.com/spf13/cobra"
)

// logBufferSize is how many recent entries GET /api/v1/logs can return.
const logBufferSize = 500

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve number parsing, formatting and as-you-type sessions over HTTP.

Settings come from dialplan.toml, .env, DIALPLAN_* environment variables
and the flags below, in increasing priority. Send SIGUSR1 to log pattern
cache statistics.`,
	Example: `  dialplan serve
  dialplan serve --port 9000 --region US`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "Server port (default 8095)")
	serveCmd.Flags().String("host", "", "Server host (default 0.0.0.0)")
	serveCmd.Flags().String("log-level", "", "Log level: debug, info, warn or error")
}

func runServe(cmd *cobra.Command, args []string) error {
	extra := make(map[string]string)
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		extra["port"] = strconv.Itoa(v)
	}
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		extra["host"] = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		extra["log-level"] = v
	}
	cfg, err := loadConfig(cmd, extra)
	if err != nil {
		return err
	}

	// Register signal handlers before any blocking work.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	isTTY := colorEnabled()
	sp := newStartupProgress(os.Stderr, isTTY, isTTY)

	// In TTY mode, progress lines replace INFO logs until the server is up.
	handler, logLevel, logPath, closeLog := newLogHandler(cfg.Logging.Level, cfg.Logging.Format)
	defer closeLog()
	if isTTY {
		logLevel.Set(slog.LevelWarn)
	}
	logBuffer := server.NewLogBuffer(handler, logBufferSize)
	logger := slog.New(logBuffer)

	sp.header(bannerVersion(buildVersion))

	// Fail fast on a busy port before loading plans.
	if ln, err := net.Listen("tcp", cfg.Address()); err != nil {
		return portError(cfg.Server.Port, err)
	} else {
		ln.Close()
	}

	sp.step("Loading numbering plans...")
	engine, err := openEngine(cfg, logger)
	if err != nil {
		sp.fail()
		return err
	}
	sp.done()
	regions := len(engine.SupportedRegions())
	logger.Info("numbering plans loaded", "regions", regions, "metadata_dir", cfg.Engine.MetadataDir)

	sp.step("Starting server...")
	srv := server.New(cfg, logger, engine)
	srv.SetLogBuffer(logBuffer)

	usrCh := notifyUSR1()
	defer signal.Stop(usrCh)

	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.StartWithReady(ready)
	}()

	select {
	case <-ready:
		sp.done()
		if isTTY {
			logLevel.Set(parseSlogLevel(cfg.Logging.Level))
			printBannerBodyTo(os.Stderr, cfg, regions, true, logPath)
		} else {
			printBanner(cfg, regions, logPath)
		}
	case err := <-errCh:
		sp.fail()
		return portError(cfg.Server.Port, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case err := <-errCh:
			return err
		case <-usrCh:
			stats := engine.PatternCacheStats()
			logger.Info("pattern cache",
				"hits", stats.Hits,
				"misses", stats.Misses,
				"len", stats.Len,
			)
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			fmt.Fprintf(os.Stderr, "\n  Shutting down... (press Ctrl-C again to force)\n")
			signal.Stop(sigCh) // A second Ctrl-C falls back to the default handler.
			return shutdown(srv, errCh, logger)
		case <-ctx.Done():
			logger.Info("context canceled, shutting down")
			return shutdown(srv, errCh, logger)
		}
	}
}

// shutdown stops srv and waits for its serve loop to return.
func shutdown(srv *server.Server, errCh <-chan error, logger *slog.Logger) error {
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return <-errCh
}

// portError turns an address-in-use error into one with fix suggestions.
func portError(port int, err error) error {
	if strings.Contains(err.Error(), "address already in use") {
		return withHints(fmt.Errorf("port %d is already in use", port),
			fmt.Sprintf("dialplan serve --port %d   # use a different port", port+1),
		)
	}
	return err
}

// startupProgress shows startup steps on interactive terminals. When
// inactive every method is a no-op.
type startupProgress struct {
	w        io.Writer
	spinner  *ui.StepSpinner
	active   bool
	useColor bool
}

func newStartupProgress(w io.Writer, active bool, useColor bool) *startupProgress {
	return &startupProgress{
		w:        w,
		spinner:  ui.NewStepSpinner(w, !active),
		active:   active,
		useColor: useColor,
	}
}

func (sp *startupProgress) header(version string) {
	if !sp.active {
		return
	}
	fmt.Fprintf(sp.w, "\n  %s %s\n\n",
		ui.BrandEmoji,
		boldCyan(fmt.Sprintf("%s v%s", ui.BrandName, version), sp.useColor))
}

func (sp *startupProgress) step(msg string) {
	if !sp.active {
		return
	}
	sp.spinner.Start(msg)
}

func (sp *startupProgress) done() {
	if !sp.active {
		return
	}
	sp.spinner.Done()
}

func (sp *startupProgress) fail() {
	if !sp.active {
		return
	}
	sp.spinner.Fail()
}

// baseURL is the address clients on this machine reach the server at.
func baseURL(cfg *config.Config) string {
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port))
}

// printBanner writes a human-readable startup summary to stderr.
func printBanner(cfg *config.Config, regions int, logPath string) {
	printBannerTo(os.Stderr, cfg, regions, colorEnabled(), logPath)
}

// printBannerTo writes the full banner (header and body) to w.
func printBannerTo(w io.Writer, cfg *config.Config, regions int, useColor bool, logPath string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s\n", ui.BrandEmoji,
		boldCyan(fmt.Sprintf("%s v%s", ui.BrandName, bannerVersion(buildVersion)), useColor))
	printBannerBodyTo(w, cfg, regions, useColor, logPath)
}

// printBannerBodyTo writes everything after the header. TTY mode prints
// the header early, during startup progress.
func printBannerBodyTo(w io.Writer, cfg *config.Config, regions int, useColor bool, logPath string) {
	base := baseURL(cfg)

	plans := fmt.Sprintf("bundled, %d regions", regions)
	if cfg.Engine.MetadataDir != "" {
		plans = fmt.Sprintf("%s, %d regions", cfg.Engine.MetadataDir, regions)
	}
	region := cfg.Engine.DefaultRegion
	if region == "" {
		region = "none (numbers need a calling code)"
	}

	padLabel := func(label string) string {
		return bold(fmt.Sprintf("%-10s", label), useColor)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s\n", padLabel("API:"), cyan(base+"/api/v1", useColor))
	fmt.Fprintf(w, "  %s %s\n", padLabel("Plans:"), plans)
	fmt.Fprintf(w, "  %s %s\n", padLabel("Region:"), region)
	if logPath != "" {
		fmt.Fprintf(w, "  %s %s\n", padLabel("Logs:"), dim(logPath, useColor))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", dim("Try:", useColor))
	q := url.Values{"number": {"+41 44 668 18 00"}}
	fmt.Fprintf(w, "%s\n", green(fmt.Sprintf("curl '%s/api/v1/numbers?%s'", base, q.Encode()), useColor))
	fmt.Fprintf(w, "%s\n", green(fmt.Sprintf(`curl -X POST -H 'Content-Type: application/json' -d '{"region":"US"}' %s/api/v1/sessions`, base), useColor))
	fmt.Fprintln(w)
}

// bannerVersion extracts a clean semver string for the startup banner.
// Release builds ("v0.1.0") give "0.1.0"; git-describe builds
// ("v0.1.0-43-ge534c04-dirty") give "0.1.0-dev".
func bannerVersion(raw string) string {
	v := strings.TrimPrefix(raw, "v")
	parts := strings.SplitN(v, "-", 2)
	if len(parts) == 1 {
		return v
	}
	// A numeric segment after the hyphen is a git-describe commit count,
	// not a pre-release label.
	if len(parts[1]) > 0 && parts[1][0] >= '0' && parts[1][0] <= '9' {
		return parts[0] + "-dev"
	}
	return v
}
