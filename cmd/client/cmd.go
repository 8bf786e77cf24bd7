package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"werewolf-client/internal/app"
	"werewolf-client/internal/config"
	"werewolf-client/internal/domain"
	httpTransport "werewolf-client/internal/transport/http"
	"werewolf-client/internal/transport/ws"
	"werewolf-client/internal/ui"
)

// options holds flags that are not part of config.Config
type options struct {
	url     string
	qrPNG   string
	inverse bool
}

func newCmd(cfg *config.Config) *cobra.Command {
	opts := &options{}

	v := viper.New()
	v.SetEnvPrefix("WEREWOLF")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "werewolf-client",
		Short:         "Terminal client that follows a werewolf game and submits night actions.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := startLocation(cfg, opts)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, loc)
		},
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.Player.GameID, "game-id", "", "game to follow (env: WEREWOLF_GAME_ID)")
	fs.StringVar(&cfg.Player.PlayerID, "player-id", "", "player to act for (env: WEREWOLF_PLAYER_ID)")
	fs.StringVar(&cfg.Player.Screen, "screen", cfg.Player.Screen, "screen to open first (env: WEREWOLF_SCREEN)")
	fs.StringVarP(&opts.url, "url", "u", "", "screen url to open, e.g. /frontend/seer_night.html?game_id=..&player_id=.. (env: WEREWOLF_URL)")
	fs.StringVar(&cfg.API.BaseURL, "api-base", cfg.API.BaseURL, "game server origin (env: WEREWOLF_API_BASE)")
	fs.StringVar(&cfg.API.Root, "api-root", cfg.API.Root, "api path on the game server (env: WEREWOLF_API_ROOT)")
	fs.DurationVar(&cfg.API.RequestTimeout, "timeout", cfg.API.RequestTimeout, "timeout of every api request (env: WEREWOLF_TIMEOUT)")
	fs.StringVar(&cfg.API.PushURL, "push-url", "", "optional websocket url for status pushes (env: WEREWOLF_PUSH_URL)")
	fs.DurationVar(&cfg.Poll.Interval, "poll-interval", cfg.Poll.Interval, "how often to poll the game status (env: WEREWOLF_POLL_INTERVAL)")
	fs.DurationVar(&cfg.Poll.MaxBackoff, "max-backoff", cfg.Poll.MaxBackoff, "longest wait between polls while the server fails (env: WEREWOLF_MAX_BACKOFF)")
	fs.BoolVar(&cfg.Status.Enabled, "status", false, "serve the current screen on a local http endpoint (env: WEREWOLF_STATUS)")
	fs.StringVar(&cfg.Status.Host, "status-host", cfg.Status.Host, "address for the status endpoint (env: WEREWOLF_STATUS_HOST)")
	fs.IntVar(&cfg.Status.Port, "status-port", cfg.Status.Port, "port for the status endpoint (env: WEREWOLF_STATUS_PORT)")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "debug, info, warn or error (env: WEREWOLF_LOG_LEVEL)")
	fs.StringVar(&cfg.Logging.Format, "log-format", cfg.Logging.Format, "text or json (env: WEREWOLF_LOG_FORMAT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newQRCmd(cfg, opts))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("werewolf-client v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func newQRCmd(cfg *config.Config, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Print a QR code of the screen url, for opening it on another device.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := startLocation(cfg, opts)
			if err != nil {
				return err
			}
			link := strings.TrimSuffix(cfg.API.BaseURL, "/") + loc.URL()

			if opts.qrPNG != "" {
				png, err := ui.QRPNG(link, 256)
				if err != nil {
					return err
				}
				return os.WriteFile(opts.qrPNG, png, 0o644)
			}

			fmt.Fprintln(cmd.OutOrStdout(), link)
			return ui.WriteQR(cmd.OutOrStdout(), link, opts.inverse)
		},
	}

	cmd.Flags().StringVar(&opts.qrPNG, "png", "", "write a png to this path instead of printing")
	cmd.Flags().BoolVar(&opts.inverse, "inverse", false, "invert colors for light terminals")

	return cmd
}

// startLocation resolves the first screen from --url or the id flags
func startLocation(cfg *config.Config, opts *options) (domain.Location, error) {
	if opts.url != "" {
		return domain.ParseLocation(opts.url)
	}

	screen := domain.Screen(cfg.Player.Screen)
	if screen == "" {
		screen = domain.ScreenRoleConfirm
	}
	if !screen.Valid() {
		return domain.Location{}, fmt.Errorf("%q: %w", screen, domain.ErrUnknownScreen)
	}
	return domain.NewLocation(screen, cfg.Player.GameID, cfg.Player.PlayerID)
}

func run(ctx context.Context, cfg *config.Config, loc domain.Location) error {
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting werewolf client",
		"version", releaseVersion,
		"api", cfg.APIBase(),
		"gameID", loc.GameID,
		"playerID", loc.PlayerID,
	)

	client := httpTransport.NewClient(cfg.APIBase(), cfg.API.RequestTimeout, logger)
	policy := app.PollPolicy{Interval: cfg.Poll.Interval, MaxBackoff: cfg.Poll.MaxBackoff}

	session := app.NewSession(client, ui.NewConsole(os.Stdout), policy, logger)
	app.RegisterScreens(session)

	var events chan *domain.GameEvent
	if cfg.API.PushURL != "" {
		events = make(chan *domain.GameEvent, 8)
		sub := ws.NewSubscriber(cfg.API.PushURL, loc.GameID, logger)
		go sub.Run(ctx, events)
	}

	if cfg.Status.Enabled {
		server := httpTransport.NewStatusServer(cfg.GetAddr(), session, releaseVersion, logger)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("status server forced to shutdown", "error", err)
			}
		}()
	}

	err := session.Run(ctx, loc, ui.ReadLines(ctx, os.Stdin), events)

	logger.Info("client stopped", "screen", session.Current().Screen)
	return err
}
