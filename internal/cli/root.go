// Package cli implements the usps command line tool.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dukerupert/usps/internal"
	"github.com/dukerupert/usps/internal/address"
	"github.com/dukerupert/usps/internal/cache"
	"github.com/dukerupert/usps/internal/service"
	"github.com/dukerupert/usps/internal/usps"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration keys and the environment variables they are read from.
// They match the server's settings so both can share one .env file.
var configEnv = map[string]string{
	"usps.user_id":  "USPS_USER_ID",
	"usps.base_url": "USPS_BASE_URL",
	"usps.timeout":  "USPS_TIMEOUT",
	"cache.url":     "REDIS_URL",
	"cache.ttl":     "CACHE_TTL",
	"log_level":     "LOG_LEVEL",
}

// Option configures the root command.
type Option func(*app)

// WithResolver replaces the USPS client, for tests and offline use.
func WithResolver(r address.Resolver) Option {
	return func(a *app) {
		a.resolver = r
	}
}

// WithOutput sets where results and logs are written.
func WithOutput(out, errOut io.Writer) Option {
	return func(a *app) {
		a.out = out
		a.errOut = errOut
	}
}

type app struct {
	v          *viper.Viper
	configFile string
	format     string
	out        io.Writer
	errOut     io.Writer
	resolver   address.Resolver
	logger     *slog.Logger
	cleanup    []func()
}

// NewRootCommand builds the command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{
		v:      viper.New(),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "usps",
		Short: "Verify and standardize US postal addresses",
		Long: `usps checks addresses against the USPS Web Tools Address Validation API.

Credentials are read from flags, a YAML config file, or the environment
(USPS_USER_ID, USPS_BASE_URL, USPS_TIMEOUT, REDIS_URL, CACHE_TTL).`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (YAML)")
	flags.StringVarP(&a.format, "output", "o", string(FormatTable), "output format: table, json, yaml")
	flags.String("user-id", "", "USPS Web Tools user ID")
	flags.String("base-url", usps.DefaultBaseURL, "USPS API endpoint")
	flags.Duration("timeout", 10*time.Second, "USPS request timeout")
	flags.String("redis-url", "", "cache standardized addresses in Redis")
	flags.Duration("cache-ttl", cache.DefaultTTL, "how long cached addresses are kept")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")

	for key, flag := range map[string]string{
		"usps.user_id":  "user-id",
		"usps.base_url": "base-url",
		"usps.timeout":  "timeout",
		"cache.url":     "redis-url",
		"cache.ttl":     "cache-ttl",
		"log_level":     "log-level",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind %s flag: %v", flag, err))
		}
	}
	for key, env := range configEnv {
		if err := a.v.BindEnv(key, env); err != nil {
			panic(fmt.Sprintf("failed to bind %s: %v", env, err))
		}
	}

	root.AddCommand(
		a.newVerifyCommand(),
		a.newStandardizeCommand(),
		a.newVerifyFileCommand(),
	)

	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, opts ...Option) int {
	root := NewRootCommand(opts...)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
		a.v.SetConfigType("yaml")
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if _, err := ParseFormat(a.format); err != nil {
		return err
	}

	a.logger = internal.NewLogger(a.errOut, "dev", strings.ToLower(a.v.GetString("log_level")))

	if a.resolver != nil {
		return nil
	}
	return a.connect(cmd.Context())
}

// connect builds the USPS client, fronted by the Redis cache when configured.
func (a *app) connect(ctx context.Context) error {
	client, err := usps.NewClient(usps.Config{
		UserID:  a.v.GetString("usps.user_id"),
		BaseURL: a.v.GetString("usps.base_url"),
		Timeout: a.v.GetDuration("usps.timeout"),
		Logger:  a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize USPS client: %w", err)
	}
	a.resolver = client

	redisClient, err := cache.NewRedisClient(ctx, a.v.GetString("cache.url"))
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	if redisClient != nil {
		a.cleanup = append(a.cleanup, func() { redisClient.Close() })
		a.resolver = cache.NewResolver(client, cache.NewRedisStore(redisClient), a.v.GetDuration("cache.ttl"), a.logger)
	}

	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	for _, fn := range a.cleanup {
		fn()
	}
	return nil
}

func (a *app) service() service.VerificationService {
	return service.NewVerificationService(a.resolver, service.WithLogger(a.logger))
}

func (a *app) print(data []Result) error {
	format, err := ParseFormat(a.format)
	if err != nil {
		return err
	}
	return NewFormatter(format).Format(a.out, data)
}
