package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/accounts"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/auth"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/config"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/database"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/logging"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/notify"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/server"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/views"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "tunedesk-api",
		Short:         "Music distribution dashboard backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(
		newRenderCommand(),
		newImportRoyaltiesCommand(),
		newStatementCommand(),
		newIssueTokenCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("allowed-origins", defaults.GetString("http.allowed_origins"), "Comma-separated CORS origins")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("source-driver", defaults.GetString("source.driver"), "Catalogue source (sqlite, http)")
	cmd.PersistentFlags().String("source-base-url", defaults.GetString("source.base_url"), "Upstream REST base URL for the http source")
	cmd.PersistentFlags().Int("page-size", defaults.GetInt("view.page_size"), "Default rows per page")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("auth.token_ttl_minutes"), "Session token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", defaults.GetString("log.format"), "Log format (json, console)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "http.allowed_origins", "allowed-origins")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "source.driver", "source-driver")
	bindFlag(cmd, "source.base_url", "source-base-url")
	bindFlag(cmd, "view.page_size", "page-size")
	bindFlag(cmd, "auth.token_ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "log.format", "log-format")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

// runtime holds the components shared by the server and the CLI commands.
type runtime struct {
	config config.AppConfig
	logger *zap.Logger
	db     *gorm.DB
	source catalog.Source
}

func openRuntime() (*runtime, func(), error) {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.LogFormat)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	closeFn := func() {
		_ = sqlDB.Close()
		_ = logger.Sync()
	}

	source, err := newSource(appConfig, db, logger)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return &runtime{config: appConfig, logger: logger, db: db, source: source}, closeFn, nil
}

func newSource(appConfig config.AppConfig, db *gorm.DB, logger *zap.Logger) (catalog.Source, error) {
	if appConfig.SourceDriver == config.SourceDriverHTTP {
		return catalog.NewHTTPSource(catalog.HTTPSourceConfig{
			BaseURL:   appConfig.SourceBaseURL,
			Timeout:   appConfig.SourceTimeout,
			AuthToken: appConfig.SourceToken,
			Logger:    logger,
		})
	}
	return catalog.NewSQLiteSource(catalog.SQLiteSourceConfig{Database: db, Logger: logger})
}

func (r *runtime) factory() views.Factory {
	return views.Factory{
		Source:          r.source,
		DefaultPageSize: r.config.PageSize,
		KeepLastGood:    r.config.KeepLastGood,
		Clock:           time.Now,
	}
}

func runServer(ctx context.Context) error {
	rt, closeRuntime, err := openRuntime()
	if err != nil {
		return err
	}
	defer closeRuntime()
	logger := rt.logger

	validator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(rt.config.SigningSecret),
		Issuer:        rt.config.Issuer,
		CookieName:    rt.config.CookieName,
	})
	if err != nil {
		return err
	}

	accountService, err := accounts.NewService(accounts.ServiceConfig{
		Database: rt.db,
		Clock:    time.Now,
	})
	if err != nil {
		return err
	}

	registry, err := views.NewRegistry(views.RegistryConfig{
		Factory: rt.factory(),
		Limit:   rt.config.SessionLimit,
		IDs:     catalog.NewUUIDProvider(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer registry.Close()

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Sessions:       validator,
		Viewers:        accountService,
		Registry:       registry,
		Source:         rt.source,
		Hub:            notify.NewHub(),
		AllowedOrigins: rt.config.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              rt.config.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", rt.config.HTTPAddress),
			zap.String("source_driver", rt.config.SourceDriver))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
