package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/oklog/run"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oakhaus/showroom/app/catalog"
	"github.com/oakhaus/showroom/app/feedback"
	"github.com/oakhaus/showroom/app/home"
	"github.com/oakhaus/showroom/app/inventory"
	"github.com/oakhaus/showroom/app/media"
	"github.com/oakhaus/showroom/app/orders"
	"github.com/oakhaus/showroom/app/projects"
	"github.com/oakhaus/showroom/app/server"
	"github.com/oakhaus/showroom/app/session"
	"github.com/oakhaus/showroom/app/taxonomy"
	"github.com/oakhaus/showroom/config"
	"github.com/oakhaus/showroom/database"
	"github.com/oakhaus/showroom/logging"
	"github.com/oakhaus/showroom/models"
	"github.com/oakhaus/showroom/notify"
	"github.com/oakhaus/showroom/storage"
)

const envPrefix = "SHOWROOM"

// Version is set at build time.
var Version = "development"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	configFlag := &cli.StringFlag{
		Name:    "config",
		Value:   "config.yaml",
		EnvVars: []string{envPrefix + "_CONFIG"},
		Usage:   "path to the YAML config file",
	}

	app := &cli.App{
		Name:    "showroom",
		Usage:   "furniture showroom storefront and back-office API",
		Version: Version,
		Flags:   []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply or roll back schema migrations",
				Subcommands: []*cli.Command{
					{
						Name:  "up",
						Usage: "apply all pending migrations",
						Action: func(c *cli.Context) error {
							return withDatabase(c, func(env *environment) error {
								return database.MigrateUp(env.db, env.log)
							})
						},
					},
					{
						Name:  "down",
						Usage: "roll back migrations",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
						},
						Action: func(c *cli.Context) error {
							return withDatabase(c, func(env *environment) error {
								return database.MigrateDown(env.db, env.log, c.Int("steps"))
							})
						},
					},
				},
			},
			{
				Name:      "hash-password",
				Usage:     "print the bcrypt hash to use as admin.password_hash",
				ArgsUsage: "<password>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("expected exactly one password argument", 2)
					}
					hash, err := bcrypt.GenerateFromPassword([]byte(c.Args().First()), bcrypt.DefaultCost)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, string(hash))
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type environment struct {
	cfg config.Config
	log *zap.Logger
	db  *gorm.DB
}

func load(c *cli.Context) (*environment, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	log, err := logging.New(logging.Options{
		Env:   cfg.Server.Env,
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
	if err != nil {
		return nil, err
	}
	return &environment{cfg: cfg, log: log}, nil
}

func withDatabase(c *cli.Context, fn func(env *environment) error) error {
	env, err := load(c)
	if err != nil {
		return err
	}
	defer func() { _ = env.log.Sync() }()

	db, err := database.Open(env.cfg.Database.DSN, logging.Named(env.log, "database"), env.cfg.IsDevelopment())
	if err != nil {
		return err
	}
	env.db = db
	return fn(env)
}

func serve(c *cli.Context) error {
	return withDatabase(c, func(env *environment) error {
		cfg, log := env.cfg, env.log
		log.Info("starting showroom", zap.String("version", Version), zap.String("env", cfg.Server.Env))

		if err := database.MigrateUp(env.db, logging.Named(log, "migrate")); err != nil {
			return err
		}

		local, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
		if err != nil {
			return err
		}
		uploader := storage.NewUploader(local, cfg.Storage.MaxSize)

		mailer, err := notify.NewMailer(newSender(cfg.Email, log), cfg.Email.AdminRecipient, logging.Named(log, "mailer"))
		if err != nil {
			return err
		}
		var notifier notify.Notifier = mailer
		if cfg.Notify.FunctionURL != "" {
			notifier = notify.NewFunctionClient(cfg.Notify.FunctionURL, cfg.Notify.Secret, cfg.Notify.Timeout)
		}
		var function *notify.FunctionHandler
		if cfg.Notify.Secret != "" {
			function = notify.NewFunctionHandler(mailer, cfg.Notify.Secret, logging.Named(log, "function"))
		}

		products := models.NewProductsRepository(env.db)
		projectRepo := models.NewProjectsRepository(env.db)

		router := server.NewRouter(server.Handlers{
			Catalog:   catalog.NewCatalogHandler(products, logging.Named(log, "catalog")),
			Taxonomy:  taxonomy.NewTaxonomyHandler(products, logging.Named(log, "taxonomy")),
			Home:      home.NewHomeHandler(products, projectRepo, logging.Named(log, "home")),
			Orders:    orders.NewOrderHandler(models.NewOrdersRepository(env.db), notifier, logging.Named(log, "orders")),
			Feedback:  feedback.NewFeedbackHandler(models.NewFeedbackRepository(env.db), logging.Named(log, "feedback")),
			Projects:  projects.NewProjectHandler(projectRepo, uploader, logging.Named(log, "projects")),
			Inventory: inventory.NewInventoryHandler(products, uploader, logging.Named(log, "inventory")),
			Media:     media.NewMediaHandler(uploader, local, cfg.Storage.MaxSize, logging.Named(log, "media")),
			Function:  function,
			Session: session.NewManager(
				[]byte(cfg.Admin.SessionSecret),
				cfg.Admin.SecureCookie,
				session.Credentials{Email: cfg.Admin.Email, PasswordHash: cfg.Admin.PasswordHash},
				logging.Named(log, "session"),
			),
		}, cfg.Server.AllowedOrigins, logging.Named(log, "http"))

		srv := server.New(cfg.Server.Addr, router, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, logging.Named(log, "http"))

		ctx, cancel := context.WithCancel(c.Context)
		defer cancel()

		g := &run.Group{}
		g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
		g.Add(func() error { return srv.Run(ctx) }, func(error) { cancel() })

		err = g.Run()
		var sig run.SignalError
		if errors.As(err, &sig) {
			log.Info("shutdown requested", zap.String("signal", sig.Signal.String()))
			return nil
		}
		return err
	})
}

func newSender(cfg config.EmailConfig, log *zap.Logger) notify.Sender {
	switch cfg.Provider {
	case "mailgun":
		return notify.NewMailgunSender(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.From)
	case "smtp":
		return notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.From)
	default:
		return notify.NewLogSender(logging.Named(log, "email"))
	}
}
