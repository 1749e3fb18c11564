package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"domainlens/internal/app"
	"domainlens/internal/config"
	"domainlens/internal/domain"
	"domainlens/internal/repository"
	"domainlens/internal/service"
	"domainlens/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	dbDriver    string
	databaseURL string
	logLevel    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "domainctl",
		Short:         "Operate the DomainLens keyword and domain store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dbDriver, "db-driver", "", "store driver: postgres or memory (default from DB_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (default from DATABASE_URL or DB_*)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(tokenizeCmd())
	rootCmd.AddCommand(whoisCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the global flags on top
func loadConfig() (*config.Config, error) {
	if dbDriver != "" {
		os.Setenv("DB_DRIVER", dbDriver)
	}
	if databaseURL != "" {
		os.Setenv("DATABASE_URL", databaseURL)
	}
	return config.Load()
}

// withStore opens the configured store, runs fn and closes the store
func withStore(ctx context.Context, migrate bool, fn func(cfg *config.Config, store repository.Store, log *logger.Logger) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(os.Stderr, logLevel)

	store, closeStore, err := app.OpenStore(ctx, cfg.Database, migrate, log.Logger)
	if err != nil {
		return err
	}
	defer closeStore()

	return fn(cfg, store, log)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), true, func(cfg *config.Config, store repository.Store, log *logger.Logger) error {
				fmt.Printf("Schema applied (%s)\n", cfg.Database.Driver)
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample domains, keyword volumes, trends and TLD statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), true, func(cfg *config.Config, store repository.Store, log *logger.Logger) error {
				svc := app.NewIngestService(cfg, store, log.Logger)
				if err := svc.Seed(cmd.Context(), service.SampleDomains); err != nil {
					return err
				}
				fmt.Printf("Seeded %d domains\n", len(service.SampleDomains))
				return nil
			})
		},
	}
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest NAME...",
		Short: "Ingest domain names and extract their keywords",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), false, func(cfg *config.Config, store repository.Store, log *logger.Logger) error {
				svc := app.NewIngestService(cfg, store, log.Logger)
				domains, err := svc.IngestDomains(cmd.Context(), args)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "DOMAIN\tTLD\tKEYWORDS")
				for _, d := range domains {
					fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, d.TLD, strings.Join(keywordWords(d), ","))
				}
				return w.Flush()
			})
		},
	}
}

func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score NAME",
		Short: "Print the value score of a stored domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), false, func(cfg *config.Config, store repository.Store, log *logger.Logger) error {
				d, err := service.NewSearchService(store, log.Logger).GetDomain(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%d\n", d.Name, d.Score(time.Now().UTC()))
				return nil
			})
		},
	}
}

func tokenizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize LABEL",
		Short: "Print the keywords extracted from a second-level label or domain name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := domain.ParseName(args[0])
			for _, token := range domain.Tokenize(parsed.SLD) {
				fmt.Println(token)
			}
			return nil
		},
	}
}

func whoisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whois NAME",
		Short: "Fetch registration data for a stored domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), false, func(cfg *config.Config, store repository.Store, log *logger.Logger) error {
				d, err := app.NewIngestService(cfg, store, log.Logger).Enrich(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "Domain:\t%s\n", d.Name)
				fmt.Fprintf(w, "Status:\t%s\n", orDash(d.Status))
				fmt.Fprintf(w, "Registrar:\t%s\n", orDash(d.Registrar))
				fmt.Fprintf(w, "Registered:\t%s\n", dateOrDash(d.RegisteredAt))
				fmt.Fprintf(w, "Expires:\t%s\n", dateOrDash(d.ExpiresAt))
				return w.Flush()
			})
		},
	}
}

func keywordWords(d *domain.Domain) []string {
	words := make([]string, 0, len(d.Keywords))
	for _, dk := range d.Keywords {
		if dk.Keyword != nil {
			words = append(words, dk.Keyword.Word)
		}
	}
	return words
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
