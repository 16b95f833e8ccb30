package main

import (
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/sellsight/analytics/internal/cache"
	"github.com/sellsight/analytics/internal/config"
	"github.com/sellsight/analytics/internal/domain"
	"github.com/sellsight/analytics/internal/repository/postgres"
	"github.com/sellsight/analytics/internal/service"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newScopeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "scope",
			Usage: "Analysis scope (user or global)",
			Value: "global",
		},
		&cli.StringFlag{
			Name:  "user-id",
			Usage: "User id for user-scoped runs",
		},
	}
}

func openServices(c *cli.Context) (*service.ForecastService, *service.BasketService, *sqlx.DB, error) {
	raw, err := sqlx.Connect("pgx", c.String("db-url"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cfg := config.Load()
	db := postgres.Wrap(raw)

	salesRepo := postgres.NewSalesRepository(db)
	forecastRepo := postgres.NewForecastRepository(db)
	basketRepo := postgres.NewBasketRepository(db)

	forecastService := service.NewForecastService(
		salesRepo, forecastRepo, cache.NewNoopForecastCache(), nil, cfg.Forecast)
	basketService := service.NewBasketService(
		salesRepo, basketRepo, cache.NewNoopBasketCache(), nil, cfg.Basket)

	return forecastService, basketService, raw, nil
}

func parseIdentity(c *cli.Context) (service.Identity, domain.Scope) {
	scope := domain.ScopeUser
	if c.String("scope") == string(domain.ScopeGlobal) {
		scope = domain.ScopeGlobal
	}
	// The CLI runs operator-side, so it is always elevated.
	return service.Identity{UserID: c.String("user-id"), Elevated: true}, scope
}

func runForecastAll(c *cli.Context) error {
	forecasts, _, db, err := openServices(c)
	if err != nil {
		return err
	}
	defer db.Close()

	id, scope := parseIdentity(c)
	start := time.Now().UTC().Truncate(24 * time.Hour)
	horizon := c.Int("horizon-days")

	summary, err := forecasts.BatchGenerate(c.Context, id, service.ForecastRequest{
		Scope:     scope,
		Period:    domain.Period(c.String("period")),
		Model:     domain.ModelType(c.String("model")),
		StartDate: start,
		EndDate:   start.AddDate(0, 0, horizon),
	}, c.String("category"))
	if err != nil {
		return err
	}

	log.Printf("Batch complete: %d/%d products forecast, %d failures",
		summary.SuccessfulForecasts, summary.TotalProducts, len(summary.Failures))
	for _, failure := range summary.Failures {
		log.Printf("  failed %s (%s): %s", failure.ProductID, failure.Name, failure.Error)
	}
	return nil
}

func runBasket(c *cli.Context) error {
	_, baskets, db, err := openServices(c)
	if err != nil {
		return err
	}
	defer db.Close()

	id, scope := parseIdentity(c)
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -c.Int("window-days"))

	result, err := baskets.Analyze(c.Context, id, service.BasketRequest{
		Scope:      scope,
		RangeStart: start,
		RangeEnd:   end,
	})
	if err != nil {
		return err
	}

	log.Printf("Basket analysis %s: %d itemsets, %d rules",
		result.ID, len(result.Itemsets), len(result.Rules))
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "analytics",
		Usage: "Run forecasting and market-basket analysis from the command line",
		Commands: []*cli.Command{
			{
				Name:  "forecast-all",
				Usage: "Forecast every visible product, optionally narrowed to a category",
				Flags: append([]cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:  "period",
						Usage: "Forecast period (Daily, Weekly or Monthly)",
						Value: string(domain.PeriodDaily),
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "Model type (ARIMA or RandomForest)",
						Value: string(domain.ModelARIMA),
					},
					&cli.IntFlag{
						Name:  "horizon-days",
						Usage: "Forecast horizon in days",
						Value: 30,
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only forecast products in this category",
					},
				}, newScopeFlags()...),
				Action: runForecastAll,
			},
			{
				Name:  "basket",
				Usage: "Mine frequent itemsets and association rules over recent sales",
				Flags: append([]cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{
						Name:  "window-days",
						Usage: "How many days of sales to mine",
						Value: 90,
					},
				}, newScopeFlags()...),
				Action: runBasket,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
