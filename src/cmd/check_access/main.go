package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kshitijsingla/chain-viewer/src/models"
	"github.com/kshitijsingla/chain-viewer/src/services"
	"github.com/kshitijsingla/chain-viewer/src/utils"
)

type RunArgs struct {
	GoEnv  string
	Symbol string
}

type checkResult struct {
	Component string
	Status    string
	Detail    string
}

type RunResult struct {
	Checks []checkResult
}

const (
	statusOK      = "OK"
	statusFailed  = "FAILED"
	statusSkipped = "SKIPPED"
)

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/check_access/main.go",
	Short: "Verify Polygon REST and flat file credentials before starting the server",
	Run: func(cmd *cobra.Command, args []string) {
		goEnv, err := cmd.Flags().GetString("go-env")
		if err != nil {
			log.Fatalf("error getting go-env: %v", err)
		}

		symbol, err := cmd.Flags().GetString("symbol")
		if err != nil {
			log.Fatalf("error getting symbol: %v", err)
		}

		result, err := Run(RunArgs{GoEnv: goEnv, Symbol: symbol})
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		fmt.Print(renderReport(result.Checks))

		for _, check := range result.Checks {
			if check.Status == statusFailed {
				os.Exit(1)
			}
		}
	},
}

func Run(args RunArgs) (RunResult, error) {
	projectsDir := utils.GetEnvOrDefault("PROJECTS_DIR", ".")

	if err := utils.InitEnvironmentVariables(projectsDir, args.GoEnv); err != nil {
		log.Warnf("failed to load env file: %v", err)
	}

	symbol := models.StockSymbol(strings.ToUpper(strings.TrimSpace(args.Symbol)))
	ctx := context.Background()

	var checks []checkResult

	polygonApiKey := os.Getenv("POLYGON_API_KEY")
	if polygonApiKey == "" {
		checks = append(checks,
			checkResult{"REST API key", statusFailed, "POLYGON_API_KEY is not set"},
			checkResult{"Reference endpoint", statusSkipped, "no API key"},
			checkResult{"Flat files", statusSkipped, "no API key"},
			checkResult{"Chain build", statusSkipped, "no API key"},
		)
		return RunResult{Checks: checks}, nil
	}

	polygonClient := services.NewPolygonClient(polygonApiKey)

	flatFiles, flatFileCheck := setupFlatFiles(ctx)

	checks = append(checks, checkAggregates(ctx, polygonClient, symbol))
	checks = append(checks, checkReference(ctx, polygonClient, symbol))
	checks = append(checks, checkFlatFiles(ctx, flatFiles, flatFileCheck, symbol))
	checks = append(checks, checkChainBuild(ctx, polygonClient, flatFiles, symbol))

	return RunResult{Checks: checks}, nil
}

// setupFlatFiles builds the store when credentials are configured. A nil
// store with a non-empty check means the store could not be used.
func setupFlatFiles(ctx context.Context) (*services.FlatFileStore, *checkResult) {
	s3AccessKeyID := os.Getenv("POLYGON_S3_ACCESS_KEY_ID")
	s3SecretAccessKey := os.Getenv("POLYGON_S3_SECRET_ACCESS_KEY")
	if s3AccessKeyID == "" || s3SecretAccessKey == "" {
		return nil, &checkResult{"Flat files", statusSkipped, "POLYGON_S3_ACCESS_KEY_ID / POLYGON_S3_SECRET_ACCESS_KEY not set"}
	}

	store, err := services.NewFlatFileStore(ctx, s3AccessKeyID, s3SecretAccessKey)
	if err != nil {
		return nil, &checkResult{"Flat files", statusFailed, err.Error()}
	}

	return store, nil
}

func checkAggregates(ctx context.Context, client *services.PolygonClient, symbol models.StockSymbol) checkResult {
	price, err := client.GetPreviousClose(ctx, symbol)
	if err != nil {
		return checkResult{"Aggregates endpoint", statusFailed, err.Error()}
	}

	return checkResult{"Aggregates endpoint", statusOK, fmt.Sprintf("%s previous close $%.2f", symbol, price)}
}

func checkReference(ctx context.Context, client *services.PolygonClient, symbol models.StockSymbol) checkResult {
	asOf := utils.PreviousBusinessDay(time.Now().UTC().Truncate(24 * time.Hour))

	expirations, err := client.ListExpirations(ctx, symbol, asOf)
	if err != nil {
		return checkResult{"Reference endpoint", statusFailed, err.Error()}
	}

	return checkResult{"Reference endpoint", statusOK, fmt.Sprintf("%d expirations listed for %s", len(expirations), symbol)}
}

func checkFlatFiles(ctx context.Context, store *services.FlatFileStore, setupFailure *checkResult, symbol models.StockSymbol) checkResult {
	if setupFailure != nil {
		return *setupFailure
	}

	// Weekend dates have no file, so probe the most recent Friday.
	date := utils.LastFriday(utils.PreviousBusinessDay(time.Now().UTC().Truncate(24 * time.Hour)))

	rows, err := store.FetchDayAggs(ctx, date)
	if err != nil {
		if errors.Is(err, models.ErrNotInSubscription) {
			return checkResult{"Flat files", statusFailed, "credentials are valid but the plan does not include flat files"}
		}

		if errors.Is(err, models.ErrNoData) {
			return checkResult{"Flat files", statusOK, fmt.Sprintf("access granted, but no file published for %s (market holiday?)", date.Format(utils.DateLayout))}
		}

		return checkResult{"Flat files", statusFailed, err.Error()}
	}

	symbolRows := 0
	for _, row := range rows {
		if row.MatchesUnderlying(symbol) {
			symbolRows++
		}
	}

	return checkResult{"Flat files", statusOK, fmt.Sprintf("%d rows in the %s file, %d for %s", len(rows), date.Format(utils.DateLayout), symbolRows, symbol)}
}

// checkChainBuild runs the full pipeline once: spot price, expiration
// pick, chain build, Greeks. A pass here means the dashboard will work.
func checkChainBuild(ctx context.Context, polygonClient *services.PolygonClient, flatFiles *services.FlatFileStore, symbol models.StockSymbol) checkResult {
	config := models.DefaultViewerConfig()
	builder := services.NewChainBuilder(polygonClient, flatFiles, config)

	asOf := utils.PreviousBusinessDay(time.Now().UTC().Truncate(24 * time.Hour))

	expirations, err := builder.ListExpirations(ctx, symbol, asOf)
	if err != nil {
		return checkResult{"Chain build", statusFailed, err.Error()}
	}

	if len(expirations) == 0 {
		return checkResult{"Chain build", statusFailed, fmt.Sprintf("no expirations listed for %s", symbol)}
	}

	result, err := builder.BuildChain(ctx, symbol, expirations[0], asOf, false)
	if err != nil {
		return checkResult{"Chain build", statusFailed, err.Error()}
	}

	withGreeks := 0
	for _, contract := range result.Chain.Contracts {
		if contract.HasGreeks {
			withGreeks++
		}
	}

	detail := fmt.Sprintf("%d contracts from %s, %d with Greeks", len(result.Chain.Contracts), result.Chain.DataSource, withGreeks)
	if len(result.Warnings) > 0 {
		detail += fmt.Sprintf(" (%d warnings)", len(result.Warnings))
	}

	return checkResult{"Chain build", statusOK, detail}
}

func renderReport(checks []checkResult) string {
	display := &strings.Builder{}
	display.WriteString("Polygon access report:\n")

	table := tablewriter.NewWriter(display)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnSeparator("")
	table.SetHeader([]string{"COMPONENT", "STATUS", "DETAIL"})

	for _, check := range checks {
		table.Append([]string{check.Component, check.Status, check.Detail})
	}

	table.Render()

	return display.String()
}

func main() {
	runCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in.")
	runCmd.PersistentFlags().String("symbol", "SPY", "The symbol used for the probe requests.")

	runCmd.Execute()
}
