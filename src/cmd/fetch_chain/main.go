package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kshitijsingla/chain-viewer/src/models"
	"github.com/kshitijsingla/chain-viewer/src/services"
	"github.com/kshitijsingla/chain-viewer/src/utils"
)

type RunArgs struct {
	GoEnv      string
	Symbol     string
	Date       string
	Expiration string
	Strikes    int
	Refresh    bool
	Diagnose   bool
}

type RunResult struct {
	Chain    *models.OptionChain
	Warnings []string
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/fetch_chain/main.go --symbol SPY --date 2024-01-10",
	Short: "Fetch a historical options chain and print it as a table",
	Run: func(cmd *cobra.Command, args []string) {
		goEnv, err := cmd.Flags().GetString("go-env")
		if err != nil {
			log.Fatalf("error getting go-env: %v", err)
		}

		symbol, err := cmd.Flags().GetString("symbol")
		if err != nil {
			log.Fatalf("error getting symbol: %v", err)
		}

		date, err := cmd.Flags().GetString("date")
		if err != nil {
			log.Fatalf("error getting date: %v", err)
		}

		expiration, err := cmd.Flags().GetString("expiration")
		if err != nil {
			log.Fatalf("error getting expiration: %v", err)
		}

		strikes, err := cmd.Flags().GetInt("strikes")
		if err != nil {
			log.Fatalf("error getting strikes: %v", err)
		}

		refresh, err := cmd.Flags().GetBool("refresh")
		if err != nil {
			log.Fatalf("error getting refresh: %v", err)
		}

		diagnose, err := cmd.Flags().GetBool("diagnose")
		if err != nil {
			log.Fatalf("error getting diagnose: %v", err)
		}

		result, err := Run(RunArgs{
			GoEnv:      goEnv,
			Symbol:     symbol,
			Date:       date,
			Expiration: expiration,
			Strikes:    strikes,
			Refresh:    refresh,
			Diagnose:   diagnose,
		})

		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		for _, warning := range result.Warnings {
			log.Warnf("%s", warning)
		}

		if diagnose {
			fmt.Print(renderDiagnosis(result.Chain))
		} else {
			fmt.Print(renderChain(result.Chain, strikes))
		}
	},
}

func Run(args RunArgs) (RunResult, error) {
	projectsDir := utils.GetEnvOrDefault("PROJECTS_DIR", ".")

	if err := utils.InitEnvironmentVariables(projectsDir, args.GoEnv); err != nil {
		log.Warnf("failed to load env file: %v", err)
	}

	polygonApiKey := os.Getenv("POLYGON_API_KEY")
	if polygonApiKey == "" {
		log.Fatalf("missing POLYGON_API_KEY environment variable")
	}

	symbol := models.StockSymbol(strings.ToUpper(strings.TrimSpace(args.Symbol)))
	if symbol == "" {
		return RunResult{}, fmt.Errorf("symbol is required")
	}

	ctx := context.Background()

	polygonClient := services.NewPolygonClient(polygonApiKey)

	var flatFiles *services.FlatFileStore
	s3AccessKeyID := os.Getenv("POLYGON_S3_ACCESS_KEY_ID")
	s3SecretAccessKey := os.Getenv("POLYGON_S3_SECRET_ACCESS_KEY")
	if s3AccessKeyID != "" && s3SecretAccessKey != "" {
		var err error
		flatFiles, err = services.NewFlatFileStore(ctx, s3AccessKeyID, s3SecretAccessKey)
		if err != nil {
			log.Warnf("failed to setup flat file store, continuing with the REST API only: %v", err)
			flatFiles = nil
		}
	}

	config := models.DefaultViewerConfig()
	builder := services.NewChainBuilder(polygonClient, flatFiles, config)

	asOf := utils.PreviousBusinessDay(time.Now().UTC().Truncate(24 * time.Hour))
	if args.Date != "" {
		var err error
		asOf, err = utils.ParseDate(args.Date)
		if err != nil {
			return RunResult{}, err
		}
	}

	var expiration time.Time
	if args.Expiration != "" {
		var err error
		expiration, err = utils.ParseDate(args.Expiration)
		if err != nil {
			return RunResult{}, err
		}
	} else {
		var err error
		expiration, err = defaultExpiration(ctx, builder, symbol, asOf, config.TargetDaysToExpiry)
		if err != nil {
			return RunResult{}, err
		}

		log.Infof("no expiration given: using %s", expiration.Format(utils.DateLayout))
	}

	result, err := builder.BuildChain(ctx, symbol, expiration, asOf, args.Refresh)
	if err != nil {
		return RunResult{}, fmt.Errorf("error building chain: %w", err)
	}

	log.Infof("%s as of %s: spot $%.2f, %d contracts from %s",
		symbol, asOf.Format(utils.DateLayout), result.Chain.SpotPrice, len(result.Chain.Contracts), result.Chain.DataSource)

	return RunResult{Chain: result.Chain, Warnings: result.Warnings}, nil
}

// defaultExpiration picks the listed expiration closest to the target
// days-to-expiry, the same default the dashboard preselects.
func defaultExpiration(ctx context.Context, builder *services.ChainBuilder, symbol models.StockSymbol, asOf time.Time, targetDays int) (time.Time, error) {
	expirations, err := builder.ListExpirations(ctx, symbol, asOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("error listing expirations: %w", err)
	}

	if len(expirations) == 0 {
		return time.Time{}, fmt.Errorf("no expirations listed for %s", symbol)
	}

	best := expirations[0]
	bestDistance := -1
	for _, expiration := range expirations {
		dte := utils.DaysBetween(asOf, expiration)
		if dte <= 0 {
			continue
		}

		distance := dte - targetDays
		if distance < 0 {
			distance = -distance
		}

		if bestDistance < 0 || distance < bestDistance {
			bestDistance = distance
			best = expiration
		}
	}

	return best, nil
}

type chainRow struct {
	strike float64
	call   *models.OptionContract
	put    *models.OptionContract
}

func groupByStrike(chain *models.OptionChain) []chainRow {
	byStrike := make(map[float64]*chainRow)
	for i := range chain.Contracts {
		contract := &chain.Contracts[i]
		row, found := byStrike[contract.Strike]
		if !found {
			row = &chainRow{strike: contract.Strike}
			byStrike[contract.Strike] = row
		}

		if contract.OptionType == models.OptionTypeCall {
			row.call = contract
		} else {
			row.put = contract
		}
	}

	rows := make([]chainRow, 0, len(byStrike))
	for _, row := range byStrike {
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].strike < rows[j].strike })

	return rows
}

// windowRows trims the strike list to n strikes either side of the ATM
// strike. n <= 0 keeps every strike.
func windowRows(rows []chainRow, atm float64, n int) []chainRow {
	if n <= 0 {
		return rows
	}

	atmIdx := 0
	for i, row := range rows {
		if row.strike == atm {
			atmIdx = i
			break
		}
	}

	lo := atmIdx - n
	if lo < 0 {
		lo = 0
	}

	hi := atmIdx + n
	if hi > len(rows)-1 {
		hi = len(rows) - 1
	}

	return rows[lo : hi+1]
}

func renderChain(chain *models.OptionChain, strikes int) string {
	display := &strings.Builder{}
	p := message.NewPrinter(language.English)

	table := tablewriter.NewWriter(display)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnSeparator("")
	table.SetHeader([]string{"VOL", "OI", "IV", "DELTA", "BID", "ASK", "LAST", "STRIKE", "BID", "ASK", "LAST", "DELTA", "IV", "OI", "VOL"})

	atm := chain.ATMStrike()
	rows := windowRows(groupByStrike(chain), atm, strikes)

	display.WriteString(fmt.Sprintf("%s %s chain, expiring %s (calls | puts):\n",
		chain.Symbol, chain.AsOfDate.Format(utils.DateLayout), chain.Expiration.Format(utils.DateLayout)))

	// Highest strike first, matching a standard chain display.
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]

		strike := fmt.Sprintf("$%s", p.Sprintf("%.2f", row.strike))
		if row.strike == atm {
			strike = fmt.Sprintf("> %s <", strike)
		}

		cells := sideCells(row.call)
		cells = append(cells, strike)
		cells = append(cells, reversed(sideCells(row.put))...)

		table.Append(cells)
	}

	table.Render()

	return display.String()
}

func sideCells(contract *models.OptionContract) []string {
	if contract == nil {
		return []string{"-", "-", "-", "-", "-", "-", "-"}
	}

	return []string{
		utils.FormatNumber(contract.Volume),
		utils.FormatNumber(contract.OpenInterest),
		formatIV(contract.ImpliedVol),
		utils.FormatGreek(contract.Delta, contract.HasGreeks),
		utils.FormatPrice(contract.Bid),
		utils.FormatPrice(contract.Ask),
		utils.FormatPrice(contract.Last),
	}
}

func reversed(cells []string) []string {
	out := make([]string, len(cells))
	for i, cell := range cells {
		out[len(cells)-1-i] = cell
	}

	return out
}

func formatIV(value float64) string {
	if value <= 0 {
		return "-"
	}

	return utils.FormatPercent(value * 100)
}

// renderDiagnosis explains why a chain looks wrong: strike range vs the
// spot price, ATM distance, expected-strike gaps, and how much of the
// chain actually carries quotes, IV and Greeks.
func renderDiagnosis(chain *models.OptionChain) string {
	display := &strings.Builder{}

	display.WriteString(fmt.Sprintf("%s %s diagnosis, expiring %s (source: %s)\n",
		chain.Symbol, chain.AsOfDate.Format(utils.DateLayout), chain.Expiration.Format(utils.DateLayout), chain.DataSource))

	strikes := chain.Strikes()
	if len(strikes) == 0 {
		display.WriteString("no strikes in the chain: nothing to analyze\n")
		return display.String()
	}

	spot := chain.SpotPrice
	minStrike, maxStrike := strikes[0], strikes[len(strikes)-1]

	display.WriteString(fmt.Sprintf("spot price:    $%.2f\n", spot))
	display.WriteString(fmt.Sprintf("strikes:       %d, $%.2f - $%.2f\n", len(strikes), minStrike, maxStrike))

	if spot < minStrike {
		display.WriteString(fmt.Sprintf("warning: spot is below every strike (lowest $%.2f): every call looks far OTM\n", minStrike))
	} else if spot > maxStrike {
		display.WriteString(fmt.Sprintf("warning: spot is above every strike (highest $%.2f): every call looks far ITM\n", maxStrike))
	}

	atm := chain.ATMStrike()
	distancePct := 0.0
	if spot > 0 {
		distancePct = math.Abs(atm-spot) / spot * 100
	}

	display.WriteString(fmt.Sprintf("ATM strike:    $%.2f (%.1f%% from spot)\n", atm, distancePct))

	if distancePct > 5 {
		display.WriteString("warning: ATM strike is more than 5% from spot: the chain likely does not match the as-of date\n")
	}

	// Strikes at whole dollars around spot are what a liquid chain lists;
	// large gaps point at stale or thinly traded data.
	missing := 0
	for i := -10; i <= 10; i++ {
		expected := math.Round(spot) + float64(i)
		found := false
		for _, strike := range strikes {
			if strike == expected {
				found = true
				break
			}
		}

		if !found {
			missing++
		}
	}

	display.WriteString(fmt.Sprintf("expected:      %d of 21 whole-dollar strikes around spot are missing\n", missing))

	if spot > maxStrike*1.1 {
		display.WriteString("diagnosis: the chain appears stale for this spot price; try a closer as-of date or an actively traded expiration\n")
	}

	display.WriteString("\n")
	display.WriteString(renderCoverage(chain))

	return display.String()
}

// renderCoverage reports how much of the chain carries quotes, IV and
// Greeks, split by side. Useful for checking what a subscription tier
// actually returns for a given date.
func renderCoverage(chain *models.OptionChain) string {
	type coverage struct {
		contracts int
		quoted    int
		traded    int
		withIV    int
		withGreek int
	}

	var calls, puts coverage
	for _, contract := range chain.Contracts {
		side := &calls
		if contract.OptionType == models.OptionTypePut {
			side = &puts
		}

		side.contracts++
		if contract.Bid > 0 && contract.Ask > 0 {
			side.quoted++
		}
		if contract.Volume > 0 {
			side.traded++
		}
		if contract.ImpliedVol > 0 {
			side.withIV++
		}
		if contract.HasGreeks {
			side.withGreek++
		}
	}

	display := &strings.Builder{}

	table := tablewriter.NewWriter(display)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnSeparator("")
	table.SetHeader([]string{"", "CALLS", "PUTS"})

	appendRow := func(label string, callValue, putValue int) {
		table.Append([]string{label, fmt.Sprintf("%d", callValue), fmt.Sprintf("%d", putValue)})
	}

	appendRow("contracts", calls.contracts, puts.contracts)
	appendRow("with quotes", calls.quoted, puts.quoted)
	appendRow("traded", calls.traded, puts.traded)
	appendRow("with IV", calls.withIV, puts.withIV)
	appendRow("with greeks", calls.withGreek, puts.withGreek)

	table.Render()

	return display.String()
}

func main() {
	runCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in.")
	runCmd.PersistentFlags().String("symbol", "SPY", "The underlying stock symbol.")
	runCmd.PersistentFlags().String("date", "", "The as-of date, YYYY-MM-DD. Defaults to the previous business day.")
	runCmd.PersistentFlags().String("expiration", "", "The expiration date, YYYY-MM-DD. Defaults to the expiration closest to the target DTE.")
	runCmd.PersistentFlags().Int("strikes", 10, "Strikes to show either side of the ATM strike. 0 shows all.")
	runCmd.PersistentFlags().Bool("refresh", false, "Bypass the local cache.")
	runCmd.PersistentFlags().Bool("diagnose", false, "Print a data-quality diagnosis instead of the chain.")

	runCmd.Execute()
}
