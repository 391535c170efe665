// Command valuation-cli runs one ensemble valuation (§4.F) against a
// JSON-encoded valuation.Params file and prints the resulting
// EnsembleResult, the same payload §6 names as the API's output shape.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"fundamentalengine/pkg/core/ensemble"
	"fundamentalengine/pkg/core/logging"
	"fundamentalengine/pkg/core/ratio"
	"fundamentalengine/pkg/core/valuation"
	"fundamentalengine/pkg/models"
)

var log = logging.For("valuation-cli")

func main() {
	_ = godotenv.Load()

	var (
		paramsPath     = flag.String("params", "", "path to a JSON-encoded valuation.Params file")
		statementsPath = flag.String("statements", "", "path to a JSON-encoded ratio.Input file; runs RatioKernel first instead of taking Params directly")
		companyID      = flag.String("company", "", "company id")
		ticker         = flag.String("ticker", "", "company ticker")
		industry       = flag.String("industry", "", "company industry, used for weight-vector precedence")
		horizon        = flag.Int("horizon-days", 365, "prediction horizon in days")
		currentPrice   = flag.Float64("current-price", 0, "current market price, drives the recommendation band")
		unleveredBeta  = flag.Float64("unlevered-beta", 1.0, "asset beta feeding CalculateWACC, only used with -statements")
		riskFreeRate   = flag.Float64("risk-free-rate", 0.04, "only used with -statements")
		marketPremium  = flag.Float64("market-risk-premium", 0.05, "only used with -statements")
		pretaxCostDebt = flag.Float64("pretax-cost-of-debt", 0.06, "only used with -statements")
		terminalGrowth = flag.Float64("terminal-growth", 0.025, "only used with -statements")
		taxRate        = flag.Float64("tax-rate", 0.21, "only used with -statements")
	)
	flag.Parse()

	if *companyID == "" || (*paramsPath == "" && *statementsPath == "") {
		fmt.Fprintln(os.Stderr, "usage: valuation-cli -company=<id> (-params=<params.json> | -statements=<ratio-input.json>) [-ticker=T] [-industry=I] [-horizon-days=365]")
		os.Exit(2)
	}

	company := models.Company{ID: *companyID, Ticker: *ticker, Industry: *industry}
	engine := ensemble.New()
	opts := ensemble.Options{HorizonDays: *horizon, CurrentPrice: *currentPrice}

	var (
		result *models.EnsembleResult
		err    error
	)
	if *statementsPath != "" {
		raw, readErr := os.ReadFile(*statementsPath)
		if readErr != nil {
			log.Fatal().Err(readErr).Str("path", *statementsPath).Msg("failed to read statements file")
		}
		var in ratio.Input
		if err := json.Unmarshal(raw, &in); err != nil {
			log.Fatal().Err(err).Msg("failed to parse statements file")
		}
		assumptions := ensemble.Assumptions{
			UnleveredBeta:     *unleveredBeta,
			RiskFreeRate:      *riskFreeRate,
			MarketRiskPremium: *marketPremium,
			PreTaxCostOfDebt:  *pretaxCostDebt,
			TerminalGrowth:    *terminalGrowth,
			TaxRate:           *taxRate,
		}
		result, err = engine.ValueFromStatements("cli", company, in, assumptions, opts)
	} else {
		raw, readErr := os.ReadFile(*paramsPath)
		if readErr != nil {
			log.Fatal().Err(readErr).Str("path", *paramsPath).Msg("failed to read params file")
		}
		var params valuation.Params
		if err := json.Unmarshal(raw, &params); err != nil {
			log.Fatal().Err(err).Msg("failed to parse params file")
		}
		result, err = engine.Value("cli", company, time.Now(), params, opts)
	}
	if err != nil {
		log.Fatal().Err(err).Str("company", *companyID).Msg("valuation failed")
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to marshal result")
	}
	fmt.Println(string(out))
}
