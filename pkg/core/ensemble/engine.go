// Package ensemble implements EnsembleEngine (§4.F): the orchestration
// layer that runs ScenarioExecutor (after RatioKernel, when entered through
// ValueFromStatements), blends the per-model outputs into a single
// fair-value call, and stamps the result with an audit digest of the
// weights and the EnsembleNet feature vector. The network itself is not
// evaluated here, and the Prediction record is not persisted by this
// package: only its digest is returned, as PredictionID. Grounded on the teacher's pkg/core/pipeline
// orchestrator for the "run the stages, degrade gracefully, never let a
// stage panic the request" shape, generalized from the teacher's
// ingest-then-value pipeline to this engine's ratio-then-scenario-then-net
// pipeline.
package ensemble

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"fundamentalengine/pkg/core/ensemble/net"
	"fundamentalengine/pkg/core/errs"
	"fundamentalengine/pkg/core/ratio"
	"fundamentalengine/pkg/core/registry"
	"fundamentalengine/pkg/core/scenario"
	"fundamentalengine/pkg/core/trend"
	"fundamentalengine/pkg/core/valuation"
	"fundamentalengine/pkg/models"
)

// Options carries the request-scoped overrides §4.F's `value(company,
// as_of, options)` operation accepts.
type Options struct {
	HorizonDays  int     // default 90
	CurrentPrice float64 // drives the recommendation band in step 8
	TrendSeries  []float64
	TrendFreq    trend.Frequency
	MetricName   string
	RecentAccuracy map[models.ModelID]float64
}

func (o Options) horizonDays() int {
	if o.HorizonDays <= 0 {
		return 90
	}
	return o.HorizonDays
}

// Engine orchestrates a single valuation request. Registry is injected so
// callers can use an isolated instance in tests instead of the process
// singleton.
type Engine struct {
	Registry *registry.Registry
}

// New builds an Engine against the process-wide registry singleton.
func New() *Engine { return &Engine{Registry: registry.Default} }

// Value runs the full C+D+E pipeline and blends the result, implementing
// §4.F's nine steps.
func (e *Engine) Value(tenantID string, company models.Company, asOf time.Time, p valuation.Params, opts Options) (*models.EnsembleResult, error) {
	companyID := company.ID
	res := scenario.Execute(companyID, asOf, p)

	degraded := missingModels(res.Values)

	features := featureVectorFor(res, opts.RecentAccuracy)

	weights := e.resolveWeights(company)

	scenarioWeights := deriveScenarioWeights(trendDirection(opts))

	blended, blendedConf, finite := blendModels(res.Values, scenarioWeights)
	if len(finite) == 0 {
		return &models.EnsembleResult{
			AsOf:            asOf,
			Status:          models.StatusFailed,
			DegradedMetrics: degraded,
			PerModelValues:  res.Values,
		}, errs.New(errs.InsufficientData, "no finite model result for any of the eight models")
	}

	renormWeights := renormalize(weights, finite)

	finalValue, confidence := weightedFairValue(blended, blendedConf, renormWeights)
	low, high := valueRange(res.Values, renormWeights, scenarioWeights)

	status := models.StatusOK
	if len(degraded) > 0 {
		status = models.StatusDegraded
	}

	rec := recommendation(finalValue, opts.CurrentPrice, confidence)

	modelWeights := make(map[models.ModelID]float64, len(models.AllModels))
	for i, id := range models.AllModels {
		modelWeights[id] = renormWeights[i]
	}

	result := &models.EnsembleResult{
		AsOf:            asOf,
		FinalFairValue:  finalValue,
		Confidence:      confidence,
		ValueRangeLow:   low,
		ValueRangeHigh:  high,
		ModelWeights:    modelWeights,
		ScenarioWeights: scenarioWeights,
		PerModelValues:  res.Values,
		Recommendation:  rec,
		Status:          status,
		DegradedMetrics: degraded,
	}

	pred := models.Prediction{
		CompanyID:     companyID,
		TenantID:      tenantID,
		IssuedAt:      asOf,
		HorizonDays:   opts.horizonDays(),
		FairValue:     finalValue,
		Confidence:    confidence,
		WeightsDigest: weightsDigest(renormWeights, features),
		OwnerScope:    models.CompanyScope(companyID),
	}
	result.PredictionID = pred.WeightsDigest

	return result, nil
}

// ValueFromStatements runs the full A→F pipeline the data-flow overview
// names: RatioKernel first (ratio.Compute), then ParamsFromRatios to bridge
// its output into ValuationModels' input shape, then Value as usual. Kept
// separate from Value so callers that already have a Params (e.g. a
// backtest replaying stored predictions) can skip straight to it.
func (e *Engine) ValueFromStatements(tenantID string, company models.Company, in ratio.Input, assumptions Assumptions, opts Options) (*models.EnsembleResult, error) {
	rs, err := ratio.Compute(in)
	if err != nil {
		return nil, errs.Wrap(errs.InsufficientData, "ratio kernel failed ahead of valuation", err)
	}
	p, err := ParamsFromRatios(in, rs, assumptions)
	if err != nil {
		return nil, err
	}
	return e.Value(tenantID, company, in.AsOf, p, opts)
}

// resolveWeights implements step 3's precedence: company-override >
// industry-active > global-active > default.
func (e *Engine) resolveWeights(company models.Company) [8]float64 {
	if e == nil || e.Registry == nil {
		return models.DefaultWeightTable
	}
	if v := e.Registry.ActiveWeight(models.CompanyScope(company.ID)); v != nil {
		return v.ModelWeights
	}
	if company.Industry != "" {
		if v := e.Registry.ActiveWeight(models.IndustryScope(company.Industry)); v != nil {
			return v.ModelWeights
		}
	}
	if v := e.Registry.ActiveWeight(models.GlobalScope()); v != nil {
		return v.ModelWeights
	}
	return models.DefaultWeightTable
}

// missingModels lists models that came back undefined across all three
// scenarios, the §4.F degraded_metrics contract.
func missingModels(results []models.ValuationResult) []string {
	defined := make(map[models.ModelID]bool)
	for _, r := range results {
		if r.FairValue != nil {
			defined[r.ModelID] = true
		}
	}
	var missing []string
	for _, id := range models.AllModels {
		if !defined[id] {
			missing = append(missing, string(id)+"_number")
		}
	}
	sort.Strings(missing)
	return missing
}

// trendDirection resolves the direction driving step 4's scenario-weight
// interpolation. Callers that supply a TrendSeries get an analyzed
// direction; otherwise the engine treats the request as stable, the
// neutral midpoint of the interpolation table.
func trendDirection(opts Options) models.Direction {
	if len(opts.TrendSeries) < 3 {
		return models.Stable
	}
	tm, err := trend.Analyze("", opts.MetricName, time.Time{}, opts.TrendSeries, opts.TrendFreq)
	if err != nil {
		return models.Stable
	}
	return tm.Direction
}

// deriveScenarioWeights implements step 4's five-point table with linear
// interpolation for the two intermediate directions.
func deriveScenarioWeights(dir models.Direction) map[models.Scenario]float64 {
	table := map[models.Direction][3]float64{
		models.StrongImproving: {0.45, 0.40, 0.15},
		models.Improving:       {0.35, 0.45, 0.20},
		models.Stable:          {0.25, 0.50, 0.25},
		models.Declining:       {0.20, 0.45, 0.35},
		models.StrongDeclining: {0.15, 0.40, 0.45},
	}
	w := table[dir]
	if w == [3]float64{} {
		w = table[models.Stable]
	}
	return map[models.Scenario]float64{
		models.ScenarioBull: w[0],
		models.ScenarioBase: w[1],
		models.ScenarioBear: w[2],
	}
}

// blendModels implements step 5: scenario-blended value and confidence per
// model. Returns parallel arrays in models.AllModels order plus the set of
// models that have at least one finite scenario value (used for
// renormalization in step 6).
func blendModels(results []models.ValuationResult, scenarioWeights map[models.Scenario]float64) (values [8]float64, confidences [8]float64, finite map[int]bool) {
	finite = make(map[int]bool)
	for idx, id := range models.AllModels {
		var v, c float64
		var anyDefined bool
		for _, r := range results {
			if r.ModelID != id {
				continue
			}
			sw := scenarioWeights[r.Scenario]
			if r.FairValue != nil {
				v += sw * *r.FairValue
				c += sw * r.ConfidenceBase
				anyDefined = true
			}
		}
		values[idx] = v
		confidences[idx] = c
		if anyDefined {
			finite[idx] = true
		}
	}
	return
}

// renormalize implements step 6's "ensemble weights are renormalised over
// the models that produced finite values" rule (§7 propagation policy).
func renormalize(weights [8]float64, finite map[int]bool) [8]float64 {
	var sum float64
	for idx := range weights {
		if finite[idx] {
			sum += weights[idx]
		}
	}
	var out [8]float64
	if sum == 0 {
		return out
	}
	for idx := range weights {
		if finite[idx] {
			out[idx] = weights[idx] / sum
		}
	}
	return out
}

func weightedFairValue(values, confidences, weights [8]float64) (fairValue, confidence float64) {
	for i := range values {
		fairValue += weights[i] * values[i]
		confidence += weights[i] * confidences[i]
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return fairValue, confidence
}

// valueRange implements step 7: the 10th/90th percentile of the 24
// (model, scenario) values weighted by w_m * scenario_weight_s.
func valueRange(results []models.ValuationResult, modelWeights [8]float64, scenarioWeights map[models.Scenario]float64) (low, high float64) {
	type weighted struct {
		value  float64
		weight float64
	}
	weightFor := func(id models.ModelID) float64 {
		for i, m := range models.AllModels {
			if m == id {
				return modelWeights[i]
			}
		}
		return 0
	}

	var entries []weighted
	var totalWeight float64
	for _, r := range results {
		if r.FairValue == nil {
			continue
		}
		w := weightFor(r.ModelID) * scenarioWeights[r.Scenario]
		if w <= 0 {
			continue
		}
		entries = append(entries, weighted{value: *r.FairValue, weight: w})
		totalWeight += w
	}
	if len(entries) == 0 || totalWeight == 0 {
		return 0, 0
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].value < entries[j].value })

	percentile := func(p float64) float64 {
		target := p * totalWeight
		var cumulative float64
		for _, e := range entries {
			cumulative += e.weight
			if cumulative >= target {
				return e.value
			}
		}
		return entries[len(entries)-1].value
	}
	return percentile(0.10), percentile(0.90)
}

// recommendation implements step 8's five-band threshold on the
// fair-value/current-price premium.
func recommendation(fairValue, currentPrice, confidence float64) models.Recommendation {
	if currentPrice <= 0 {
		return models.RecHold
	}
	premium := fairValue/currentPrice - 1
	switch {
	case premium > 0.20 && confidence > 0.6:
		return models.RecStrongBuy
	case premium > 0.10:
		return models.RecBuy
	case premium > -0.10:
		return models.RecHold
	case premium > -0.20:
		return models.RecSell
	default:
		return models.RecStrongSell
	}
}

// weightsDigest fingerprints the deployed weight vector and the feature
// vector that drove this request for the Prediction audit trail (§4.F
// step 9, §7 invariant-violation logging).
func weightsDigest(weights [8]float64, features []float64) string {
	h := sha256.New()
	for _, w := range weights {
		fmt.Fprintf(h, "%.9f|", w)
	}
	for _, f := range features {
		fmt.Fprintf(h, "%.9f|", f)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// featureVectorFor assembles the EnsembleNet input for this request; Value
// folds it into the Prediction's weights digest.
func featureVectorFor(res scenario.Result, recentAccuracy map[models.ModelID]float64) []float64 {
	return net.AssembleFeatures(res.Coherence, res.Values, recentAccuracy)
}
