package ratio

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"fundamentalengine/pkg/models"
)

// DecodeStatementSet parses a JSON-encoded statement set supplied by an
// upstream market-data collaborator (§5's "upstream_unavailable" source),
// repairing common malformations (trailing commas, single-quoted keys,
// unclosed braces) before giving up. Mirrors the teacher's
// utils.RepairJSON gatekeeper, generalized from LLM-extraction payloads to
// third-party statement feeds.
func DecodeStatementSet(raw []byte) (models.StatementSet, error) {
	var out models.StatementSet
	if err := json.Unmarshal(raw, &out); err == nil {
		return out, nil
	}

	repaired, err := jsonrepair.RepairJSON(string(raw))
	if err != nil {
		return out, fmt.Errorf("ratio: decode statement set: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return out, fmt.Errorf("ratio: decode repaired statement set: %w", err)
	}
	if out.Income == nil && out.Balance == nil && out.CashFlow == nil {
		return out, fmt.Errorf("ratio: decode repaired statement set: no statements recovered")
	}
	return out, nil
}

// DecodeMarketDataPoint parses a JSON-encoded market quote the same way,
// for the cases where a price feed returns slightly malformed JSON
// (TRUE/FALSE instead of true/false, a stray trailing comma) rather than
// failing outright.
func DecodeMarketDataPoint(raw []byte) (models.MarketDataPoint, error) {
	var out models.MarketDataPoint
	if err := json.Unmarshal(raw, &out); err == nil {
		return out, nil
	}

	repaired, err := jsonrepair.RepairJSON(string(raw))
	if err != nil {
		return out, fmt.Errorf("ratio: decode market data point: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return out, fmt.Errorf("ratio: decode repaired market data point: %w", err)
	}
	return out, nil
}
