package safety

import "strings"

// knownFunds lists widely-held ETFs and trusts that have no corporate
// financial statements to score.
var knownFunds = map[string]bool{
	"SPY": true, "VOO": true, "VTI": true, "QQQ": true, "IVV": true,
	"SCHD": true, "VYM": true, "VIG": true, "DVY": true, "HDV": true,
	"SPHD": true, "NOBL": true, "SDY": true, "JEPI": true, "JEPQ": true,
	"VNQ": true, "IWM": true, "DIA": true, "EFA": true, "AGG": true,
	"BND": true, "GLD": true, "SLV": true, "XLE": true, "XLF": true,
	"XLK": true, "XLV": true, "XLU": true, "XLP": true, "XLI": true,
}

// fundSuffixes catches non-US listings and unit/trust share classes that
// the statement provider cannot serve.
var fundSuffixes = []string{".TO", ".V", ".L", ".AX", ".HK", ".UN", ".U"}

// exclusionReason reports why a symbol cannot be scored from corporate
// statements, or empty when it is scoreable.
func exclusionReason(symbol string) string {
	if knownFunds[symbol] {
		return "ETF/fund: no corporate financial statements to analyze"
	}
	for _, suffix := range fundSuffixes {
		if strings.HasSuffix(symbol, suffix) {
			return "non-US listing or trust unit: financial statements unavailable"
		}
	}
	return ""
}
