package market

import "time"

// Direction represents the trade direction of an opportunity
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// AssetClass categorizes the instrument a snapshot describes
type AssetClass string

const (
	AssetEquity AssetClass = "equity"
	AssetETF    AssetClass = "etf"
	AssetIndex  AssetClass = "index"
	AssetCrypto AssetClass = "crypto"
)

// Regime is a coarse market-condition tag used to gate or adjust strategies
type Regime string

const (
	RegimeTrending Regime = "trending"
	RegimeRanging  Regime = "ranging"
	RegimeChoppy   Regime = "choppy"
	RegimeVolatile Regime = "volatile"
)

// VolatilityLevel buckets the current VIX reading
type VolatilityLevel string

const (
	VolLow     VolatilityLevel = "low"
	VolMedium  VolatilityLevel = "medium"
	VolHigh    VolatilityLevel = "high"
	VolExtreme VolatilityLevel = "extreme"
)

// ClassifyVIX maps a VIX level to a volatility bucket
func ClassifyVIX(vix float64) VolatilityLevel {
	switch {
	case vix < 15:
		return VolLow
	case vix < 25:
		return VolMedium
	case vix < 35:
		return VolHigh
	default:
		return VolExtreme
	}
}

// IndicatorBundle holds per-timeframe indicator values
type IndicatorBundle struct {
	ATR       float64 `json:"atr"`
	RSI       float64 `json:"rsi"`
	EMA9      float64 `json:"ema_9"`
	EMA21     float64 `json:"ema_21"`
	EMA50     float64 `json:"ema_50"`
	AvgVolume float64 `json:"avg_volume"`
}

// FeatureSnapshot is the per-symbol input to one scan evaluation.
// It is produced once per tick by the feed layer and never mutated here.
type FeatureSnapshot struct {
	Symbol     string     `json:"symbol"`
	AssetClass AssetClass `json:"asset_class"`
	Timestamp  time.Time  `json:"timestamp"`

	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	AvgVolume float64 `json:"avg_volume"`
	VWAP      float64 `json:"vwap"`
	ORBHigh   float64 `json:"orb_high"`
	ORBLow    float64 `json:"orb_low"`
	DayHigh   float64 `json:"day_high"`
	DayLow    float64 `json:"day_low"`
	PrevClose float64 `json:"prev_close"`

	MinutesSinceOpen int  `json:"minutes_since_open"`
	MinutesToClose   int  `json:"minutes_to_close"`
	RegularHours     bool `json:"regular_hours"`

	// Indicator bundles keyed by timeframe ("1m", "5m", "15m", "1h", "1d")
	Timeframes map[string]IndicatorBundle `json:"timeframes"`

	MTFAlignment float64         `json:"mtf_alignment"` // 0-100
	Regime       Regime          `json:"regime"`
	VolLevel     VolatilityLevel `json:"vol_level"`
	VIX          float64         `json:"vix"`

	// Optional context fields populated by the feed when its pipeline
	// already computed them. The boost collector prefers live provider
	// lookups and falls back to these. They are part of the snapshot
	// contract, never inferred from unrelated fields.
	IVPercentile  *float64 `json:"iv_percentile,omitempty"`
	GammaExposure *float64 `json:"gamma_exposure,omitempty"`
	FlowAlignment *float64 `json:"flow_alignment,omitempty"`
}

// OptionsChainSnapshot carries the option-derived features a subset of
// detectors and the IV gate consume. DataPoints below the sufficiency
// threshold marks the IV analysis as unreliable.
type OptionsChainSnapshot struct {
	Symbol       string    `json:"symbol"`
	Timestamp    time.Time `json:"timestamp"`
	IVPercentile float64   `json:"iv_percentile"` // 0-100
	IVRank       float64   `json:"iv_rank"`       // 0-100
	NetGamma     float64   `json:"net_gamma"`     // dealer gamma, signed
	CallVolume   float64   `json:"call_volume"`
	PutVolume    float64   `json:"put_volume"`
	PutCallRatio float64   `json:"put_call_ratio"`
	DataPoints   int       `json:"data_points"`
}
