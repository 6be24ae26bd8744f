package dexscreener

import "encoding/json"

// Response is the upstream envelope. The pair list lives under "pairs".
// A null or missing list decodes to an empty slice. Elements are kept raw
// so one badly typed record cannot fail the whole response.
type Response struct {
	SchemaVersion string            `json:"schemaVersion,omitempty"`
	Pairs         []json.RawMessage `json:"pairs"`
}

// RawPair is one upstream pair record exactly as received.
// Every nested field is optional; Validate decides what is usable.
type RawPair struct {
	ChainID       string        `json:"chainId"`
	DexID         string        `json:"dexId"`
	URL           string        `json:"url"`
	PairAddress   string        `json:"pairAddress"`
	BaseToken     *RawToken     `json:"baseToken"`
	QuoteToken    *RawToken     `json:"quoteToken"`
	PriceUSD      string        `json:"priceUsd"`
	Liquidity     *RawLiquidity `json:"liquidity"`
	Volume        *RawVolume    `json:"volume"`
	PairCreatedAt *int64        `json:"pairCreatedAt"`
	Security      *RawSecurity  `json:"security"`

	decodeErr error // set by DecodeResponse when the element did not decode
}

// RawToken is one side of a pair.
type RawToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// RawLiquidity holds pool depth.
type RawLiquidity struct {
	USD   *float64 `json:"usd"`
	Base  *float64 `json:"base"`
	Quote *float64 `json:"quote"`
}

// RawVolume holds traded volume per window. Only H24 is consumed.
type RawVolume struct {
	M5  *float64 `json:"m5"`
	H1  *float64 `json:"h1"`
	H6  *float64 `json:"h6"`
	H24 *float64 `json:"h24"`
}

// RawSecurity holds optional risk flags.
type RawSecurity struct {
	Honeypot        *bool `json:"honeypot"`
	Verified        *bool `json:"verified"`
	LiquidityLocked *bool `json:"liquidityLocked"`
}

// DecodeResponse parses a full response body. Only an invalid envelope is
// an error; an element that does not decode into RawPair is returned as a
// record that fails Validate.
func DecodeResponse(body []byte) ([]RawPair, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	pairs := make([]RawPair, len(resp.Pairs))
	for i, raw := range resp.Pairs {
		if err := json.Unmarshal(raw, &pairs[i]); err != nil {
			pairs[i] = RawPair{decodeErr: err}
		}
	}
	return pairs, nil
}
