package data

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/chriseid/OptionBot/internal/logger"
)

// RemoteLoader fetches chain snapshots from a snapshot service over HTTP.
//
// The service exposes two polygon-style endpoints:
//
//	GET /v1/aggs/{symbol}?from=...&to=...   -> daily underlying closes
//	GET /v1/chain/{symbol}/{date}           -> option quotes for one day
type RemoteLoader struct {
	client  *resty.Client
	baseURL string
}

type remoteAggsResp struct {
	Results []struct {
		Date  string  `json:"date"`
		Close float64 `json:"close"`
	} `json:"results"`
}

type remoteChainResp struct {
	Results []OptionQuote `json:"results"`
}

// NewRemoteLoader constructs a loader for the given base URL. The API key,
// if non-empty, is sent as a bearer token on every request.
func NewRemoteLoader(baseURL, apiKey string) *RemoteLoader {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(15 * time.Second)
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &RemoteLoader{client: c, baseURL: baseURL}
}

// FetchDays downloads the snapshots for symbol within [start, end] inclusive.
// Days whose chain request fails are skipped with a warning rather than
// aborting the whole download.
func (l *RemoteLoader) FetchDays(symbol, start, end string) ([]TradingDay, error) {
	var aggs remoteAggsResp
	resp, err := l.client.R().
		SetResult(&aggs).
		SetQueryParams(map[string]string{"from": start, "to": end}).
		Get(fmt.Sprintf("/v1/aggs/%s", symbol))
	if err != nil {
		return nil, fmt.Errorf("fetch aggs for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch aggs for %s: status %d", symbol, resp.StatusCode())
	}

	out := make([]TradingDay, 0, len(aggs.Results))
	for _, agg := range aggs.Results {
		var chain remoteChainResp
		resp, err := l.client.R().
			SetResult(&chain).
			Get(fmt.Sprintf("/v1/chain/%s/%s", symbol, agg.Date))
		if err != nil || resp.IsError() {
			logger.Errorf("chain fetch %s %s failed, day skipped: %v", symbol, agg.Date, err)
			continue
		}
		out = append(out, TradingDay{
			Symbol:          symbol,
			Date:            agg.Date,
			UnderlyingPrice: agg.Close,
			Quotes:          chain.Results,
		})
	}
	logger.Infof("remote loader: %d/%d days for %s", len(out), len(aggs.Results), symbol)
	return out, nil
}
