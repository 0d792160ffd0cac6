// Package bnr fetches the daily exchange-rate fixing published by the
// National Bank of Romania as an XML document and turns it into rate
// pairs for the exchange table.
package bnr

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/andrei-d/partybank/internal/config"
	"github.com/andrei-d/partybank/internal/exchange"
)

// Client handles integration with the BNR fx feed.
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new BNR client.
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.BNRURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// fetch downloads the raw XML fixing document.
func (c *Client) fetch() ([]byte, error) {
	resp, err := c.client.Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debugf("BNR XML response: %s", string(body))
	return body, nil
}

// parseRates extracts the per-currency RON rates from the fixing
// document. Some currencies are quoted per 100 units (the multiplier
// attribute); those are normalized to a per-unit rate.
func (c *Client) parseRates(rawBody []byte) (map[string]decimal.Decimal, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	rateElements := doc.FindElements("//Body/Cube/Rate")
	if len(rateElements) == 0 {
		return nil, fmt.Errorf("no rate data found in XML")
	}

	rates := make(map[string]decimal.Decimal, len(rateElements))
	for _, el := range rateElements {
		currency := el.SelectAttrValue("currency", "")
		if currency == "" {
			continue
		}
		rate, err := decimal.NewFromString(el.Text())
		if err != nil {
			return nil, fmt.Errorf("failed to parse rate for %s: %w", currency, err)
		}
		if mul := el.SelectAttrValue("multiplier", ""); mul != "" {
			m, err := decimal.NewFromString(mul)
			if err != nil || m.IsZero() {
				return nil, fmt.Errorf("bad multiplier %q for %s", mul, currency)
			}
			rate = rate.Div(m)
		}
		rates[currency] = rate
	}
	return rates, nil
}

// Refresh loads the current fixing into the table. Every quoted
// currency X yields both X->RON and the inverse RON->X pair.
func (c *Client) Refresh(table *exchange.Table) error {
	body, err := c.fetch()
	if err != nil {
		return err
	}

	quoted, err := c.parseRates(body)
	if err != nil {
		return err
	}

	rates := make(map[string]map[string]decimal.Decimal, len(quoted)+1)
	rates["RON"] = make(map[string]decimal.Decimal, len(quoted))
	one := decimal.NewFromInt(1)
	for currency, r := range quoted {
		rates[currency] = map[string]decimal.Decimal{"RON": r}
		rates["RON"][currency] = one.DivRound(r, 6)
	}
	table.Replace(rates)

	c.log.Infof("Loaded %d exchange rates from BNR", len(quoted))
	return nil
}
