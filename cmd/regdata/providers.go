package main

import (
	"fmt"

	"github.com/econlab/regdata/internal/config"
	"github.com/econlab/regdata/internal/infra"
	"github.com/econlab/regdata/internal/providers/fred"
	"github.com/econlab/regdata/internal/providers/yfinance"
)

// newFRED builds the FRED client from config. It fails when no API key
// is configured.
func newFRED(c *config.Config) (*fred.Provider, error) {
	p := fred.New(
		fred.WithBaseURL(c.FRED.BaseURL),
		fred.WithClient(infra.NewClient(config.Seconds(c.FRED.TimeoutSec), "")),
		fred.WithRequestInterval(config.Millis(c.FRED.RequestIntervalMs)),
	)
	if err := p.Init(map[string]string{"api_key": c.FRED.APIKey}); err != nil {
		return nil, fmt.Errorf("%w (set FRED_API_KEY or fred.api_key)", err)
	}
	return p, nil
}

// newYahoo builds the Yahoo Finance client from config.
func newYahoo(c *config.Config) *yfinance.Provider {
	return yfinance.New(
		yfinance.WithBaseURL(c.Yahoo.BaseURL),
		yfinance.WithCookieURL(c.Yahoo.CookieURL),
		yfinance.WithClient(infra.NewClient(config.Seconds(c.Yahoo.TimeoutSec), c.Yahoo.UserAgent)),
		yfinance.WithRequestInterval(config.Millis(c.Yahoo.RequestIntervalMs)),
		yfinance.WithAutoAdjust(c.Yahoo.AutoAdjust),
	)
}
