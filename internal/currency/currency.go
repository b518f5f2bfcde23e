// Package currency localizes USD amounts for display. Every failure falls
// back to USD so a price can always be rendered.
package currency

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/fairdatause/qualify-api/internal/logger"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type Currency struct {
	Code   string  `json:"code"`
	Symbol string  `json:"symbol"`
	Rate   float64 `json:"rate"`
}

// USD is the default and the base every rate is quoted against.
var USD = Currency{Code: "USD", Symbol: "$", Rate: 1}

var symbols = map[string]string{
	"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥", "CNY": "¥", "INR": "₹",
	"CAD": "CA$", "AUD": "A$", "NZD": "NZ$", "CHF": "CHF ", "SEK": "kr ",
	"NOK": "kr ", "DKK": "kr ", "PLN": "zł ", "BRL": "R$", "MXN": "MX$",
	"KRW": "₩", "SGD": "S$", "HKD": "HK$", "ZAR": "R ", "TRY": "₺",
	"ILS": "₪", "PHP": "₱", "RUB": "₽", "UAH": "₴", "KZT": "₸",
}

// Symbol returns the display symbol for code, or the code and a space.
func Symbol(code string) string {
	if s, ok := symbols[code]; ok {
		return s
	}
	return code + " "
}

// Format renders amountUSD in c with two decimals.
func (c Currency) Format(amountUSD float64) string {
	return fmt.Sprintf("%s%.2f", c.Symbol, amountUSD*c.Rate)
}

// Format renders amountUSD in US dollars.
func Format(amountUSD float64) string {
	return USD.Format(amountUSD)
}

type cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type Config struct {
	GeoIPURL        string
	ExchangeRateURL string
	Timeout         time.Duration
	CacheTTL        time.Duration
}

type Detector struct {
	http   *resty.Client
	geoURL string
	fxURL  string
	cache  cache
	ttl    time.Duration
}

// NewDetector builds a Detector. c may be nil to disable rate caching.
func NewDetector(cfg Config, c cache) *Detector {
	return &Detector{
		http:   resty.New().SetTimeout(cfg.Timeout),
		geoURL: strings.TrimRight(cfg.GeoIPURL, "/"),
		fxURL:  strings.TrimRight(cfg.ExchangeRateURL, "/"),
		cache:  c,
		ttl:    cfg.CacheTTL,
	}
}

// Detect resolves the visitor's currency from ip. It never fails. Private,
// loopback and unparsable addresses get USD without a lookup; geolocating
// them would resolve the server's own egress address.
func (d *Detector) Detect(ctx context.Context, ip string) Currency {
	if !isPublic(ip) {
		return USD
	}
	code, err := d.lookupCurrency(ctx, ip)
	if err != nil {
		logger.LogDebug("currency lookup failed, using USD", zap.String("ip", ip), zap.Error(err))
		return USD
	}
	if code == USD.Code {
		return USD
	}
	rate, err := d.rate(ctx, code)
	if err != nil {
		logger.LogDebug("exchange rate lookup failed, using USD", zap.String("currency", code), zap.Error(err))
		return USD
	}
	return Currency{Code: code, Symbol: Symbol(code), Rate: rate}
}

func (d *Detector) lookupCurrency(ctx context.Context, ip string) (string, error) {
	resp, err := d.http.R().SetContext(ctx).Get(d.geoURL + "/" + ip + "/json/")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("geo-ip returned status %d", resp.StatusCode())
	}
	res := gjson.Parse(resp.String())
	if res.Get("error").Bool() {
		return "", fmt.Errorf("geo-ip: %s", res.Get("reason").String())
	}
	code := strings.ToUpper(res.Get("currency").String())
	if len(code) != 3 {
		return "", errors.New("geo-ip response has no currency")
	}
	return code, nil
}

func (d *Detector) rate(ctx context.Context, code string) (float64, error) {
	key := "fx:" + code
	if d.cache != nil {
		if v, ok, err := d.cache.Get(ctx, key); err == nil && ok {
			if r, err := strconv.ParseFloat(v, 64); err == nil {
				return r, nil
			}
		}
	}

	resp, err := d.http.R().SetContext(ctx).Get(d.fxURL + "/USD")
	if err != nil {
		return 0, err
	}
	if resp.IsError() {
		return 0, fmt.Errorf("exchange rate returned status %d", resp.StatusCode())
	}
	res := gjson.Parse(resp.String())
	if r := res.Get("result").String(); r != "" && r != "success" {
		return 0, fmt.Errorf("exchange rate result %q", r)
	}
	rate := res.Get("rates." + code).Float()
	if rate <= 0 {
		return 0, fmt.Errorf("no rate for %s", code)
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, key, strconv.FormatFloat(rate, 'f', -1, 64), d.ttl); err != nil {
			logger.LogWarn("could not cache exchange rate", zap.String("currency", code), zap.Error(err))
		}
	}
	return rate, nil
}

// isPublic reports whether ip is a routable address worth geolocating.
func isPublic(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return !(parsed.IsPrivate() || parsed.IsLoopback() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast())
}
