package provider_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"fxconv-service/internal/domain"
	"fxconv-service/internal/infrastructure/httpx"
	"fxconv-service/internal/infrastructure/provider"

	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r), nil }

func client(resBody string, code int) *httpx.Client {
	return &httpx.Client{HTTP: &http.Client{
		Timeout: 2 * time.Second,
		Transport: roundTripFunc(func(r *http.Request) *http.Response {
			return &http.Response{
				StatusCode: code,
				Body:       io.NopCloser(strings.NewReader(resBody)),
				Header:     make(http.Header),
			}
		}),
	}}
}

const cbrOK = `{
  "Date": "2025-03-01T11:30:00+03:00",
  "Valute": {
    "USD": {"ID": "R01235", "CharCode": "USD", "Nominal": 1, "Value": 88.6566},
    "KGS": {"ID": "R01370", "CharCode": "KGS", "Nominal": 100, "Value": 101.37}
  }
}`

func TestCBR_OK(t *testing.T) {
	s := &provider.CBRSource{URL: provider.DefaultCBRURL, Client: client(cbrOK, 200)}
	v, err := s.FetchRate(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 88.6566, v, 1e-9)
	require.Equal(t, "cbr", s.Name())
}

func TestCBR_Failures(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
		want error
	}{
		{"status", `{}`, 503, domain.ErrHTTPStatus},
		{"not found", `{}`, 404, domain.ErrHTTPStatus},
		{"malformed", `{"Valute":`, 200, domain.ErrParse},
		{"missing usd", `{"Valute":{"EUR":{"Value":95.1}}}`, 200, domain.ErrParse},
		{"missing value", `{"Valute":{"USD":{"CharCode":"USD"}}}`, 200, domain.ErrParse},
		{"non numeric", `{"Valute":{"USD":{"Value":"abc"}}}`, 200, domain.ErrParse},
		{"zero", `{"Valute":{"USD":{"Value":0}}}`, 200, domain.ErrZeroRate},
		{"negative", `{"Valute":{"USD":{"Value":-1.5}}}`, 200, domain.ErrZeroRate},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := &provider.CBRSource{URL: provider.DefaultCBRURL, Client: client(c.body, c.code)}
			_, err := s.FetchRate(context.Background())
			require.ErrorIs(t, err, c.want)
			require.Contains(t, err.Error(), "cbr:")
		})
	}
}

func TestCBR_MissingURL(t *testing.T) {
	_, err := (&provider.CBRSource{}).FetchRate(context.Background())
	require.ErrorIs(t, err, domain.ErrNetwork)
}

const nbkrOK = `<?xml version="1.0" encoding="windows-1251"?>
<CurrencyRates Name="Daily Exchange Rates" Date="01.03.2025">
  <Currency ISOCode="EUR"><Nominal>1</Nominal><Value>91,2003</Value></Currency>
  <Currency ISOCode="USD"><Nominal>1</Nominal><Value>87,4500</Value></Currency>
  <Currency ISOCode="KZT"><Nominal>1</Nominal><Value>0,1755</Value></Currency>
</CurrencyRates>`

func TestNBKR_OK_CommaDecimal(t *testing.T) {
	s := &provider.NBKRSource{URL: provider.DefaultNBKRURL, Client: client(nbkrOK, 200)}
	v, err := s.FetchRate(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 87.45, v, 1e-9)
	require.Equal(t, "nbkr", s.Name())
}

func TestParseNBKRRate(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want float64
		err  error
	}{
		{"dot decimal", `<CurrencyRates><Currency ISOCode="USD"><Value>87.1</Value></Currency></CurrencyRates>`, 87.1, nil},
		{"nested", `<Root><Group><Currency ISOCode="USD"><Nominal>1</Nominal><Value> 86,9 </Value></Currency></Group></Root>`, 86.9, nil},
		{"nominal", `<CurrencyRates><Currency ISOCode="USD"><Nominal>10</Nominal><Value>874,5</Value></Currency></CurrencyRates>`, 87.45, nil},
		{"no usd", `<CurrencyRates><Currency ISOCode="EUR"><Value>91</Value></Currency></CurrencyRates>`, 0, domain.ErrParse},
		{"bad value", `<CurrencyRates><Currency ISOCode="USD"><Value>n/a</Value></Currency></CurrencyRates>`, 0, domain.ErrParse},
		{"empty value", `<CurrencyRates><Currency ISOCode="USD"><Value></Value></Currency></CurrencyRates>`, 0, domain.ErrParse},
		{"zero nominal", `<CurrencyRates><Currency ISOCode="USD"><Nominal>0</Nominal><Value>87</Value></Currency></CurrencyRates>`, 0, domain.ErrParse},
		{"malformed", `<CurrencyRates><Currency ISOCode="USD"><Value>87`, 0, domain.ErrParse},
		{"html", `<html><body>blocked</body></html>`, 0, domain.ErrParse},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, err := provider.ParseNBKRRate([]byte(c.doc), "USD")
			if c.err != nil {
				require.ErrorIs(t, err, c.err)
				return
			}
			require.NoError(t, err)
			require.InDelta(t, c.want, v, 1e-9)
		})
	}
}

func TestNBKR_ZeroValue(t *testing.T) {
	doc := `<CurrencyRates><Currency ISOCode="USD"><Value>0,0000</Value></Currency></CurrencyRates>`
	s := &provider.NBKRSource{SourceName: "same-origin", URL: "http://localhost/api/nbkr", Client: client(doc, 200)}
	_, err := s.FetchRate(context.Background())
	require.ErrorIs(t, err, domain.ErrZeroRate)
	require.Contains(t, err.Error(), "same-origin:")
}

func TestWrapURL(t *testing.T) {
	up := "https://www.nbkr.kg/XML/daily.xml"
	require.Equal(t, "https://api.allorigins.win/raw?url=https%3A%2F%2Fwww.nbkr.kg%2FXML%2Fdaily.xml", provider.WrapURL(provider.DefaultCORSProxies[0], up))
	require.Equal(t, "https://api.codetabs.com/v1/proxy?quest=https%3A%2F%2Fwww.nbkr.kg%2FXML%2Fdaily.xml", provider.WrapURL(provider.DefaultCORSProxies[2], up))
	require.Equal(t, "https://relay.example/?https%3A%2F%2Fwww.nbkr.kg%2FXML%2Fdaily.xml", provider.WrapURL("https://relay.example/?", up))
}

func TestCORSProxySource_RequestsWrappedURL(t *testing.T) {
	var got string
	c := &httpx.Client{HTTP: &http.Client{Transport: roundTripFunc(func(r *http.Request) *http.Response {
		got = r.URL.String()
		return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(nbkrOK)), Header: make(http.Header)}
	})}}
	s := provider.NewCORSProxySource(provider.DefaultCORSProxies[1], provider.DefaultNBKRURL, c)
	require.Equal(t, "corsproxy.io", s.Name())

	v, err := s.FetchRate(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 87.45, v, 1e-9)
	require.Equal(t, "https://corsproxy.io/?url=https%3A%2F%2Fwww.nbkr.kg%2FXML%2Fdaily.xml", got)
}

const openEROK = `{"result":"success","base_code":"USD","rates":{"USD":1,"KGS":87.31,"RUB":88.9}}`

func TestOpenER_OK(t *testing.T) {
	s := &provider.OpenERSource{URL: provider.DefaultOpenERURL, Client: client(openEROK, 200)}
	v, err := s.FetchRate(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 87.31, v, 1e-9)
}

func TestOpenER_Failures(t *testing.T) {
	cases := map[string]struct {
		body string
		code int
		want error
	}{
		"error result": {`{"result":"error","error-type":"quota-reached"}`, 200, domain.ErrParse},
		"missing kgs":  {`{"result":"success","base_code":"USD","rates":{"RUB":88.9}}`, 200, domain.ErrParse},
		"wrong base":   {`{"result":"success","base_code":"EUR","rates":{"KGS":95}}`, 200, domain.ErrParse},
		"zero":         {`{"result":"success","rates":{"KGS":0}}`, 200, domain.ErrZeroRate},
		"status":       {`{}`, 429, domain.ErrHTTPStatus},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			s := &provider.OpenERSource{URL: provider.DefaultOpenERURL, Client: client(c.body, c.code)}
			_, err := s.FetchRate(context.Background())
			require.ErrorIs(t, err, c.want)
		})
	}
}

type countingSource struct {
	calls atomic.Int32
	err   error
}

func (c *countingSource) Name() string { return "counting" }

func (c *countingSource) FetchRate(context.Context) (float64, error) {
	c.calls.Add(1)
	if c.err != nil {
		return 0, c.err
	}
	return 87, nil
}

func TestGuard_OpensAfterConsecutiveFailures(t *testing.T) {
	src := &countingSource{err: errors.New("counting: " + domain.ErrNetwork.Error())}
	g := provider.Guard(src, 2, time.Minute)
	require.Equal(t, "counting", g.Name())

	for i := 0; i < 2; i++ {
		_, err := g.FetchRate(context.Background())
		require.Error(t, err)
	}
	_, err := g.FetchRate(context.Background())
	require.ErrorIs(t, err, domain.ErrNetwork)
	require.Contains(t, err.Error(), "circuit open")
	require.EqualValues(t, 2, src.calls.Load())
}

func TestGuard_PassesThroughSuccess(t *testing.T) {
	src := &countingSource{}
	g := provider.Guard(src, 1, time.Minute)
	v, err := g.FetchRate(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 87.0, v, 1e-9)
}

func names(t *testing.T, cfg provider.ChainConfig) []string {
	t.Helper()
	ch := provider.KGSChain(cfg)
	require.Equal(t, domain.KGS, ch.Currency)
	out := make([]string, 0, len(ch.Sources))
	for _, s := range ch.Sources {
		out = append(out, s.Name())
	}
	return out
}

func TestKGSChain_ModeSelectsFirstStep(t *testing.T) {
	cfg := provider.ChainConfig{
		NBKRURL:       provider.DefaultNBKRURL,
		SameOriginURL: "http://localhost:8080/api/nbkr",
		CORSProxies:   provider.DefaultCORSProxies,
		OpenERURL:     provider.DefaultOpenERURL,
	}

	cfg.Mode = provider.ModeDevelopment
	require.Equal(t, []string{"same-origin", "corsproxy.io", "api.codetabs.com", "open-er-api"}, names(t, cfg))

	cfg.Mode = provider.ModeProduction
	cfg.BreakerErrors = 3
	cfg.BreakerTimeout = time.Minute
	require.Equal(t, []string{"api.allorigins.win", "corsproxy.io", "api.codetabs.com", "open-er-api"}, names(t, cfg))
}

func TestRUBChain(t *testing.T) {
	ch := provider.RUBChain(provider.ChainConfig{CBRURL: provider.DefaultCBRURL})
	require.Equal(t, domain.RUB, ch.Currency)
	require.Len(t, ch.Sources, 1)
	require.Equal(t, "cbr", ch.Sources[0].Name())
}

func TestParseMode(t *testing.T) {
	m, err := provider.ParseMode("")
	require.NoError(t, err)
	require.Equal(t, provider.ModeDevelopment, m)
	m, err = provider.ParseMode("Production")
	require.NoError(t, err)
	require.Equal(t, provider.ModeProduction, m)
	_, err = provider.ParseMode("staging")
	require.Error(t, err)
}
