package provider

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"fxconv-service/internal/application"
	"fxconv-service/internal/domain"
	"fxconv-service/internal/infrastructure/httpx"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html/charset"
)

// NBKRSource reads KGS per USD from the National Bank of the Kyrgyz Republic
// daily XML, either directly, through the same-origin proxy or a CORS proxy.
type NBKRSource struct {
	SourceName string
	URL        string
	Client     *httpx.Client
}

var _ application.Source = (*NBKRSource)(nil)

func (s *NBKRSource) Name() string {
	if s.SourceName == "" {
		return "nbkr"
	}
	return s.SourceName
}

func (s *NBKRSource) FetchRate(ctx context.Context) (float64, error) {
	name := s.Name()
	if s.URL == "" {
		return 0, fmt.Errorf("%s: %w: missing url", name, domain.ErrNetwork)
	}
	body, err := clientOr(s.Client).Get(ctx, s.URL)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	v, err := ParseNBKRRate(body, "USD")
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return positive(name, v)
}

type nbkrCurrency struct {
	Nominal string `xml:"Nominal"`
	Value   string `xml:"Value"`
}

// ParseNBKRRate finds the Currency element with the given ISOCode anywhere in
// the document and returns its Value divided by its Nominal.
func ParseNBKRRate(doc []byte, iso string) (float64, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w: no Currency with ISOCode %s", domain.ErrParse, iso)
		}
		if err != nil {
			return 0, fmt.Errorf("%w: decode xml: %v", domain.ErrParse, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Currency" || attr(se, "ISOCode") != iso {
			continue
		}
		var c nbkrCurrency
		if err := dec.DecodeElement(&c, &se); err != nil {
			return 0, fmt.Errorf("%w: decode Currency: %v", domain.ErrParse, err)
		}
		value, err := parseLocalDecimal(c.Value)
		if err != nil {
			return 0, fmt.Errorf("%w: Value %q", domain.ErrParse, c.Value)
		}
		if strings.TrimSpace(c.Nominal) != "" {
			nominal, err := parseLocalDecimal(c.Nominal)
			if err != nil || !nominal.IsPositive() {
				return 0, fmt.Errorf("%w: Nominal %q", domain.ErrParse, c.Nominal)
			}
			value = value.Div(nominal)
		}
		f, _ := value.Float64()
		return f, nil
	}
}

// parseLocalDecimal accepts both "87,4500" and "87.4500".
func parseLocalDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
