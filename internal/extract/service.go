package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vhrodrigues/notinha/internal/ai"
	"github.com/vhrodrigues/notinha/internal/cache"
	"github.com/vhrodrigues/notinha/internal/fetch"
)

// DefaultPortalURL resolves a bare access key to the national consumer
// portal. The %s placeholder receives the 44-digit key.
const DefaultPortalURL = "https://www.nfce.fazenda.gov.br/portal/consulta?chNFe=%s"

const cacheKeyPrefix = "parse:"

// Service is the extraction front door. XML and PDF payloads go straight to
// their extractors; key/URL references are resolved through the fetcher with
// a bounded parse-result cache in front.
type Service struct {
	fetcher   fetch.Fetcher
	oracle    ai.Oracle
	pdf       *PDFExtractor
	cache     cache.Cache
	portalURL string
}

func NewService(fetcher fetch.Fetcher, oracle ai.Oracle, c cache.Cache, portalURL string) *Service {
	if portalURL == "" {
		portalURL = DefaultPortalURL
	}

	return &Service{
		fetcher:   fetcher,
		oracle:    oracle,
		pdf:       NewPDFExtractor(oracle),
		cache:     c,
		portalURL: portalURL,
	}
}

// ExtractXML parses an uploaded tax-authority XML document. HTML-wrapped
// variants are detected and routed to the HTML extractor.
func (s *Service) ExtractXML(raw string) (*ParsedInvoice, error) {
	return FromXML(raw, "")
}

// ExtractPDF parses an uploaded PDF document.
func (s *Service) ExtractPDF(ctx context.Context, raw []byte) (*ParsedInvoice, error) {
	return s.pdf.FromPDF(ctx, raw, "")
}

// ExtractReference resolves a QR payload, portal URL or bare 44-digit key
// into a ParsedInvoice. Results are cached by access key for ParseTTL;
// forceRefresh bypasses the cache on both read and write.
func (s *Service) ExtractReference(ctx context.Context, payload string, forceRefresh bool) (*ParsedInvoice, error) {
	payload = strings.TrimSpace(payload)

	key, err := KeyFromPayload(payload)
	if err != nil && !IsKeyNotFound(err) {
		// Malformed payload fails before any network call.
		return nil, err
	}

	if key != "" && !forceRefresh {
		if p, ok := s.cached(ctx, key); ok {
			return p, nil
		}
	}

	pageURL := payload
	if !isURL(payload) {
		pageURL = fmt.Sprintf(s.portalURL, key)
	}

	body, err := s.fetcher.FetchText(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	if key == "" {
		// The URL did not carry the key inline; the page body must.
		key, err = KeyFromBody(body)
		if err != nil {
			return nil, err
		}

		if !forceRefresh {
			if p, ok := s.cached(ctx, key); ok {
				return p, nil
			}
		}
	}

	p, err := s.parseBody(ctx, body, key)
	if err != nil {
		return nil, err
	}

	if !forceRefresh {
		s.store(ctx, key, p)
	}

	return p, nil
}

// parseBody runs the strategy pipeline over a fetched page: structured parse
// first, then the oracle. A malformed-input result means "not applicable,
// try the next strategy"; any other error stops the pipeline.
func (s *Service) parseBody(ctx context.Context, body, key string) (*ParsedInvoice, error) {
	strategies := []struct {
		name string
		run  func() (*ParsedInvoice, error)
	}{
		{"structured", func() (*ParsedInvoice, error) { return FromXML(body, key) }},
		{"oracle", func() (*ParsedInvoice, error) { return oracleInvoice(ctx, s.oracle, body, key) }},
	}

	var lastErr error

	for _, st := range strategies {
		p, err := st.run()
		if err == nil {
			return p, nil
		}

		if !IsMalformed(err) {
			return nil, err
		}

		slog.Debug("extraction strategy not applicable", "strategy", st.name, "error", err)

		lastErr = err
	}

	return nil, lastErr
}

func (s *Service) cached(ctx context.Context, key string) (*ParsedInvoice, bool) {
	raw, ok, err := s.cache.Get(ctx, cacheKeyPrefix+key)
	if err != nil {
		slog.Warn("parse cache read failed", "error", err)

		return nil, false
	}

	if !ok {
		return nil, false
	}

	var p ParsedInvoice
	if err := json.Unmarshal(raw, &p); err != nil {
		slog.Warn("parse cache entry corrupt", "error", err)

		return nil, false
	}

	p.Metadata.CacheHit = true

	return &p, true
}

func (s *Service) store(ctx context.Context, key string, p *ParsedInvoice) {
	raw, err := json.Marshal(p)
	if err != nil {
		slog.Warn("parse cache encode failed", "error", err)

		return
	}

	if err := s.cache.Set(ctx, cacheKeyPrefix+key, raw, cache.ParseTTL); err != nil {
		slog.Warn("parse cache write failed", "error", err)
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
