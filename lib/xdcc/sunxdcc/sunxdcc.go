// Package sunxdcc implements the xdcc.Engine contract against the
// sunxdcc.com pack aggregator.
package sunxdcc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"
	"xdcc-search/lib/telemetry"
	"xdcc-search/lib/xdcc"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("engines/sunxdcc")

// DefaultBaseURL is the production search endpoint.
const DefaultBaseURL = "https://sunxdcc.com/deliver.php"

const (
	defaultTimeout     = time.Second * 15
	defaultMaxBodySize = 4 << 20
)

// Options configures an Engine. The zero value targets the production
// endpoint with sane limits; configuration is explicit per engine, not
// ambient process state.
type Options struct {
	// BaseURL overrides the outbound endpoint, mainly for tests.
	BaseURL string
	// Timeout bounds the whole round trip. Defaults to 15s.
	Timeout time.Duration
	// MaxBodySize caps how large a response body will be handed to the
	// parser. Defaults to 4 MiB.
	MaxBodySize int64
}

// Engine queries sunxdcc.com. It holds no per-call state; concurrent
// Search calls are safe.
type Engine struct {
	http    *resty.Client
	maxBody int64
}

var _ xdcc.Engine = (*Engine)(nil)

func New(opts Options) *Engine {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBodySize == 0 {
		opts.MaxBodySize = defaultMaxBodySize
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetTimeout(opts.Timeout)
	// sunxdcc sits behind cloudflare, same treatment as any scraped site
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")

	telemetry.InstrumentResty(client, "engines/sunxdcc/http")

	return &Engine{http: client, maxBody: opts.MaxBodySize}
}

func (e *Engine) Name() string { return "sunxdcc" }

// Search fetches one page of pack listings matching the query. Records
// the upstream returns in a broken shape are skipped, not fatal; the
// skip count lands on the span and in the debug log.
func (e *Engine) Search(ctx context.Context, query string, page int) ([]xdcc.Entry, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, xdcc.ErrEmptyQuery
	}
	if page < 1 {
		return nil, xdcc.ErrInvalidPage
	}
	span.SetAttributes(
		attribute.String("query", query),
		attribute.Int("page", page),
	)

	res, err := e.http.R().
		SetContext(ctx).
		SetQueryParam("sterm", query).
		SetQueryParam("page", strconv.Itoa(page)).
		SetDoNotParseResponse(true).
		Get("")
	if err != nil {
		span.SetStatus(codes.Error, "request failed")
		return nil, classifyTransport(err)
	}
	rawBody := res.RawBody()
	defer rawBody.Close()

	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		span.SetStatus(codes.Error, "unexpected status")
		return nil, &xdcc.TransportError{Kind: xdcc.KindStatus, StatusCode: res.StatusCode()}
	}

	// read at most one byte past the cap so an oversized body is
	// detected without buffering the rest of it
	body, err := io.ReadAll(io.LimitReader(rawBody, e.maxBody+1))
	if err != nil {
		span.SetStatus(codes.Error, "read failed")
		return nil, classifyTransport(err)
	}
	if int64(len(body)) > e.maxBody {
		span.SetStatus(codes.Error, "body too large")
		return nil, &xdcc.TransportError{
			Kind: xdcc.KindBodyTooLarge,
			Err:  fmt.Errorf("body exceeds the %d byte cap", e.maxBody),
		}
	}

	result, err := Parse(ctx, body)
	if err != nil {
		span.SetStatus(codes.Error, "unparseable response")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("entries", len(result.Entries)),
		attribute.Int("skipped", result.Skipped),
	)
	if result.Skipped > 0 {
		slog.DebugContext(
			ctx, "skipped undecodable records",
			"engine", e.Name(),
			"query", query,
			"skipped", result.Skipped,
		)
	}
	return result.Entries, nil
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &xdcc.TransportError{Kind: xdcc.KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &xdcc.TransportError{Kind: xdcc.KindTimeout, Err: err}
	}
	return &xdcc.TransportError{Kind: xdcc.KindConnection, Err: err}
}
