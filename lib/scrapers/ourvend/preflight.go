package ourvend

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ourvend-sync/internal/components/telemetry"
	"ourvend-sync/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// PreflightResult is what a plain http fetch of the login page found.
type PreflightResult struct {
	URL          string
	Status       int
	HasLoginForm bool
	Elapsed      time.Duration
}

func newHttpClient(baseURL string, output restyutil.InstrumentOutput) (*resty.Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsed.Hostname()))
	client.SetTimeout(30 * time.Second)
	restyutil.InstrumentClient(client, "preflight", tracer, output)
	return client, nil
}

// Preflight checks that the console is reachable and still serves the
// login form the session expects, without starting a browser. `output`
// may be nil.
func Preflight(ctx context.Context, opts Options, tel telemetry.API, output restyutil.InstrumentOutput) (PreflightResult, error) {
	ctx, span := tracer.Start(ctx, "Preflight")
	defer span.End()

	tel = telemetry.NewScopedAPI("ourvend", tel)
	result := PreflightResult{URL: strings.TrimSuffix(opts.BaseURL, "/") + opts.Selectors.LoginPath}
	span.SetAttributes(attribute.String("url", result.URL))

	client, err := newHttpClient(opts.BaseURL, output)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid base url")
		return result, err
	}

	start := time.Now()
	res, err := client.R().
		SetContext(ctx).
		Get(opts.Selectors.LoginPath)
	result.Elapsed = time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		tel.ReportBroken(report_preflight, err)
		return result, err
	}
	result.Status = res.StatusCode()
	if res.IsError() {
		span.SetStatus(codes.Error, "bad status")
		err = fmt.Errorf("fetch %s: status %d", result.URL, res.StatusCode())
		tel.ReportBroken(report_preflight, err)
		return result, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse html")
		return result, err
	}
	result.HasLoginForm = doc.Find(opts.Selectors.Username).Length() > 0 &&
		doc.Find(opts.Selectors.Password).Length() > 0
	if !result.HasLoginForm {
		span.SetStatus(codes.Error, "login form missing")
		tel.ReportWarning(report_preflight, ErrLoginFormMissing)
		return result, ErrLoginFormMissing
	}

	tel.ReportDebug("preflight ok", "url", result.URL, "elapsed", result.Elapsed)
	return result, nil
}
