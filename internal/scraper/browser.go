package scraper

import (
	"context"
	"fmt"
	"time"
	"upperlimit/internal/utils"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// BrowserFetcher loads pages through a headless Chrome session. It is used
// for market pages when the portal turns away plain HTTP clients.
type BrowserFetcher struct {
	logger      *utils.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
}

func NewBrowserFetcher(logger *utils.Logger, config *utils.Config) (*BrowserFetcher, error) {
	logger.Debug("Initializing Chrome with Korean locale")
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("lang", "ko"),
		chromedp.Flag("disable-gpu", true),
		chromedp.NoSandbox,
		chromedp.Flag("headless", config.Scraper.Browser.Headless),
		chromedp.Flag("enable-logging", config.Scraper.Browser.Debug),
		chromedp.UserAgent(config.Scraper.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Debug))

	b := &BrowserFetcher{
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		timeout:     time.Duration(config.Scraper.Timeout) * time.Second,
	}

	// The first Run starts the browser; it must not carry a timeout.
	if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	if err := chromedp.Run(ctx,
		network.Enable(),
		network.SetCacheDisabled(true),
		emulation.SetUserAgentOverride(config.Scraper.UserAgent).WithAcceptLanguage("ko-KR"),
	); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to configure browser: %w", err)
	}

	return b, nil
}

func (b *BrowserFetcher) Fetch(ctx context.Context, src utils.Source) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	runCtx, cancel := linkContext(b.ctx, ctx, b.timeout)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(src.URL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", src.URL, err)
	}
	b.logger.Debug("Loaded %s through browser (%d bytes)", src.Name, len(html))
	return html, nil
}

// linkContext derives a timed context from the browser context that is also
// cancelled when caller is done.
func linkContext(browser, caller context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(browser, timeout)
	stop := context.AfterFunc(caller, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (b *BrowserFetcher) Close() {
	b.logger.Debug("Closing browser")
	ctx, cancel := context.WithTimeout(b.ctx, 10*time.Second)
	defer cancel()
	if err := chromedp.Cancel(ctx); err != nil {
		b.logger.Debug("Error during graceful shutdown: %v", err)
	}
	b.cancel()
	b.allocCancel()
}
