package browser

import (
	"context"
	"fmt"

	"github.com/david/termin-watch/internal/booking"
	"github.com/david/termin-watch/internal/config"
	"github.com/david/termin-watch/internal/logger"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Opener launches a local Chrome per session, or attaches to
// cfg.RemoteURL when set.
type Opener struct {
	cfg config.BrowserConfig
}

func NewOpener(cfg config.BrowserConfig) *Opener {
	return &Opener{cfg: cfg}
}

func (o *Opener) Open(ctx context.Context) (booking.Session, error) {
	var (
		wsURL string
		lnch  *launcher.Launcher
	)
	if o.cfg.RemoteURL != "" {
		wsURL = o.cfg.RemoteURL
		logger.Log.WithField("url", wsURL).Debug("Connecting to remote browser")
	} else {
		lnch = launcher.New().
			Context(ctx).
			Headless(o.cfg.Headless).
			Set("disable-blink-features", "AutomationControlled")
		u, err := lnch.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		wsURL = u
	}

	b := rod.New().ControlURL(wsURL).SlowMotion(o.cfg.SlowMotion)
	if err := b.Connect(); err != nil {
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		o.abort(b, lnch)
		return nil, fmt.Errorf("open tab: %w", err)
	}
	if o.cfg.UserAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      o.cfg.UserAgent,
			AcceptLanguage: "de-DE,de;q=0.9",
		})
		if err != nil {
			o.abort(b, lnch)
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	return &Session{browser: b, page: page, lnch: lnch, timeout: o.cfg.NavTimeout}, nil
}

func (o *Opener) abort(b *rod.Browser, lnch *launcher.Launcher) {
	if lnch == nil {
		return
	}
	_ = b.Close()
	lnch.Cleanup()
}
