// Package ourvend drives the slot management pages of the Ourvend vending
// console through a browser.Page.
package ourvend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ourvend-sync/internal/components/telemetry"
	"ourvend-sync/lib/browser"
	"ourvend-sync/lib/retry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Session is a logged in (or about to be) browser page on the console.
type Session struct {
	page browser.Page
	opts Options
	tel  telemetry.API
}

func NewSession(page browser.Page, opts Options, tel telemetry.API) *Session {
	return &Session{
		page: page,
		opts: opts,
		tel:  telemetry.NewScopedAPI("ourvend", tel),
	}
}

func (s *Session) Page() browser.Page {
	return s.page
}

func (s *Session) Options() Options {
	return s.opts
}

// signInControl matches the clickable that submits the login form, inputs
// carry their label in value instead of text.
func (s *Session) signInControl(el browser.Element) bool {
	text := strings.ToLower(el.Text() + " " + el.Value())
	for _, t := range s.opts.Selectors.SignInText {
		if strings.Contains(text, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func (s *Session) fill(ctx context.Context, selector, value string) error {
	el, err := browser.First(ctx, s.page, selector, nil)
	if err != nil {
		return err
	}
	return el.Fill(ctx, value)
}

// Login signs in with the configured credentials and waits until the
// login form goes away.
func (s *Session) Login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	if s.opts.Username == "" || s.opts.Password == "" {
		span.SetStatus(codes.Error, "missing credentials")
		return ErrMissingCredentials
	}

	sel := s.opts.Selectors
	loginURL := strings.TrimSuffix(s.opts.BaseURL, "/") + sel.LoginPath
	span.SetAttributes(attribute.String("url", loginURL))

	err := s.page.Navigate(ctx, loginURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open login page")
		s.tel.ReportBroken(report_session_login, fmt.Errorf("navigate: %w", err))
		return err
	}

	err = s.fill(ctx, sel.Username, s.opts.Username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fill username")
		s.tel.ReportBroken(report_session_login, fmt.Errorf("username: %w", err))
		return err
	}
	err = s.fill(ctx, sel.Password, s.opts.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fill password")
		s.tel.ReportBroken(report_session_login, fmt.Errorf("password: %w", err))
		return err
	}

	signIn, err := browser.First(ctx, s.page, sel.SignInControls, s.signInControl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to find sign in control")
		s.tel.ReportBroken(report_session_login, fmt.Errorf("sign in control: %w", err))
		return err
	}
	err = signIn.Click(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to click sign in")
		return err
	}

	err = retry.Until(ctx, s.opts.Policies.Login.Policy(), func(int) (bool, error) {
		fields, err := s.page.Query(ctx, sel.Password)
		if err != nil {
			return false, err
		}
		for _, f := range fields {
			if f.Visible() {
				return false, nil
			}
		}
		return true, nil
	})
	if errors.Is(err, retry.ErrExhausted) {
		span.SetStatus(codes.Error, "login form still present")
		s.tel.ReportWarning(report_session_login, ErrLoginFailed)
		return ErrLoginFailed
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to wait for login")
		return err
	}

	s.tel.ReportDebug("logged in", "url", loginURL)
	return nil
}

// NavigateToSlotScope opens the slot management menu and returns the
// frame that hosts it.
func (s *Session) NavigateToSlotScope(ctx context.Context) (*SlotPage, error) {
	ctx, span := tracer.Start(ctx, "NavigateToSlotScope")
	defer span.End()

	sel := s.opts.Selectors
	frame, err := s.openMenu(ctx, span, sel.SidebarLabel, sel.MenuLeaf, sel.SlotFrameURL)
	if err != nil {
		return nil, err
	}
	return &SlotPage{session: s, frame: frame}, nil
}

// NavigateToCommodities opens the commodity info menu and returns the
// frame that hosts it.
func (s *Session) NavigateToCommodities(ctx context.Context) (*CommodityPage, error) {
	ctx, span := tracer.Start(ctx, "NavigateToCommodities")
	defer span.End()

	sel := s.opts.Selectors
	frame, err := s.openMenu(ctx, span, sel.CommodityLabel, sel.CommodityMenuLeaf, sel.CommodityFrameURL)
	if err != nil {
		return nil, err
	}
	return &CommodityPage{session: s, frame: frame}, nil
}

// openMenu expands the sidebar section labelled label, clicks the menu
// leaf and waits for the frame the leaf loads.
func (s *Session) openMenu(ctx context.Context, span trace.Span, label, leafSelector, frameURL string) (browser.Document, error) {
	sel := s.opts.Selectors
	policy := s.opts.Policies.Navigation.Policy()

	section, err := browser.WaitFor(ctx, policy, s.page, sel.SidebarSection, browser.TextContains(label))
	if err != nil {
		return nil, s.navigationFailed(span, "sidebar section", err)
	}
	err = section.Click(ctx)
	if err != nil {
		return nil, s.navigationFailed(span, "sidebar section", err)
	}
	// the label is a span inside of the actual toggle
	parent, err := section.Parent(ctx)
	if err == nil {
		err = parent.Click(ctx)
		if err != nil {
			s.tel.ReportDebug("sidebar parent click failed", "err", err)
		}
	}

	leaf, err := browser.WaitFor(ctx, policy, s.page, leafSelector, nil)
	if err != nil {
		return nil, s.navigationFailed(span, "menu leaf", err)
	}
	err = leaf.Click(ctx)
	if err != nil {
		return nil, s.navigationFailed(span, "menu leaf", err)
	}

	frame, err := browser.FindFrame(ctx, policy, s.page, frameURL)
	if err != nil {
		return nil, s.navigationFailed(span, "frame "+frameURL, err)
	}
	return frame, nil
}

func (s *Session) navigationFailed(span trace.Span, target string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "failed to find "+target)
	s.tel.ReportBroken(report_session_navigate, target, err)
	if errors.Is(err, browser.ErrNotFound) {
		return fmt.Errorf("%w: %s: %v", ErrNavigationTarget, target, err)
	}
	return err
}
