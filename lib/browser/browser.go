// Package browser describes the small set of browser capabilities the
// console automation needs, so the automation can run against a real
// browser (rod) or an in-memory document (htmldoc).
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ourvend-sync/lib/retry"
)

var ErrNotFound = errors.New("element not found")

// Document is a page or a frame inside of a page.
type Document interface {
	URL(ctx context.Context) (string, error)
	// Query returns every element matching the css selector at the time of
	// the call, it never waits for elements to appear.
	Query(ctx context.Context, selector string) ([]Element, error)
	HTML(ctx context.Context) (string, error)
	// Frames lists the documents of the iframes directly inside of this one.
	Frames(ctx context.Context) ([]Document, error)
}

// Element is a snapshot of a DOM element taken when it was queried,
// Tag, Text, Attr, Value and Visible do not go back to the browser.
type Element interface {
	Tag() string
	Text() string
	Attr(name string) (string, bool)
	Value() string
	Visible() bool

	Click(ctx context.Context) error
	// Fill sets the value of an input and dispatches input and change
	// events so the page's own listeners run.
	Fill(ctx context.Context, value string) error
	// SetFiles selects local files on a file input.
	SetFiles(ctx context.Context, paths ...string) error
	Query(ctx context.Context, selector string) ([]Element, error)
	Parent(ctx context.Context) (Element, error)
}

type DialogType string

const (
	DialogAlert        DialogType = "alert"
	DialogConfirm      DialogType = "confirm"
	DialogPrompt       DialogType = "prompt"
	DialogBeforeUnload DialogType = "beforeunload"
)

// Dialog is a native dialog (window.alert, window.confirm, ...) opened by
// the page.
type Dialog struct {
	Type    DialogType
	Message string
}

// DialogCheck validates an intercepted dialog before it is accepted,
// a non-nil error means the dialog must be dismissed.
type DialogCheck func(Dialog) error

// DialogInterceptor catches the next native dialog of a page. It must be
// created before the action that opens the dialog.
type DialogInterceptor interface {
	Wait(ctx context.Context) (Dialog, error)
	Accept(ctx context.Context) error
	Dismiss(ctx context.Context) error
	// Close unregisters the interceptor, it is safe to call more than once.
	Close()
}

type Page interface {
	Document
	Navigate(ctx context.Context, url string) error
	InterceptDialog(ctx context.Context) DialogInterceptor
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// Matcher filters queried elements.
type Matcher func(Element) bool

func Any(Element) bool { return true }

func IsVisible(el Element) bool { return el.Visible() }

// TextContains matches elements whose text contains any of the given
// substrings, ignoring case.
func TextContains(substrings ...string) Matcher {
	return func(el Element) bool {
		text := strings.ToLower(el.Text())
		for _, s := range substrings {
			if strings.Contains(text, strings.ToLower(s)) {
				return true
			}
		}
		return false
	}
}

func All(matchers ...Matcher) Matcher {
	return func(el Element) bool {
		for _, m := range matchers {
			if !m(el) {
				return false
			}
		}
		return true
	}
}

// First returns the first element matching both the selector and the
// matcher, or ErrNotFound.
func First(ctx context.Context, doc interface {
	Query(ctx context.Context, selector string) ([]Element, error)
}, selector string, match Matcher) (Element, error) {
	elements, err := doc.Query(ctx, selector)
	if err != nil {
		return nil, err
	}
	for _, el := range elements {
		if match == nil || match(el) {
			return el, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
}

// WaitFor polls First under the given policy until an element shows up.
func WaitFor(ctx context.Context, policy retry.Policy, doc Document, selector string, match Matcher) (Element, error) {
	var found Element
	err := retry.Until(ctx, policy, func(int) (bool, error) {
		el, err := First(ctx, doc, selector, match)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		found = el
		return true, nil
	})
	if errors.Is(err, retry.ErrExhausted) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return found, err
}

// FindFrame polls the frames of a document until one of them has a url
// containing `urlPart`.
func FindFrame(ctx context.Context, policy retry.Policy, doc Document, urlPart string) (Document, error) {
	var found Document
	err := retry.Until(ctx, policy, func(int) (bool, error) {
		frames, err := doc.Frames(ctx)
		if err != nil {
			return false, err
		}
		for _, frame := range frames {
			url, err := frame.URL(ctx)
			if err != nil {
				continue
			}
			if strings.Contains(url, urlPart) {
				found = frame
				return true, nil
			}
		}
		return false, nil
	})
	if errors.Is(err, retry.ErrExhausted) {
		return nil, fmt.Errorf("%w: frame with url containing %q", ErrNotFound, urlPart)
	}
	return found, err
}
