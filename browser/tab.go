package browser

import (
	"context"

	"github.com/pitabwire/util"
	pkgbrowser "github.com/pkg/browser"
)

// Opener opens an address in a new browsing context.
type Opener interface {
	Open(ctx context.Context, uri string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, uri string) error

func (f OpenerFunc) Open(ctx context.Context, uri string) error {
	return f(ctx, uri)
}

// SystemOpener launches the host's default browser.
type SystemOpener struct{}

func (SystemOpener) Open(_ context.Context, uri string) error {
	return pkgbrowser.OpenURL(uri)
}

// OpenNewTab asks the host browser to open uri in a new tab.
func OpenNewTab(ctx context.Context, uri string) error {
	return OpenNewTabWith(ctx, SystemOpener{}, uri)
}

// OpenNewTabWith is OpenNewTab with a custom opener. uri is passed through as given.
func OpenNewTabWith(ctx context.Context, opener Opener, uri string) error {
	util.Log(ctx).WithField("uri", uri).Debug("opening new browser tab")
	return opener.Open(ctx, uri)
}
