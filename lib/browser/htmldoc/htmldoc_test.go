package htmldoc

import (
	"context"
	"testing"
	"time"

	"ourvend-sync/lib/browser"
	"ourvend-sync/lib/retry"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<div id="menu" style="display: none"><a id="leaf">Leaf</a></div>
<button id="open" onclick="Open()">Open</button>
<input id="price" value="2">
<span hidden><input id="secret" value="x"></span>
</body></html>`

func TestQueryAndVisibility(t *testing.T) {
	ctx := context.Background()
	p := New("https://console.test/", page)

	leaf, err := browser.First(ctx, p, "#leaf", nil)
	require.NoError(t, err)
	require.False(t, leaf.Visible())
	require.Equal(t, "Leaf", leaf.Text())

	secret, err := browser.First(ctx, p, "#secret", nil)
	require.NoError(t, err)
	require.False(t, secret.Visible())

	price, err := browser.First(ctx, p, "#price", browser.IsVisible)
	require.NoError(t, err)
	require.Equal(t, "2", price.Value())

	_, err = browser.First(ctx, p, "#missing", nil)
	require.ErrorIs(t, err, browser.ErrNotFound)
}

func TestClickAndFill(t *testing.T) {
	ctx := context.Background()
	p := New("https://console.test/", page)
	p.OnClick("#open", func(ctx context.Context, el *Element) error {
		el.Doc().Mutate(func(doc *goquery.Document) {
			doc.Find("#menu").RemoveAttr("style")
		})
		return nil
	})

	open, err := browser.First(ctx, p, "#open", nil)
	require.NoError(t, err)
	require.NoError(t, open.Click(ctx))

	leaf, err := browser.WaitFor(ctx, retry.Policy{Attempts: 2, Interval: time.Millisecond}, p, "#leaf", browser.IsVisible)
	require.NoError(t, err)
	require.Equal(t, "a", leaf.Tag())

	price, err := browser.First(ctx, p, "#price", nil)
	require.NoError(t, err)
	require.NoError(t, price.Fill(ctx, "2.5"))
	require.Equal(t, "2.5", price.Value())

	expected := []Event{
		{Kind: "click", Target: "#open"},
		{Kind: "input", Target: "#price", Value: "2.5"},
		{Kind: "change", Target: "#price", Value: "2.5"},
	}
	if diff := cmp.Diff(expected, p.Events()); diff != "" {
		t.Fatal(diff)
	}
}

func TestSetFiles(t *testing.T) {
	ctx := context.Background()
	p := New("https://console.test/", `<input type="file" name="image"><p id="note">x</p>`)

	input, err := browser.First(ctx, p, `input[type="file"]`, nil)
	require.NoError(t, err)
	require.NoError(t, input.SetFiles(ctx, "/tmp/a.png", "/tmp/b.png"))
	require.Equal(t, "/tmp/a.png,/tmp/b.png", input.Value())

	expected := []Event{
		{Kind: "files", Target: `input[name="image"]`, Value: "/tmp/a.png,/tmp/b.png"},
		{Kind: "change", Target: `input[name="image"]`, Value: "/tmp/a.png,/tmp/b.png"},
	}
	if diff := cmp.Diff(expected, p.Events()); diff != "" {
		t.Fatal(diff)
	}

	note, err := browser.First(ctx, p, "#note", nil)
	require.NoError(t, err)
	require.Error(t, note.SetFiles(ctx, "/tmp/a.png"))
}

func TestFindFrame(t *testing.T) {
	ctx := context.Background()
	p := New("https://console.test/", page)
	p.AddFrame("https://console.test/Home/Welcome", "<p>welcome</p>")
	p.AddFrame("https://console.test/Selection/Index?x=1", "<p>slots</p>")

	frame, err := browser.FindFrame(ctx, retry.Policy{Attempts: 1}, p, "Selection/Index")
	require.NoError(t, err)
	html, err := frame.HTML(ctx)
	require.NoError(t, err)
	require.Contains(t, html, "slots")

	_, err = browser.FindFrame(ctx, retry.Policy{Attempts: 2, Interval: time.Millisecond}, p, "Nowhere")
	require.ErrorIs(t, err, browser.ErrNotFound)
}

func TestDialog(t *testing.T) {
	ctx := context.Background()
	p := New("https://console.test/", page)

	accepted, err := p.OpenDialog(ctx, browser.Dialog{Type: browser.DialogAlert, Message: "nobody listening"})
	require.NoError(t, err)
	require.False(t, accepted)

	interceptor := p.InterceptDialog(ctx)
	defer interceptor.Close()

	result := make(chan bool, 1)
	go func() {
		accepted, _ := p.OpenDialog(ctx, browser.Dialog{Type: browser.DialogConfirm, Message: "Are you sure?"})
		result <- accepted
	}()

	dialog, err := interceptor.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, browser.DialogConfirm, dialog.Type)
	require.NoError(t, interceptor.Accept(ctx))
	require.ErrorIs(t, interceptor.Dismiss(ctx), ErrDialogHandled)
	require.True(t, <-result)

	require.Len(t, p.Dialogs(), 2)
}

func TestDialogWaitTimeout(t *testing.T) {
	p := New("https://console.test/", page)
	interceptor := p.InterceptDialog(context.Background())
	defer interceptor.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := interceptor.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNavigate(t *testing.T) {
	ctx := context.Background()
	p := New("about:blank", "")
	p.Route("https://console.test/Account/Login", `<input id="userName">`)

	require.NoError(t, p.Navigate(ctx, "https://console.test/Account/Login"))
	url, err := p.URL(ctx)
	require.NoError(t, err)
	require.Equal(t, "https://console.test/Account/Login", url)

	_, err = browser.First(ctx, p, "#userName", nil)
	require.NoError(t, err)
	require.Error(t, p.Navigate(ctx, "https://console.test/unknown"))
}
