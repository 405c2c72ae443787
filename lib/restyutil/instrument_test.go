package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mutex    sync.Mutex
	messages map[string]string
}

func (o *memoryOutput) Write(id, contents string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.messages[id] = contents
}

func TestFormatHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("User-Agent", "ourvend-sync")
	require.Equal(t, "User-Agent: ourvend-sync", formatHeaders(headers))
	require.Equal(t, "", formatHeaders(http.Header{}))

	headers.Set("Cookie", "ASP.NET_SessionId=abc")
	headers.Add("Accept", "text/html")
	require.Equal(t,
		"Accept: text/html\nCookie: <REDACTED>\nUser-Agent: ourvend-sync",
		formatHeaders(headers),
	)
}

func TestRedactForm(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{in: "userName=op&passWord=hunter2", expected: "passWord=%3CREDACTED%3E&userName=op"},
		{in: "userName=op", expected: "userName=op"},
		{in: "passWord=%zz", expected: "passWord=%zz"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, redactForm(test.in), test.in)
	}
}

func TestInstrumentClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<input id="userName">`))
	}))
	defer server.Close()

	output := &memoryOutput{messages: map[string]string{}}
	client := resty.New()
	InstrumentClient(client, "preflight", nil, output)

	res, err := client.R().Get(server.URL + "/Account/Login")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())

	// dumps are only written with debug logging enabled
	for id, contents := range output.messages {
		require.True(t, strings.HasPrefix(id, "preflight-"))
		require.Contains(t, contents, "userName")
	}
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), nil, 0600))

	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	require.Equal(t, dir, output.Dir())
	output.Write("preflight-a", "first")
	output.Write("preflight-b", "second")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Equal(t, []string{"001-preflight-a.txt", "002-preflight-b.txt"}, names)

	contents, err := os.ReadFile(filepath.Join(dir, "002-preflight-b.txt"))
	require.NoError(t, err)
	require.Equal(t, "second", string(contents))
}
