package ourvend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ourvend-sync/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestPreflight(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
		form   bool
		err    error
	}{
		{
			name:   "login form",
			status: http.StatusOK,
			body:   `<form><input id="userName"><input id="passWord" type="password"></form>`,
			form:   true,
		},
		{
			name:   "maintenance page",
			status: http.StatusOK,
			body:   `<h1>Down for maintenance</h1>`,
			err:    ErrLoginFormMissing,
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			body:   `bad gateway`,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/Account/Login", r.URL.Path)
				w.WriteHeader(test.status)
				w.Write([]byte(test.body))
			}))
			defer server.Close()

			opts := DefaultOptions()
			opts.BaseURL = server.URL
			tel := &telemetry.RecordingAPI{}

			result, err := Preflight(context.Background(), opts, tel, nil)
			require.Equal(t, test.status, result.Status)
			require.Equal(t, test.form, result.HasLoginForm)
			switch {
			case test.err != nil:
				require.ErrorIs(t, err, test.err)
			case test.status >= 400:
				require.Error(t, err)
				require.Len(t, tel.Find(telemetry.KindBroken, report_preflight), 1)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestActionSelector(t *testing.T) {
	require.Equal(
		t,
		`button[onclick*="Modal_User('1',"], a[onclick*="Modal_User('1',"]`,
		actionSelector("button, a", "Modal_User", 1),
	)
}
