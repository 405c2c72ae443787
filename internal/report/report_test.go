package report

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"ourvend-sync/internal/catalog"
	"ourvend-sync/internal/machineconfig"
	"ourvend-sync/internal/slotsync"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func sampleRun() slotsync.RunReport {
	return slotsync.RunReport{
		RunID:     "3f1d",
		StartedAt: time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC),
		ElapsedMs: 125_400,
		Machines: []slotsync.MachineReport{
			{
				MachineName: "Office 12F",
				Grouping:    "Ourvend Yuanzhi",
				Successful:  2,
				Failed:      2,
				Results: []slotsync.SlotUpdateResult{
					{Slot: 1, ProductName: "Sprite 330ml", Success: true, Changed: true},
					{Slot: 2, ProductName: "Sprite 330ml", Success: true},
					{
						Slot:            3,
						ProductName:     "Fanta Orange 330ml",
						Error:           "Could not find product: Fanta Orange 330ml",
						ProductNotFound: true,
						Suggestions:     []string{"Fanta Lemon 330ml"},
					},
					{Slot: 12, Cleared: true, Error: "clear of slot 12: success acknowledgment not found"},
				},
			},
			{
				MachineName: "Warehouse",
				Grouping:    "Ourvend Yuanzhi",
				SetupError:  `machine setup failed for "Warehouse": dropdown option not found: "Warehouse"`,
				Failed:      1,
				Results: []slotsync.SlotUpdateResult{
					{Slot: 1, ProductName: "Sprite 330ml", Error: "machine setup failed"},
				},
			},
		},
		ProductsNotFound: []slotsync.ProductNotFound{
			{
				Product:     "Fanta Orange 330ml",
				Slots:       []slotsync.SlotRef{{Machine: "Office 12F", Slot: 3}},
				Suggestions: []string{"Fanta Lemon 330ml"},
			},
		},
	}
}

func TestFormatDuration(t *testing.T) {
	testCases := []struct {
		in       time.Duration
		expected string
	}{
		{in: 0, expected: "0m 0s (0 seconds)"},
		{in: 59*time.Second + 900*time.Millisecond, expected: "0m 59s (59 seconds)"},
		{in: 125 * time.Second, expected: "2m 5s (125 seconds)"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, FormatDuration(test.in))
	}
}

func TestWriteRun(t *testing.T) {
	var out bytes.Buffer
	WriteRun(&out, sampleRun())
	text := out.String()

	for _, expected := range []string{
		"SYNC SUMMARY",
		"Duration: 2m 5s (125 seconds)",
		"Machine: Office 12F",
		"Successfully synced: 2 slots",
		"  Slots: 1, 2",
		"Failed: 2 slots",
		"Could not find product: Fanta Orange 330ml",
		"(clear)",
		"Setup failed: machine setup failed for \"Warehouse\"",
		"PRODUCTS NOT FOUND IN DROPDOWN (1 total):",
		"Office 12F #3",
		"Fanta Lemon 330ml",
	} {
		require.Contains(t, text, expected)
	}
	require.NotContains(t, text, "dry run")
	require.NotContains(t, text, "Aborted")
}

func TestWriteRunDryRun(t *testing.T) {
	run := slotsync.RunReport{
		DryRun:     true,
		FatalError: "establish session: login failed",
		Machines: []slotsync.MachineReport{{
			MachineName: "Lobby",
			Successful:  1,
			Results:     []slotsync.SlotUpdateResult{{Slot: 4, Success: true, Skipped: true}},
		}},
	}

	var out bytes.Buffer
	WriteRun(&out, run)
	text := out.String()
	require.Contains(t, text, "dry run, nothing was saved")
	require.Contains(t, text, "Skipped (dry run): 4")
	require.Contains(t, text, "Aborted: establish session: login failed")
	require.NotContains(t, text, "PRODUCTS NOT FOUND")
}

func TestWriteComparison(t *testing.T) {
	machine := machineconfig.MachineConfiguration{
		MachineID:   "1001",
		MachineName: "Office 12F",
		Serial:      "2503060046",
	}

	var out bytes.Buffer
	WriteComparison(&out, machine, nil)
	require.Contains(t, out.String(), "No differences found")

	out.Reset()
	WriteComparison(&out, machine, []machineconfig.Difference{
		{
			SlotNumber:   1,
			Kind:         machineconfig.Mismatch,
			Config:       &machineconfig.ExportedSlot{SlotNumber: 1, ProductName: "Sprite 330ml", MachinePrice: 2.5},
			CSV:          &machineconfig.ExportedSlot{SlotNumber: 1, ProductName: "Sprite 330ml", MachinePrice: 2},
			PriceDiffers: true,
		},
		{
			SlotNumber: 4,
			Kind:       machineconfig.MissingInCSV,
			Config:     &machineconfig.ExportedSlot{SlotNumber: 4, ProductName: "Green Tea 500ml", MachinePrice: 3},
		},
	})
	text := out.String()
	require.Contains(t, text, "Machine: Office 12F (ID: 1001, Serial: 2503060046)")
	require.Contains(t, text, "€2.5")
	require.Contains(t, text, `"Green Tea 500ml" €3`)
	require.Contains(t, text, "Mismatches: 1")
	require.Contains(t, text, "Missing in export: 1")
	require.Contains(t, text, "Total differences: 2")
}

func TestSubject(t *testing.T) {
	require.Equal(t, "ourvend-sync: 2 slots synced, 3 failed", Subject(sampleRun()))

	run := sampleRun()
	run.DryRun = true
	run.FatalError = "boom"
	require.Equal(t, "ourvend-sync: 2 slots synced, 3 failed (dry run), run aborted", Subject(run))
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.json")
	expected := sampleRun()
	require.NoError(t, WriteJSON(path, expected))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"productsNotFound"`)

	var got slotsync.RunReport
	require.NoError(t, json.Unmarshal(data, &got))
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatal("report changed in JSON", diff)
	}

	var read slotsync.RunReport
	require.NoError(t, ReadJSON(path, &read))
	if diff := cmp.Diff(expected, read); diff != "" {
		t.Fatal(diff)
	}
	require.Error(t, ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &read))
}

func TestWriteCatalog(t *testing.T) {
	r := catalog.Report{
		ElapsedMs: 65000,
		Results: []catalog.Result{
			{Product: "Fanta Orange 330ml", Code: "69001", Price: "2.5", Image: "/img/fanta.png", Added: true},
			{Product: "Sprite 330ml", Skipped: true, Reason: "already listed"},
			{Product: "Apple Juice 250ml", Error: "product has no price: Apple Juice 250ml"},
		},
		Added:   1,
		Skipped: 1,
		Failed:  1,
	}

	var out bytes.Buffer
	WriteCatalog(&out, r)
	text := out.String()
	for _, expected := range []string{
		"ADD PRODUCTS SUMMARY",
		"Duration: 1m 5s (65 seconds)",
		"69001",
		"skipped: already listed",
		"failed: product has no price",
		"1 added, 1 skipped, 1 failed",
	} {
		require.Contains(t, text, expected)
	}
	require.NotContains(t, text, "dry run")
}

// serveSMTP accepts one SMTP session and returns the DATA it received.
func serveSMTP(t *testing.T) (addr string, received <-chan string) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		reply := func(line string) {
			conn.Write([]byte(line + "\r\n"))
		}

		reply("220 localhost ESMTP")
		var data strings.Builder
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			command := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(command, "EHLO"), strings.HasPrefix(command, "HELO"):
				reply("250 localhost")
			case command == "DATA":
				reply("354 end with <CRLF>.<CRLF>")
				for {
					line, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if line == ".\r\n" {
						break
					}
					data.WriteString(line)
				}
				out <- data.String()
				reply("250 queued")
			case command == "QUIT":
				reply("221 bye")
				return
			default:
				reply("250 OK")
			}
		}
	}()
	return listener.Addr().String(), out
}

func TestMailerSendRun(t *testing.T) {
	addr, received := serveSMTP(t)
	host, portText, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portText)
	require.NoError(t, err)

	mailer := NewMailer(SmtpConfig{
		Server:       host,
		Port:         port,
		EmailAddress: "sync@ourvend.test",
		Recipients:   []string{"ops@ourvend.test"},
	})
	require.NoError(t, mailer.SendRun(context.Background(), sampleRun()))

	select {
	case data := <-received:
		require.Contains(t, data, "Subject: ourvend-sync: 2 slots synced, 3 failed")
		require.Contains(t, data, "ops@ourvend.test")
		require.Contains(t, data, "SYNC SUMMARY")
	case <-time.After(5 * time.Second):
		t.Fatal("no mail received")
	}
}

func TestMailerWithoutRecipients(t *testing.T) {
	mailer := NewMailer(SmtpConfig{Server: "localhost"})
	require.False(t, mailer.config.Enabled())
	require.ErrorIs(t, mailer.SendRun(context.Background(), sampleRun()), ErrNoRecipients)
}
