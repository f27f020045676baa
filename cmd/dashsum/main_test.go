package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"dashboard-summarizer/internal/constant"
	"dashboard-summarizer/internal/dto"
	"dashboard-summarizer/internal/model"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dashsum dev")
	assert.Contains(t, out, "commit: none")
}

func TestRootCmdHelp(t *testing.T) {
	out, err := runRoot(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"summarize", "fingerprint", "cache", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestFingerprintCmd(t *testing.T) {
	out, err := runRoot(t, "fingerprint", "--dashboard", "42", "--filter", "region=EU", "--filter", "date=7 days")
	require.NoError(t, err)
	assert.Equal(t, `42:{"date":"7 days","region":"EU"}`+"\n", out)
}

func TestFingerprintCmdErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing dashboard", args: []string{"fingerprint"}, want: `required flag(s) "dashboard" not set`},
		{name: "empty dashboard", args: []string{"fingerprint", "--dashboard", ""}, want: "dashboard id is empty"},
		{name: "malformed filter", args: []string{"fingerprint", "--dashboard", "1", "--filter", "region"}, want: `invalid filter "region"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runRoot(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSummarizeRejectsBadFlagsBeforeConnecting(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "run state", args: []string{"summarize", "--dashboard", "1", "--run-state", "paused"}, want: "invalid run state"},
		{name: "export destination", args: []string{"summarize", "--dashboard", "1", "--export", "email"}, want: "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runRoot(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCacheShowNotCached(t *testing.T) {
	t.Setenv("CACHE_DRIVER", "memory")
	t.Setenv("LOG_FILE_PATH", filepath.Join(t.TempDir(), "dashsum.log"))

	out, err := runRoot(t, "cache", "show", "--dashboard", "D1")
	require.NoError(t, err)
	assert.Equal(t, "not cached: D1:{}\n", out)
}

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    model.Filters
		wantErr bool
	}{
		{name: "none", pairs: nil, want: model.Filters{}},
		{name: "single", pairs: []string{"region=EU"}, want: model.Filters{"region": "EU"}},
		{name: "empty value", pairs: []string{"region="}, want: model.Filters{"region": ""}},
		{name: "value with equals", pairs: []string{"expr=a=b"}, want: model.Filters{"expr": "a=b"}},
		{name: "later wins", pairs: []string{"r=EU", "r=US"}, want: model.Filters{"r": "US"}},
		{name: "no separator", pairs: []string{"region"}, wantErr: true},
		{name: "empty name", pairs: []string{"=EU"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilters(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRunState(t *testing.T) {
	state, err := parseRunState("running")
	require.NoError(t, err)
	assert.Equal(t, model.RunStateRunning, state)

	state, err = parseRunState("NOT_RUNNING")
	require.NoError(t, err)
	assert.Equal(t, model.RunStateNotRunning, state)

	_, err = parseRunState("")
	assert.Error(t, err)
}

func TestFeedRendererStreamsInPlace(t *testing.T) {
	buf := new(bytes.Buffer)
	r := newFeedRenderer(buf)

	r.Handle(dto.SessionSnapshot{Status: constant.StatusLoadedMetadata, StatusVisible: true})
	r.Handle(dto.SessionSnapshot{Summarizing: true, RequestID: "r1"})
	r.Handle(dto.SessionSnapshot{Summarizing: true, RequestID: "r1", Status: constant.StatusSummarizing, StatusVisible: true})
	r.Handle(dto.SessionSnapshot{Summarizing: true, RequestID: "r1", Status: constant.StatusSummarizing, StatusVisible: true, Chunks: []string{"a"}})
	r.Handle(dto.SessionSnapshot{Summarizing: true, RequestID: "r1", Status: constant.StatusSummarizing, StatusVisible: true, Chunks: []string{"a", "b"}})
	r.Handle(dto.SessionSnapshot{RequestID: "r1", Status: constant.StatusSummarizing, StatusVisible: true, Chunks: []string{"a", "b"}, Summary: `{"ok":true}`, HasSummary: true})

	want := strings.Join([]string{
		"» " + constant.StatusLoadedMetadata,
		"» " + constant.StatusSummarizing,
		"a b",
		"Summary",
		`{"ok":true}`,
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())

	select {
	case final := <-r.Done():
		assert.True(t, final.HasSummary)
		assert.Equal(t, "r1", final.RequestID)
	default:
		t.Fatal("renderer did not report the finished request")
	}
}

func TestFeedRendererReportsDrop(t *testing.T) {
	buf := new(bytes.Buffer)
	r := newFeedRenderer(buf)

	r.Handle(dto.SessionSnapshot{Summarizing: true, RequestID: "r1", Chunks: []string{"partial"}})
	r.Handle(dto.SessionSnapshot{State: "disconnected", RequestID: "r1", Chunks: []string{"partial"}})
	r.Handle(dto.SessionSnapshot{State: "disconnected", RequestID: "r1", Status: constant.StatusConnectionLost, StatusVisible: true})

	assert.Equal(t, "partial\n» "+constant.StatusConnectionLost+"\n", buf.String())

	final := <-r.Done()
	assert.False(t, final.HasSummary)
	assert.Equal(t, "disconnected", final.State)
}

func TestFeedRendererIgnoresIdleSnapshots(t *testing.T) {
	buf := new(bytes.Buffer)
	r := newFeedRenderer(buf)

	r.Handle(dto.SessionSnapshot{State: "idle"})
	r.Handle(dto.SessionSnapshot{State: "readyToSummarize", RequestID: "old"})

	assert.Empty(t, buf.String())
	select {
	case <-r.Done():
		t.Fatal("no request was in flight")
	default:
	}
}

func TestStatusPalette(t *testing.T) {
	assert.Same(t, failureColor, statusPalette(constant.StatusSummaryFailed))
	assert.Same(t, failureColor, statusPalette(constant.StatusConnectionLost))
	assert.Same(t, failureColor, statusPalette(constant.StatusConnectFailed))
	assert.Same(t, successColor, statusPalette(constant.StatusSummaryReady))
	assert.Same(t, successColor, statusPalette(constant.StatusExportedSheets))
	assert.Same(t, statusColor, statusPalette(constant.StatusLoadingMetadata))
}
