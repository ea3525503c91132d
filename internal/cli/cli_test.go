package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dukerupert/usps/internal/address"
	"github.com/dukerupert/usps/internal/cli"
	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, r address.Resolver, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := cli.Execute(context.Background(), args, cli.WithResolver(r), cli.WithOutput(&out, &errOut))
	return code, out.String(), errOut.String()
}

func TestVerify_JSON(t *testing.T) {
	mock := address.NewMockResolver()

	code, out, errOut := run(t, mock, "verify",
		"--name", "Jane Doe",
		"--address1", "123 Main St",
		"--zip", "62704-1234",
		"-o", "json",
	)

	require.Equal(t, 0, code, errOut)
	var results []cli.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "62704-1234", results[0].Address.Zip())
	assert.Equal(t, "Jane Doe", *results[0].Address.Name)
	require.NotNil(t, results[0].Verdict)
	assert.True(t, results[0].Verdict.IsValid())

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0][0].City, "unset flags are not sent")
}

func TestVerify_ZipFlagsOverlap(t *testing.T) {
	mock := address.NewMockResolver()

	code, _, errOut := run(t, mock, "verify",
		"--address1", "123 Main St",
		"--zip", "99999-2222",
		"--zip5", "11111",
	)

	require.Equal(t, 0, code, errOut)
	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "11111-2222", calls[0][0].Zip(), "zip5 overrides the combined zip")
}

func TestVerify_InvalidInput(t *testing.T) {
	mock := address.NewMockResolver()

	code, _, errOut := run(t, mock, "verify", "--city", "Springfield")

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Error:")
	assert.Empty(t, mock.Calls())
}

func TestVerify_ResolverFailure(t *testing.T) {
	code, _, errOut := run(t, address.FailingResolver(errors.New("connection refused")),
		"verify", "--address1", "123 Main St", "--zip", "62704")

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "connection refused")
}

func TestStandardize_YAML(t *testing.T) {
	std := &address.Address{
		Address1:       address.Ptr("123 MAIN ST"),
		City:           address.Ptr("SPRINGFIELD"),
		State:          address.Ptr("IL"),
		Zip5:           address.Ptr("62704"),
		AdditionalInfo: address.Info{address.InfoDPVConfirmation: "Y"},
	}

	code, out, errOut := run(t, address.StaticResolver(std), "standardize",
		"--address1", "123 main st", "--city", "springfield", "--state", "il", "-o", "yaml")

	require.Equal(t, 0, code, errOut)
	var results []cli.Result
	require.NoError(t, yaml.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "123 MAIN ST", *results[0].Address.Address1)
	assert.Nil(t, results[0].Verdict)
}

func TestVerify_Table(t *testing.T) {
	code, out, errOut := run(t, address.NewMockResolver(), "verify",
		"--address1", "123 Main St", "--city", "Springfield", "--state", "IL")

	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "123 Main St")
	assert.Contains(t, out, "yes")
}

func TestInvalidOutputFormat(t *testing.T) {
	code, _, errOut := run(t, address.NewMockResolver(), "verify", "--address1", "1 A St", "--zip", "62704", "-o", "xml")

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `invalid format "xml"`)
}

func TestVerifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- address1: 6406 Ivy Ln
  city: Greenbelt
  state: MD
- city: Nowhere
- address1: 1600 Pennsylvania Ave NW
  zip5: 20500
`), 0o644))

	var inFlight, peak atomic.Int32
	mock := address.NewMockResolver()
	mock.ResolveFunc = func(ctx context.Context, addrs []*address.Address) (*address.Result, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		slots := make([]address.Slot, len(addrs))
		for i, a := range addrs {
			out := a.Clone()
			out.AdditionalInfo = address.Info{address.InfoDPVConfirmation: "N"}
			slots[i] = address.Slot{Input: a, Output: out}
		}
		return address.NewResult(slots...)
	}

	code, out, errOut := run(t, mock, "verify-file", path, "-o", "json", "-c", "2")

	require.Equal(t, 0, code, errOut)
	var results []cli.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
	require.NotNil(t, results[0].Verdict)
	assert.False(t, results[0].Verdict.IsValid())
	assert.Contains(t, results[1].Error, "address1 is required")
	assert.Equal(t, "20500", *results[2].Address.Zip5, "numeric YAML values are accepted")
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestVerifyFile_Stdin(t *testing.T) {
	var out, errOut bytes.Buffer
	root := cli.NewRootCommand(cli.WithResolver(address.NewMockResolver()), cli.WithOutput(&out, &errOut))
	root.SetIn(strings.NewReader("- address1: 1 Main St\n  zip5: \"62704\"\n"))
	root.SetArgs([]string{"verify-file", "-", "-o", "json"})

	require.NoError(t, root.Execute(), errOut.String())
	assert.Contains(t, out.String(), `"zip5": "62704"`)
}

func TestLoadAddresses(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr string
	}{
		{name: "list", input: "- zip5: \"62704\"\n- city: Greenbelt\n", want: 2},
		{name: "empty", input: "", wantErr: "no addresses found"},
		{name: "empty list", input: "[]\n", wantErr: "no addresses found"},
		{name: "not a list", input: "address1: 1 Main St\n", wantErr: "failed to parse addresses"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := cli.LoadAddresses(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, entries, tt.want)
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "JSON", "yaml", ""} {
		_, err := cli.ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := cli.ParseFormat("csv")
	assert.Error(t, err)
}
