package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dukerupert/usps/internal/domain"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errNoAddresses = errors.New("no addresses found")

// LoadAddresses reads a YAML sequence of field mappings, for example:
//
//   - address1: 6406 Ivy Ln
//     city: Greenbelt
//     state: MD
//   - address1: 1600 Pennsylvania Ave NW
//     zip5: "20500"
func LoadAddresses(r io.Reader) ([]map[string]any, error) {
	var entries []map[string]any
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errNoAddresses
		}
		return nil, fmt.Errorf("failed to parse addresses: %w", err)
	}
	if len(entries) == 0 {
		return nil, errNoAddresses
	}
	return entries, nil
}

func (a *app) newVerifyFileCommand() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "verify-file <addresses.yaml>",
		Short: "Verify every address in a YAML file",
		Long: `Verify every address in a YAML file. Use "-" to read from stdin.

Failures are reported per address; the command only fails when the file
cannot be read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			entries, err := LoadAddresses(r)
			if err != nil {
				return err
			}

			results := a.verifyAll(cmd, entries, concurrency)
			return a.print(results)
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 5, "number of concurrent USPS requests")

	return cmd
}

// verifyAll verifies entries concurrently. Results keep the input order.
func (a *app) verifyAll(cmd *cobra.Command, entries []map[string]any, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}
	svc := a.service()
	results := make([]Result, len(entries))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(concurrency)
	for i, fields := range entries {
		g.Go(func() error {
			results[i] = Result{Index: i}
			rec, err := svc.Verify(ctx, fields)
			if err != nil {
				results[i].Error = describe(err)
				return nil
			}
			results[i].Address = rec.Standardized
			results[i].Verdict = &rec.Verdict
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// describe renders err for the user. Validation errors list their fields.
func describe(err error) string {
	msg := domain.ErrorMessage(err)
	fields := domain.GetValidationFields(err)
	if len(fields) == 0 {
		return msg
	}

	parts := make([]string, 0, len(fields))
	for _, name := range sortedKeys(fields) {
		parts = append(parts, name+" "+fields[name])
	}
	return msg + ": " + strings.Join(parts, "; ")
}
