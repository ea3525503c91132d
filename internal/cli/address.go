package cli

import (
	"github.com/spf13/cobra"
)

// addressFlags registers one flag per address field.
func addressFlags(cmd *cobra.Command) map[string]*string {
	values := map[string]*string{}
	for _, name := range []string{"name", "company", "address1", "address2", "city", "state", "zip5", "zip4"} {
		values[name] = cmd.Flags().String(name, "", "address "+name)
	}
	values["zip"] = cmd.Flags().String("zip", "", `ZIP code, "99881" or "99881-1234" (sets zip5 and zip4)`)
	return values
}

// fieldsFromFlags collects the flags the user actually set.
func fieldsFromFlags(cmd *cobra.Command, values map[string]*string) map[string]any {
	fields := map[string]any{}
	for name, v := range values {
		if cmd.Flags().Changed(name) {
			fields[name] = *v
		}
	}
	return fields
}

func (a *app) newVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Standardize an address and report whether it is valid",
		Example: `  usps verify --address1 "6406 Ivy Ln" --city Greenbelt --state MD
  usps verify --address1 "1600 Pennsylvania Ave NW" --zip 20500 -o json`,
		Args: cobra.NoArgs,
	}
	values := addressFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		rec, err := a.service().Verify(cmd.Context(), fieldsFromFlags(cmd, values))
		if err != nil {
			return err
		}
		return a.print([]Result{{Address: rec.Standardized, Verdict: &rec.Verdict}})
	}

	return cmd
}

func (a *app) newStandardizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standardize",
		Short: "Print the USPS standardized form of an address",
		Args:  cobra.NoArgs,
	}
	values := addressFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		std, err := a.service().Standardize(cmd.Context(), fieldsFromFlags(cmd, values))
		if err != nil {
			return err
		}
		return a.print([]Result{{Address: std}})
	}

	return cmd
}
