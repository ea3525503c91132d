package address

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Address represents a postal mailing address and, once standardized, the
// diagnostic metadata returned by the USPS.
//
// The USPS API uses Address2 for the street line and Address1 for the
// apartment or suite. Address flips them to match an envelope: Address1 is the
// street line and Address2 is the secondary line.
//
// Scalar fields are pointers so that an unset field can be told apart from an
// empty one. Replace relies on that distinction.
type Address struct {
	Name           *string `json:"name,omitempty" yaml:"name,omitempty"`
	Company        *string `json:"company,omitempty" yaml:"company,omitempty"`
	Address1       *string `json:"address1,omitempty" yaml:"address1,omitempty"`
	Address2       *string `json:"address2,omitempty" yaml:"address2,omitempty"`
	City           *string `json:"city,omitempty" yaml:"city,omitempty"`
	State          *string `json:"state,omitempty" yaml:"state,omitempty"`
	Zip5           *string `json:"zip5,omitempty" yaml:"zip5,omitempty"`
	Zip4           *string `json:"zip4,omitempty" yaml:"zip4,omitempty"`
	ReturnText     *string `json:"return_text,omitempty" yaml:"return_text,omitempty"`
	AdditionalInfo Info    `json:"additional_info,omitempty" yaml:"additional_info,omitempty"`

	err error
}

// New creates an Address from a mapping of field names to values.
// Aliases (firm, address, extra_address) and the combined zip are accepted.
//
// Fields are applied in a fixed order: aliases and zip first, then canonical
// names, each group sorted by key. When two keys name the same field the
// canonical one wins, so {"zip": "99999-2222", "zip5": "11111"} yields
// 11111-2222 on every call.
func New(fields map[string]any) (*Address, error) {
	a := &Address{}
	for _, name := range orderedKeys(fields) {
		if err := a.Set(name, fields[name]); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func orderedKeys(fields map[string]any) []string {
	keys := slices.Sorted(maps.Keys(fields))
	slices.SortStableFunc(keys, func(x, y string) int {
		return rank(x) - rank(y)
	})
	return keys
}

func rank(name string) int {
	if _, ok := aliases[name]; ok || Field(name) == FieldZip {
		return 0
	}
	return 1
}

// Zip returns "zip5-zip4" when zip4 is set, otherwise zip5 (possibly empty).
func (a *Address) Zip() string {
	if zip4 := deref(a.Zip4); zip4 != "" {
		return deref(a.Zip5) + "-" + zip4
	}
	return deref(a.Zip5)
}

// SetZip sets zip5 and zip4 from a zip code in the format "99881" or
// "99881-1234". A missing extension clears zip4.
func (a *Address) SetZip(zip string) {
	zip5, zip4, _ := strings.Cut(zip, "-")
	a.Zip5 = &zip5
	if zip4 == "" {
		a.Zip4 = nil
		return
	}
	a.Zip4 = &zip4
}

// IsStandardized reports whether the address carries USPS metadata.
// An address without it is presumed not yet checked against the service.
func (a *Address) IsStandardized() bool {
	return len(a.AdditionalInfo) > 0
}

// Err returns the error recorded by the last call to Verify, if any.
func (a *Address) Err() error {
	return a.err
}

// Standardize asks the resolver for the standardized version of the address.
// The receiver is not modified.
func (a *Address) Standardize(ctx context.Context, r Resolver) (*Address, error) {
	result, err := r.Resolve(ctx, []*Address{a})
	if err != nil {
		return nil, err
	}
	return result.Get(a)
}

// StandardizeInPlace standardizes the address and merges the result into it.
func (a *Address) StandardizeInPlace(ctx context.Context, r Resolver) error {
	std, err := a.Standardize(ctx, r)
	if err != nil {
		return err
	}
	_, err = a.Replace(std)
	return err
}

// Replace overwrites the fields of a with the non-nil fields of other. A value
// present on a but unset on other is kept (the name on a verification request,
// for example).
func (a *Address) Replace(other *Address) (*Address, error) {
	if other == nil {
		return nil, &TypeMismatchError{Got: "<nil>"}
	}

	for _, f := range scalarFields {
		if v := *other.slot(f); v != nil {
			s := *v
			*a.slot(f) = &s
		}
	}
	if other.AdditionalInfo != nil {
		a.AdditionalInfo = other.AdditionalInfo.Clone()
	}

	return a, nil
}

// Verify standardizes the address if needed and interprets the USPS metadata.
// A resolver failure is recorded on the address (see Err) and returned as is.
func (a *Address) Verify(ctx context.Context, r Resolver) (Verdict, error) {
	a.err = nil

	if !a.IsStandardized() {
		if err := a.StandardizeInPlace(ctx, r); err != nil {
			a.err = err
			return Verdict{}, err
		}
	}

	return Evaluate(a.AdditionalInfo, deref(a.ReturnText)), nil
}

// Deliverable is meant to prove the address can receive mail. USPS
// standardization says nothing about that, so it is not implemented.
func (a *Address) Deliverable(ctx context.Context) (bool, error) {
	return false, ErrNotImplemented
}

// Clone returns a deep copy of the address without the recorded error.
func (a *Address) Clone() *Address {
	c := &Address{}
	for _, f := range scalarFields {
		if v := *a.slot(f); v != nil {
			s := *v
			*c.slot(f) = &s
		}
	}
	c.AdditionalInfo = a.AdditionalInfo.Clone()
	return c
}

// String formats the address on envelope lines.
func (a *Address) String() string {
	var lines []string
	for _, v := range []*string{a.Name, a.Company, a.Address1, a.Address2} {
		if s := deref(v); s != "" {
			lines = append(lines, s)
		}
	}
	last := strings.Join(strings.Fields(fmt.Sprintf("%s %s %s", deref(a.City), deref(a.State), a.Zip())), " ")
	if last != "" {
		lines = append(lines, last)
	}
	return strings.Join(lines, "\n")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}
