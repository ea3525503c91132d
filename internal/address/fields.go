package address

import (
	"fmt"

	"github.com/spf13/cast"
)

// Field is the canonical name of an Address field.
type Field string

const (
	FieldName           Field = "name"
	FieldCompany        Field = "company"
	FieldAddress1       Field = "address1"
	FieldAddress2       Field = "address2"
	FieldCity           Field = "city"
	FieldState          Field = "state"
	FieldZip5           Field = "zip5"
	FieldZip4           Field = "zip4"
	FieldReturnText     Field = "return_text"
	FieldAdditionalInfo Field = "additional_info"

	// FieldZip is the combined "zip5-zip4" form. It is not stored.
	FieldZip Field = "zip"
)

// scalarFields lists the text fields in declaration order.
var scalarFields = []Field{
	FieldName,
	FieldCompany,
	FieldAddress1,
	FieldAddress2,
	FieldCity,
	FieldState,
	FieldZip5,
	FieldZip4,
	FieldReturnText,
}

// aliases maps alternative names to canonical fields.
// The USPS always refers to company as firm.
var aliases = map[string]Field{
	"firm":          FieldCompany,
	"address":       FieldAddress1,
	"extra_address": FieldAddress2,
}

var known = func() map[Field]bool {
	m := map[Field]bool{FieldAdditionalInfo: true, FieldZip: true}
	for _, f := range scalarFields {
		m[f] = true
	}
	return m
}()

// LookupField resolves a field name or alias to its canonical field.
func LookupField(name string) (Field, error) {
	if f, ok := aliases[name]; ok {
		return f, nil
	}
	if f := Field(name); known[f] {
		return f, nil
	}
	return "", &UnknownFieldError{Field: name}
}

// Set assigns value to the named field. Text fields accept strings and
// numbers; a nil value unsets the field.
func (a *Address) Set(name string, value any) error {
	f, err := LookupField(name)
	if err != nil {
		return err
	}

	switch f {
	case FieldAdditionalInfo:
		info, err := toInfo(value)
		if err != nil {
			return &TypeMismatchError{Field: name, Got: fmt.Sprintf("%T", value)}
		}
		a.AdditionalInfo = info
		return nil
	case FieldZip:
		if value == nil {
			a.Zip5, a.Zip4 = nil, nil
			return nil
		}
		s, err := cast.ToStringE(value)
		if err != nil {
			return &TypeMismatchError{Field: name, Got: fmt.Sprintf("%T", value)}
		}
		a.SetZip(s)
		return nil
	}

	if value == nil {
		*a.slot(f) = nil
		return nil
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return &TypeMismatchError{Field: name, Got: fmt.Sprintf("%T", value)}
	}
	*a.slot(f) = &s
	return nil
}

// Get returns the text value of the named field and whether it is set.
func (a *Address) Get(name string) (string, bool, error) {
	f, err := LookupField(name)
	if err != nil {
		return "", false, err
	}

	switch f {
	case FieldAdditionalInfo:
		return a.AdditionalInfo.String(), a.AdditionalInfo != nil, nil
	case FieldZip:
		return a.Zip(), a.Zip5 != nil, nil
	}

	v := *a.slot(f)
	return deref(v), v != nil, nil
}

// Fields returns the set fields keyed by canonical name.
func (a *Address) Fields() map[string]any {
	m := make(map[string]any, len(scalarFields)+1)
	for _, f := range scalarFields {
		if v := *a.slot(f); v != nil {
			m[string(f)] = *v
		}
	}
	if a.AdditionalInfo != nil {
		m[string(FieldAdditionalInfo)] = map[string]string(a.AdditionalInfo.Clone())
	}
	return m
}

func (a *Address) slot(f Field) **string {
	switch f {
	case FieldName:
		return &a.Name
	case FieldCompany:
		return &a.Company
	case FieldAddress1:
		return &a.Address1
	case FieldAddress2:
		return &a.Address2
	case FieldCity:
		return &a.City
	case FieldState:
		return &a.State
	case FieldZip5:
		return &a.Zip5
	case FieldZip4:
		return &a.Zip4
	case FieldReturnText:
		return &a.ReturnText
	}
	panic(fmt.Sprintf("address: %q is not a text field", f))
}

func toInfo(value any) (Info, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case Info:
		return v.Clone(), nil
	case map[string]string:
		return Info(v).Clone(), nil
	}

	m, err := cast.ToStringMapStringE(value)
	if err != nil {
		return nil, err
	}
	return Info(m), nil
}
