package ingest

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Field is a canonical account attribute that upload headers map onto.
type Field string

const (
	FieldAccountNumber  Field = "account_number"
	FieldAccountName    Field = "account_name"
	FieldDepartment     Field = "department"
	FieldBSPL           Field = "bs_pl"
	FieldStatusCategory Field = "status_category"
	FieldMainHead       Field = "main_head"
	FieldSubHead        Field = "sub_head"
	FieldSPOC           Field = "spoc"
	FieldReviewer       Field = "reviewer"
)

// Fields lists every canonical field in display order.
var Fields = []Field{
	FieldBSPL, FieldStatusCategory, FieldAccountName, FieldAccountNumber, FieldMainHead,
	FieldSubHead, FieldDepartment, FieldSPOC, FieldReviewer,
}

// RequiredFields must each be present in a header row and non-empty in every accepted row.
var RequiredFields = []Field{FieldAccountNumber, FieldAccountName, FieldDepartment}

// ParseField returns the field with the given snake_case name.
func ParseField(name string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == strings.TrimSpace(name) {
			return f, true
		}
	}
	return "", false
}

// AliasTable maps normalized header text to canonical fields.
type AliasTable struct {
	aliases map[Field][]string
	lookup  map[string]Field
}

// DefaultAliases returns the built-in header aliases.
func DefaultAliases() *AliasTable {
	t := &AliasTable{aliases: make(map[Field][]string), lookup: make(map[string]Field)}
	t.add(FieldAccountNumber, "G/L Account Number", "GL Account Number", "GL Account No.", "G/L Acct No.")
	t.add(FieldAccountName, "G/L Acct", "GL Acct", "GL Account")
	t.add(FieldDepartment, "Responsible Department", "Department", "Dept", "Dept Responsible")
	t.add(FieldBSPL, "BS/PL")
	t.add(FieldStatusCategory, "Status")
	t.add(FieldMainHead, "Main Head")
	t.add(FieldSubHead, "Sub head", "Sub Head")
	t.add(FieldSPOC, "Departement SPOC", "SPOC")
	t.add(FieldReviewer, "Departement Reviewer", "Reviewer")
	return t
}

// WithExtra returns a copy of t extended with aliases keyed by field name.
// An alias already bound to a different field is an error.
func (t *AliasTable) WithExtra(extra map[string][]string) (*AliasTable, error) {
	out := &AliasTable{aliases: make(map[Field][]string), lookup: make(map[string]Field)}
	for _, f := range Fields {
		out.aliases[f] = append([]string(nil), t.aliases[f]...)
	}
	for k, v := range t.lookup {
		out.lookup[k] = v
	}
	for name, aliases := range extra {
		f, ok := ParseField(name)
		if !ok {
			return nil, fmt.Errorf("unknown field %q in extra aliases", name)
		}
		for _, a := range aliases {
			if bound, ok := out.lookup[normalizeHeader(a)]; ok && bound != f {
				return nil, fmt.Errorf("alias %q already maps to %s", a, bound)
			}
			out.add(f, a)
		}
	}
	return out, nil
}

func (t *AliasTable) add(f Field, aliases ...string) {
	for _, a := range aliases {
		key := normalizeHeader(a)
		if key == "" {
			continue
		}
		if _, ok := t.lookup[key]; ok {
			continue
		}
		t.lookup[key] = f
		t.aliases[f] = append(t.aliases[f], a)
	}
}

// Match returns the canonical field for a raw header cell.
func (t *AliasTable) Match(header string) (Field, bool) {
	f, ok := t.lookup[normalizeHeader(header)]
	return f, ok
}

// Aliases returns the aliases registered for f.
func (t *AliasTable) Aliases(f Field) []string {
	return append([]string(nil), t.aliases[f]...)
}

// DisplayName is the first alias of f, used in user-facing messages.
func (t *AliasTable) DisplayName(f Field) string {
	if a := t.aliases[f]; len(a) > 0 {
		return a[0]
	}
	return string(f)
}

// normalizeHeader trims, collapses inner whitespace and case-folds.
// A fresh Caser per call: casers are not safe for concurrent use.
func normalizeHeader(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}
