package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FindDuplicates groups rows by the trimmed value in column col. Every key
// seen on two or more rows produces one error against its first row, and all
// rows of the group are returned in excluded.
func FindDuplicates(rows []DataRow, col int, aliases *AliasTable) (errs []UploadError, excluded map[int]bool) {
	excluded = make(map[int]bool)
	groups := make(map[string][]int)
	var order []string
	for _, r := range rows {
		key := r.Cell(col)
		if key == "" {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r.Number)
	}

	for _, key := range order {
		nums := groups[key]
		if len(nums) < 2 {
			continue
		}
		errs = append(errs, UploadError{
			Row:  nums[0],
			Kind: KindDuplicateAccountNumber,
			Message: fmt.Sprintf("Duplicate %s '%s' found on rows: %s. These rows were not imported.",
				aliases.DisplayName(FieldAccountNumber), key, joinInts(nums)),
			Context: "Account: " + key,
		})
		for _, n := range nums {
			excluded[n] = true
		}
	}
	return errs, excluded
}

// MissingRequired lists the required fields absent from values.
func MissingRequired(values map[Field]string) []Field {
	var missing []Field
	for _, f := range RequiredFields {
		if strings.TrimSpace(values[f]) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

func missingFieldError(row DataRow, headers []string, missing []Field, aliases *AliasTable) UploadError {
	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = aliases.DisplayName(f)
	}
	return UploadError{
		Row:     row.Number,
		Kind:    KindMissingRequiredField,
		Message: fmt.Sprintf("Missing values in required columns (%s).", strings.Join(names, ", ")),
		Context: rowContext(row, headers),
	}
}

// rowContext renders the raw row as a JSON object keyed by header text.
func rowContext(row DataRow, headers []string) string {
	obj := make(map[string]string)
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if v := row.Cell(i); v != "" {
			obj[h] = v
		}
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return ""
	}
	return string(data)
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
