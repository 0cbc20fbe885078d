package pressroom

import "strings"

// Slugify converts a title to a URL-safe slug: lowercase, with every run of
// non-alphanumeric characters collapsed into a single dash.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	dashed := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dashed = false
		default:
			if !dashed && b.Len() > 0 {
				b.WriteByte('-')
				dashed = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// JoinIDList encodes a slice of ids as a comma-wrapped string (",a,b,").
// The wrapping commas make membership checks cheap both in Go and in SQL
// via instr(list, ',' || id || ',').
func JoinIDList(ids []string) string {
	ids = FilterEmpty(ids)
	if len(ids) == 0 {
		return ","
	}
	return "," + strings.Join(ids, ",") + ","
}

// ParseIDList decodes a comma-wrapped id list produced by JoinIDList.
func ParseIDList(list string) []string {
	list = strings.Trim(list, ",")
	if list == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return FilterEmpty(parts)
}

// RemoveID returns ids without every occurrence of id.
func RemoveID(ids []string, id string) []string {
	var out []string
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// FilterEmpty removes empty and whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
