package access

import (
	"strconv"
	"strings"

	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// Parse reads the groups of one secret written as "1,2;2,3": groups are
// separated by ';' and members by ','. Whitespace is ignored.
func Parse(s string) ([][]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, mserr.WithDetails(mserr.ErrInvalidAccessGroup, map[string]string{
			"reason": "empty access specification",
		})
	}

	var groups [][]int
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var group []int
		for _, field := range strings.Split(part, ",") {
			field = strings.TrimSpace(field)
			j, err := strconv.Atoi(field)
			if err != nil {
				return nil, mserr.WithDetails(mserr.ErrInvalidAccessGroup, map[string]string{
					"reason": "not a participant index",
					"value":  field,
				})
			}
			group = append(group, j)
		}
		groups = append(groups, group)
	}

	if len(groups) == 0 {
		return nil, mserr.WithDetails(mserr.ErrInvalidAccessGroup, map[string]string{
			"reason": "empty access specification",
		})
	}
	return groups, nil
}

// Format is the inverse of Parse.
func Format(groups [][]int) string {
	parts := make([]string, len(groups))
	for q, group := range groups {
		members := make([]string, len(group))
		for b, j := range group {
			members[b] = strconv.Itoa(j)
		}
		parts[q] = strings.Join(members, ",")
	}
	return strings.Join(parts, ";")
}

// String renders the structure one secret per line, "s<i>: 1,2;2,3".
func (s *Structure) String() string {
	var sb strings.Builder
	for i, secretGroups := range s.groups {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("s")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(": ")
		sb.WriteString(Format(secretGroups))
	}
	return sb.String()
}
