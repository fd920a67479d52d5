package api

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cmsadmin/internal/errcode"
	"cmsadmin/internal/store"
)

const expandParam = "expand"

// queryFilter maps a query parameter to a store column and parses its value.
type queryFilter struct {
	column string
	parse  func(string) (any, error)
}

func textFilter(column string) queryFilter {
	return queryFilter{column: column, parse: func(s string) (any, error) { return s, nil }}
}

// emailFilter matches the lower-cased form emails are stored in.
func emailFilter(column string) queryFilter {
	return queryFilter{column: column, parse: func(s string) (any, error) {
		return strings.ToLower(strings.TrimSpace(s)), nil
	}}
}

func oneOfFilter(column string, values ...string) queryFilter {
	return queryFilter{column: column, parse: func(s string) (any, error) {
		for _, v := range values {
			if s == v {
				return s, nil
			}
		}
		return nil, fmt.Errorf("must be one of: %s", strings.Join(values, ", "))
	}}
}

func idFilter(column string) queryFilter {
	return queryFilter{column: column, parse: func(s string) (any, error) {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("must be a positive integer")
		}
		return uint(id), nil
	}}
}

func boolFilter(column string) queryFilter {
	return queryFilter{column: column, parse: func(s string) (any, error) {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("must be true or false")
		}
		return b, nil
	}}
}

// parseFilters turns every query parameter except expand into an equality filter.
func parseFilters(c *gin.Context, allowed map[string]queryFilter) (store.Filter, error) {
	query := c.Request.URL.Query()
	keys := make([]string, 0, len(query))
	for key := range query {
		if key != expandParam {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	filter := store.Filter{}
	for _, key := range keys {
		qf, ok := allowed[key]
		if !ok {
			return nil, errcode.Validation(fmt.Sprintf("unknown filter %q", key))
		}
		value, err := qf.parse(query.Get(key))
		if err != nil {
			return nil, errcode.Validation(fmt.Sprintf("filter %s %v", key, err))
		}
		filter[qf.column] = value
	}
	return filter, nil
}

// parseExpand reads ?expand=a,b. Without the parameter defaults apply; an
// empty value expands nothing.
func parseExpand(c *gin.Context, defaults ...string) []string {
	raw, present := c.GetQuery(expandParam)
	if !present {
		return defaults
	}
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errcode.Validation("invalid id")
	}
	return uint(id), nil
}
