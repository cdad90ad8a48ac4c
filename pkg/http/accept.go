package http

import (
	"net/http"
	"sort"

	"github.com/golang/gddo/httputil/header"
)

// negotiateContentType picks a content type based on the Accept
// header from a request, and a supplied list of available content
// types in order of preference. If the Accept header mentions more
// than one available content type, the one with the highest quality
// (`q`) parameter is chosen; if there are a number of those, the one
// that appears first in the available types is chosen. If none of the
// available types is acceptable, the result is "".
func negotiateContentType(r *http.Request, orderedPref []string) string {
	specs := header.ParseAccept(r.Header, "Accept")
	if len(specs) == 0 {
		return orderedPref[0]
	}

	var acceptable []header.AcceptSpec
	for _, spec := range specs {
		if spec.Q > 0 && rank(orderedPref, spec.Value) < len(orderedPref) {
			acceptable = append(acceptable, spec)
		}
	}
	if len(acceptable) == 0 {
		return ""
	}
	sort.SliceStable(acceptable, func(i, j int) bool {
		a, b := acceptable[i], acceptable[j]
		if a.Q == b.Q {
			return rank(orderedPref, a.Value) < rank(orderedPref, b.Value)
		}
		return a.Q > b.Q
	})
	return acceptable[0].Value
}

// rank is the position of search in ss, or len(ss) if it isn't there,
// so that unknown types sort after known ones.
func rank(ss []string, search string) int {
	for i, s := range ss {
		if s == search {
			return i
		}
	}
	return len(ss)
}
