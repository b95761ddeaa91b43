// Package jsonnum reads numbers out of loosely typed provider JSON.
package jsonnum

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Float returns the first path holding a JSON number or a numeric string
// such as "1,250". Missing, null, unparseable and non-finite values are
// treated as absent, and the next path is tried.
func Float(doc gjson.Result, paths ...string) *float64 {
	for _, path := range paths {
		v := doc.Get(path)
		switch v.Type {
		case gjson.Number:
			f := v.Float()
			return &f
		case gjson.String:
			if f, ok := parse(v.Str); ok {
				return &f
			}
		}
	}
	return nil
}

// Int is Float rounded to the nearest integer.
func Int(doc gjson.Result, paths ...string) *int64 {
	f := Float(doc, paths...)
	if f == nil {
		return nil
	}
	i := int64(math.Round(*f))
	return &i
}

func parse(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
