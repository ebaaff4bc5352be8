package condition

import "github.com/bh-premnath-git/bhui-sub000/internal/formvalue"

// The reader forms have stored their source settings in several shapes over
// time. legacySourceLookup bridges these shapes for condition evaluation only;
// delete it once stored form state is normalized to one shape.
//
// Shapes bridged:
//
//	{source_type: "File"}                      root level (current)
//	{source: {source_type: "File"}}            nested under source
//	{source: {type: "File"}}                   nested, short key
//	{source: {source: {source_type: "File"}}}  double nested
//
// Only the whitelisted root fields below are redirected into source, and only
// source.source_type gets the reverse and deeper lookups.

// legacySourceFields are root fields that may live under a nested source object.
var legacySourceFields = map[string]bool{
	"source_type": true,
	"file_name":   true,
	"table_name":  true,
	"file_type":   true,
}

const legacySourceTypePath = "source.source_type"

func legacySourceLookup(values map[string]any, field string) (any, bool) {
	if legacySourceFields[field] {
		if src, ok := values["source"].(map[string]any); ok {
			if v, ok := src[field]; ok && v != nil {
				return v, true
			}
		}
		return nil, false
	}

	if field != legacySourceTypePath {
		return nil, false
	}
	for _, path := range []string{"source_type", "source.type", "source.source.source_type"} {
		if v, ok := formvalue.Get(values, path); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
