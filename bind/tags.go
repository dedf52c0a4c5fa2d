// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package bind

import (
	"fmt"
	"strconv"
	"strings"
)

// TagKey is the struct tag key consulted by the Mapper.
const TagKey = "jbind"

// fieldTag is the parsed form of a struct field tag. The tag syntax is
//
//	jbind:"name,opt,opt,key=value"
//
// where name is the JSON member name (empty to keep the default) and "-" as
// the whole tag ignores the field. The options are:
//
//	ignore        ignore the field
//	null          always write the field when it is nil
//	omitnull      never write the field when it is nil
//	index=N       sort the field by N when writing (default: declaration order)
//	path=P        read the field from the value observed at path P
//	typefor=F     choose the concrete type of the field from sibling member F
//	adapter=A     the name of the type adapter used with typefor
//	conv=C        convert the field with the field converter named C
type fieldTag struct {
	Name      string
	Ignored   bool
	Null      *bool
	Index     int
	HasIndex  bool
	Path      string
	TypeFor   string
	Adapter   string
	Converter string
}

// parseTag parses the value of a field tag.
func parseTag(tag string) (fieldTag, error) {
	var out fieldTag
	if tag == "-" {
		out.Ignored = true
		return out, nil
	}
	parts := strings.Split(tag, ",")
	out.Name = strings.TrimSpace(parts[0])
	for _, part := range parts[1:] {
		key, val, hasVal := strings.Cut(strings.TrimSpace(part), "=")
		switch key {
		case "":
			continue
		case "ignore":
			out.Ignored = true
		case "null", "omitnull":
			ok := key == "null"
			out.Null = &ok
		case "index":
			n, err := strconv.Atoi(val)
			if err != nil {
				return out, fmt.Errorf("invalid index %q: %w", val, err)
			}
			out.Index, out.HasIndex = n, true
		case "path":
			if !strings.HasPrefix(val, "$") {
				return out, fmt.Errorf("path %q must begin with $", val)
			}
			out.Path = val
		case "typefor":
			out.TypeFor = val
		case "adapter":
			out.Adapter = val
		case "conv":
			out.Converter = val
		default:
			return out, fmt.Errorf("unknown tag option %q", key)
		}
		if hasVal != (key == "index" || key == "path" || key == "typefor" || key == "adapter" || key == "conv") {
			return out, fmt.Errorf("malformed tag option %q", part)
		}
	}
	if out.TypeFor != "" && out.Adapter == "" {
		return out, fmt.Errorf("typefor=%s requires an adapter", out.TypeFor)
	}
	return out, nil
}
