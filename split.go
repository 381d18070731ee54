package re

import "go.starlark.net/starlark"

// split splits `str` at all matches of pattern `p`. See also `reSplit`.
// The texts of all groups of a match are inserted between the parts; groups, that did not match, are None.
func split(p *Pattern, str string, maxSplit int) (starlark.Value, error) {
	if maxSplit < 0 {
		return starlark.NewList([]starlark.Value{starlark.String(str)}), nil
	}

	n := -1
	if maxSplit > 0 {
		n = maxSplit
	}

	matches, err := p.re.FindAll(str, 0, n)
	if err != nil {
		return nil, err
	}

	var list []starlark.Value

	beg := 0
	for _, match := range matches {
		list = append(list, starlark.String(str[beg:match[0]]))

		// add all groups
		for i := 1; 2*i < len(match); i++ {
			if match[2*i] >= 0 {
				list = append(list, starlark.String(str[match[2*i]:match[2*i+1]]))
			} else {
				list = append(list, starlark.None)
			}
		}

		beg = match[1]
	}

	// append even if empty
	list = append(list, starlark.String(str[beg:]))

	return starlark.NewList(list), nil
}
