package ueberdb

import "encoding/json"

// decodeValue JSON-decodes raw into a generic value (object/array/
// scalar/null), the representation getSubvalue/setSubvalue operate on.
func decodeValue(raw string) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// encodeValue JSON-encodes v for storage at the driver boundary.
func encodeValue(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// getSubvalue walks whole along path and returns the leaf. Each
// intermediate step (and the final one) must be present in a
// map[string]interface{}; any other shape is "not found" (spec.md §4.4).
func getSubvalue(key string, whole interface{}, path []string) (interface{}, error) {
	cur := whole
	for i, step := range path {
		container, ok := cur.(map[string]interface{})
		if !ok {
			return nil, &PathNotFoundError{Key: key, Path: path[:i+1]}
		}
		next, present := container[step]
		if !present {
			return nil, &PathNotFoundError{Key: key, Path: path[:i+1]}
		}
		cur = next
	}
	return cur, nil
}

// setSubvalue walks whole along all but the last step of path, then
// assigns value at the final step, mutating the containers in place and
// returning the (possibly replaced) whole value.
//
// The walk resolves spec.md §9's noted source anomaly: subvalueParent is
// re-bound to subvalueParent[path[i]] at every step rather than reusing
// a stale reference.
func setSubvalue(key string, whole interface{}, path []string, value interface{}) (interface{}, error) {
	if len(path) == 0 {
		return value, nil
	}
	if whole == nil {
		whole = map[string]interface{}{}
	}
	root, ok := whole.(map[string]interface{})
	if !ok {
		return nil, &PathNotFoundError{Key: key, Path: path[:1]}
	}

	subvalueParent := root
	for i := 0; i < len(path)-1; i++ {
		step := path[i]
		next, present := subvalueParent[step]
		if !present {
			return nil, &PathNotFoundError{Key: key, Path: path[:i+1]}
		}
		container, ok := next.(map[string]interface{})
		if !ok {
			return nil, &PathNotFoundError{Key: key, Path: path[:i+1]}
		}
		subvalueParent = container
	}
	subvalueParent[path[len(path)-1]] = value
	return root, nil
}
