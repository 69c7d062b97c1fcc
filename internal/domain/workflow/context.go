package workflow

// Context carries caller-supplied named values to guards and actions during
// a trigger, e.g. the acting user's identity or attributes of the target
// entity. Guards and actions treat it as read-only.
type Context map[string]any

// Get returns the value for key and whether it was present.
func (c Context) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// String returns the string value for key, or "" if the key is absent or
// holds a non-string value.
func (c Context) String(key string) string {
	if s, ok := c[key].(string); ok {
		return s
	}
	return ""
}
