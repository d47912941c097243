package models

// OptionalString carries tri-state PATCH semantics (RFC 7396) for a nullable
// column. Transport-agnostic; handlers map it from httputil.OptionalString.
//   - Present=false: field absent from request (don't change)
//   - Present=true, Value=nil: field is null (clear)
//   - Present=true, Value=&"text": set
type OptionalString struct {
	Present bool
	Value   *string
}

// Apply returns the new value for a field currently holding current.
func (o OptionalString) Apply(current *string) *string {
	if !o.Present {
		return current
	}
	return o.Value
}
