package registry

// ErrUnknownKey matches every UnknownKeyError.
// Use errors.Is(err, ErrUnknownKey) to check for it.
var ErrUnknownKey = &UnknownKeyError{}

// UnknownKeyError is returned when a name is not in a table
type UnknownKeyError struct {
	Kind Kind
	Key  string
}

func (e *UnknownKeyError) Error() string {
	if e.Kind == "" {
		return "unknown key"
	}
	return "unknown " + string(e.Kind) + ": " + e.Key
}

func (e *UnknownKeyError) Is(target error) bool {
	_, ok := target.(*UnknownKeyError)
	return ok
}
