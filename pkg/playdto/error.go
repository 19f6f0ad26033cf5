package playdto

// InputError is a rejected command shown back to the room.
type InputError struct {
	Code    string
	Message string
}

func (e InputError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "invalid input"
}
