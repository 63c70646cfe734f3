package util

type Envelope map[string]any

func Error(message string) Envelope {
	return Envelope{"error": message}
}

// ErrorWithKind adds the failure class so clients can tell a validation
// problem from a storage one.
func ErrorWithKind(message, kind string) Envelope {
	return Envelope{"error": message, "kind": kind}
}

func Data(key string, value any) Envelope {
	return Envelope{key: value}
}
