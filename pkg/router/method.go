package router

// Method is the closed set of request methods the router distinguishes.
type Method int

const (
	MethodOther Method = iota
	MethodGet
	MethodPost
	MethodPut
	MethodOptions
)

// ParseMethod maps a request-line method to a Method. Matching is
// case-sensitive, as on the wire.
func ParseMethod(s string) Method {
	switch s {
	case "GET":
		return MethodGet
	case "POST":
		return MethodPost
	case "PUT":
		return MethodPut
	case "OPTIONS":
		return MethodOptions
	default:
		return MethodOther
	}
}

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	case MethodPut:
		return "PUT"
	case MethodOptions:
		return "OPTIONS"
	default:
		return "OTHER"
	}
}
