package response

// Empty is a response with a status code and no body.
// It still advertises json, so clients can treat all api responses alike.
type Empty struct {
	code int
}

func NewEmpty(code int) *Empty {
	return &Empty{code: code}
}

func (r *Empty) Code() int {
	return r.code
}

func (r *Empty) Close() {}

func (r *Empty) Body() ([]byte, error) {
	return nil, nil
}

func (r *Empty) Headers() (headers map[string]string) {
	headers = map[string]string{"content-type": ContentTypeJSON}
	return headers
}
