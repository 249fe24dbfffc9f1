package response

import (
	"github.com/tinylib/msgp/msgp"
)

// FastJSON is implemented by types that append their own json encoding to a buffer
type FastJSON interface {
	MarshalJSONFast([]byte) ([]byte, error)
}

// Encoded is a response whose body is serialized into a pooled buffer
// when written. Close returns the buffer to the pool.
type Encoded struct {
	code        int
	contentType string
	encode      func([]byte) ([]byte, error)
	buf         []byte
}

func NewFastJson(code int, body FastJSON) *Encoded {
	return newEncoded(code, ContentTypeJSON, body.MarshalJSONFast)
}

func NewMsgp(code int, body msgp.Marshaler) *Encoded {
	return newEncoded(code, "application/msgpack", body.MarshalMsg)
}

func newEncoded(code int, contentType string, encode func([]byte) ([]byte, error)) *Encoded {
	return &Encoded{
		code:        code,
		contentType: contentType,
		encode:      encode,
		buf:         BufferPool.Get(),
	}
}

func (r *Encoded) Code() int {
	return r.code
}

func (r *Encoded) Body() ([]byte, error) {
	var err error
	r.buf, err = r.encode(r.buf[:0])
	return r.buf, err
}

func (r *Encoded) Headers() map[string]string {
	return map[string]string{"content-type": r.contentType}
}

func (r *Encoded) Close() {
	if r.buf == nil {
		return
	}
	BufferPool.Put(r.buf)
	r.buf = nil
}
