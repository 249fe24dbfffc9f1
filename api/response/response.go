// Package response contains the http responses of the txstats api
package response

import (
	"net/http"
)

const ContentTypeJSON = "application/json; charset=utf-8"

var BufferPool = newBufferPool() // used by encoded responses to serialize into

func Write(w http.ResponseWriter, resp Response) {
	defer resp.Close()
	body, err := resp.Body()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	for k, v := range resp.Headers() {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.Code())
	w.Write(body)
}

type Response interface {
	Code() int
	Body() ([]byte, error)
	Headers() map[string]string
	Close()
}
