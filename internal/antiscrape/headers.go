package antiscrape

import (
	"net/http"
	"strings"
)

type Header struct {
	Name  string
	Value string
}

// Headers is an ordered header list with case-insensitive names.
type Headers []Header

// Set replaces the value of an existing header in place or appends a new one.
func (h *Headers) Set(name, value string) {
	for i := range *h {
		if strings.EqualFold((*h)[i].Name, name) {
			(*h)[i].Value = value
			return
		}
	}

	*h = append(*h, Header{Name: name, Value: value})
}

func (h Headers) Get(name string) (string, bool) {
	for _, hd := range h {
		if strings.EqualFold(hd.Name, name) {
			return hd.Value, true
		}
	}

	return "", false
}

func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}

	return append(Headers(nil), h...)
}

// HTTP converts the list for use on an *http.Request.
func (h Headers) HTTP() http.Header {
	out := make(http.Header, len(h))
	for _, hd := range h {
		out.Set(hd.Name, hd.Value)
	}

	return out
}
