package mw

import (
	"net/http"
)

type Middleware = func(http.Handler) http.Handler

type Chain struct {
	*http.ServeMux

	chain []Middleware
}

func New() *Chain {
	return NewWithServeMux(http.NewServeMux())
}
func NewWithServeMux(mx *http.ServeMux) *Chain {
	return &Chain{ServeMux: mx}
}

func (c *Chain) Use(mw ...Middleware) {
	c.chain = append(c.chain, mw...)
}

func (c *Chain) Handle(pattern string, handler http.Handler) {
	out := handler
	for i := len(c.chain) - 1; i >= 0; i-- {
		out = c.chain[i](out)
	}

	c.ServeMux.Handle(pattern, out)
}

func (c *Chain) HandleFunc(pattern string, handler http.HandlerFunc) {
	c.Handle(pattern, handler)
}
