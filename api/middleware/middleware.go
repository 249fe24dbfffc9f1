// Package middleware contains the macaron handlers that run before and around the api handlers
package middleware

import (
	"github.com/rs/cors"
	"gopkg.in/macaron.v1"
)

type Context struct {
	*macaron.Context
}

// Contexter maps a *Context for the handlers further down the chain
func Contexter() macaron.Handler {
	return func(c *macaron.Context) {
		c.Map(&Context{Context: c})
	}
}

func CorsHandler() macaron.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowCredentials: true,
	})
	return c.HandlerFunc
}
