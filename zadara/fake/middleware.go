package fake

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/erikmagkekse/zadara-clone-swap/zadara"

	"github.com/labstack/echo/v5"
)

func (s *Server) consoleAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			token, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
			if !ok || token != s.consoleToken {
				return c.JSON(http.StatusUnauthorized, zadara.ErrorResponse{Error: "invalid console token"})
			}
			return next(c)
		}
	}
}

// vpsaAuth resolves the VPSA from the path and checks its access key.
func (s *Server) vpsaAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			id, err := strconv.Atoi(c.Param("id"))
			if err != nil {
				return c.JSON(http.StatusNotFound, zadara.ErrorResponse{Error: "vpsa not found"})
			}

			s.mu.Lock()
			v, ok := s.vpsas[id]
			s.mu.Unlock()
			if !ok {
				return c.JSON(http.StatusNotFound, zadara.ErrorResponse{Error: "vpsa not found"})
			}
			if v.Status != zadara.VPSAStatusCreated {
				return c.JSON(http.StatusServiceUnavailable, zadara.ErrorResponse{Error: "vpsa is " + v.Status})
			}
			if c.Request().Header.Get("X-Access-Key") != v.Token {
				return c.JSON(http.StatusUnauthorized, zadara.ErrorResponse{Error: "invalid access key"})
			}
			c.Set("vpsa", v)
			return next(c)
		}
	}
}

// op names a route after the zadara client operation it serves, so that
// Fail can target it.
func (s *Server) op(name string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		s.mu.Lock()
		status, fail := s.failures[name]
		s.mu.Unlock()
		if fail {
			return c.JSON(status, zadara.Envelope{Response: zadara.EnvelopeBody{Status: 1, Message: name + " failed"}})
		}
		return next(c)
	}
}
