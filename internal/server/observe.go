package server

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// observe logs every request and counts it by matched route. Errors are
// rendered here so the recorded status is the one sent to the client.
func (s *Server) observe(c *fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		if herr := s.handleError(c, err); herr != nil {
			return herr
		}
	}

	status := c.Response().StatusCode()
	s.metrics.HTTPRequests.WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).Inc()
	s.log.Debug("%s %s -> %d (%s)", c.Method(), c.OriginalURL(), status, time.Since(start))
	return nil
}
