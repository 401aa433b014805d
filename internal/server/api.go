package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	apperr "github.com/mwantia/updater/internal/errors"
	"github.com/mwantia/updater/internal/updater"
)

func (s *Server) builds(c *fiber.Ctx) error {
	q := updater.SelectQuery{
		Device:             c.Params("device"),
		RomType:            c.Params("romtype"),
		IncrementalVersion: c.Params("incrementalversion"),
		Version:            c.Query("version"),
	}
	if raw := c.Query("after"); raw != "" {
		after, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperr.New(apperr.ErrValidation, "after must be a unix timestamp")
		}
		q.After = &after
	}

	entries, err := s.svc.Builds(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"response": entries})
}

func (s *Server) types(c *fiber.Ctx) error {
	types, err := s.svc.Types(c.UserContext(), c.Params("device"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"response": types})
}

func (s *Server) requestFile(c *fiber.Ctx) error {
	link, err := s.svc.RequestFile(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(link)
}

func (s *Server) testAuth(c *fiber.Ctx) error {
	return c.SendString("pass")
}

func (s *Server) versionDevices(c *fiber.Ctx) error {
	versions, err := s.svc.VersionDevices(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(versions)
}

func (s *Server) changes(c *fiber.Ctx) error {
	device, before, err := changeScope(c)
	if err != nil {
		return err
	}

	feed, err := s.svc.Changes(c.UserContext(), device, before)
	if err != nil {
		return err
	}
	return c.JSON(feed)
}

// changeScope reads the device and before marker; "all" and -1 mean
// unscoped and unpaginated.
func changeScope(c *fiber.Ctx) (string, int64, error) {
	device := c.Params("device", "all")
	if device == "all" {
		device = ""
	}

	before := int64(-1)
	if raw := c.Params("before"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return "", 0, apperr.New(apperr.ErrValidation, "before must be an integer")
		}
		before = v
	}
	return device, before, nil
}

func (s *Server) addBuild(c *fiber.Ctx) error {
	rom, res := decodeRom(c.Body())
	if res != nil {
		return c.Status(res.status).JSON(res.body)
	}
	if err := s.svc.AddRom(c.UserContext(), rom); err != nil {
		return rejectInvalid(c, err)
	}
	return c.SendString("ok")
}

func (s *Server) addIncremental(c *fiber.Ctx) error {
	inc, res := decodeIncremental(c.Body())
	if res != nil {
		return c.Status(res.status).JSON(res.body)
	}
	if err := s.svc.AddIncremental(c.UserContext(), inc); err != nil {
		return rejectInvalid(c, err)
	}
	return c.SendString("ok")
}

// rejectInvalid answers model validation failures with 406 like the
// payload checks; other errors go to the error handler.
func rejectInvalid(c *fiber.Ctx, err error) error {
	var ae *apperr.AppError
	if errors.As(err, &ae) && ae.Code == apperr.ErrValidation {
		return c.Status(fiber.StatusNotAcceptable).JSON(fiber.Map{"error": ae.Message})
	}
	return err
}

func (s *Server) deleteRom(c *fiber.Ctx) error {
	if err := s.svc.DeleteRoms(c.UserContext(), c.Params("filename")); err != nil {
		return err
	}
	c.Status(fiber.StatusOK)
	return nil
}

func (s *Server) deleteIncremental(c *fiber.Ctx) error {
	if err := s.svc.DeleteIncrementals(c.UserContext(), c.Params("filename")); err != nil {
		return err
	}
	c.Status(fiber.StatusOK)
	return nil
}

func (s *Server) purgeCache(c *fiber.Ctx) error {
	s.svc.PurgeCache()
	return c.SendString("ok")
}
