package server

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
)

const siteTitle = "Updater"

// romView is a full build as rendered on the device page.
type romView struct {
	RomType  string
	Sticky   bool
	Version  string
	URL      string
	Filename string
	Size     string
	Date     string
	MD5Sum   string
}

// render fills the bindings every page shares before rendering name
// inside the layout.
func (s *Server) render(c *fiber.Ctx, name string, bind fiber.Map) error {
	index, err := s.svc.DeviceIndex(c.UserContext())
	if err != nil {
		return err
	}

	page := fiber.Map{
		"Title":        siteTitle,
		"Changelog":    false,
		"Extras":       false,
		"ActiveOEM":    "",
		"ActiveDevice": nil,
		"Devices":      index.Devices,
		"OEMs":         index.OEMs,
	}
	for k, v := range bind {
		page[k] = v
	}
	return c.Render(name, page)
}

func (s *Server) changelogPage(c *fiber.Ctx) error {
	device, before, err := changeScope(c)
	if err != nil {
		return err
	}
	if device == "" {
		device = "all"
	}

	title := siteTitle + " Changelog"
	if device != "all" {
		title = siteTitle + " Changelog: " + device
	}
	return s.render(c, "changes", fiber.Map{
		"Title":     title,
		"Changelog": true,
		"Device":    device,
		"Before":    strconv.FormatInt(before, 10),
	})
}

func (s *Server) extrasPage(c *fiber.Ctx) error {
	return s.render(c, "extras", fiber.Map{
		"Title":  siteTitle + " Extras",
		"Extras": true,
	})
}

func (s *Server) devicePage(c *fiber.Ctx) error {
	model := c.Params("device")

	roms, err := s.svc.DeviceBuilds(c.UserContext(), model)
	if err != nil {
		return err
	}
	device, err := s.svc.Device(c.UserContext(), model)
	if err != nil {
		return err
	}

	views := make([]romView, 0, len(roms))
	for _, rom := range roms {
		size := "unknown"
		if rom.Size > 0 {
			size = humanize.Bytes(uint64(rom.Size))
		}
		views = append(views, romView{
			RomType:  rom.RomType,
			Sticky:   rom.Sticky,
			Version:  rom.Version,
			URL:      s.svc.DownloadURL(rom.Artifact),
			Filename: rom.Filename,
			Size:     size,
			Date:     rom.CreatedAt.UTC().Format("2006-01-02"),
			MD5Sum:   rom.MD5Sum,
		})
	}

	bind := fiber.Map{
		"Title":  siteTitle + ": " + model,
		"Device": model,
		"Roms":   views,
	}
	if device != nil {
		bind["Title"] = siteTitle + ": " + device.Name
		bind["ActiveDevice"] = device
		bind["ActiveOEM"] = device.OEM
	}
	return s.render(c, "device", bind)
}
