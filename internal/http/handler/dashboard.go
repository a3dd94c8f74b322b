package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"cardocs/internal/expiry"
	"cardocs/internal/model"
	"cardocs/internal/registry"
)

type dashboardView struct {
	Documents   []documentView                          `json:"documents"`
	Uploads     map[model.Category][]model.UploadedFile `json:"uploads"`
	RefreshedAt time.Time                               `json:"refreshed_at"`
	Stale       bool                                    `json:"stale"`
	WindowDays  int                                     `json:"window_days"`
}

// Dashboard renders the registry mirror: documents with live badges and
// uploads grouped into the category slots. It never hits the store.
func Dashboard(reg registry.Registry, cls *expiry.Classifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := reg.Snapshot()

		uploads := make(map[model.Category][]model.UploadedFile, len(model.Categories))
		for _, cat := range model.Categories {
			uploads[cat] = []model.UploadedFile{}
		}
		for _, f := range snap.Uploads {
			uploads[f.Category] = append(uploads[f.Category], f)
		}

		return c.JSON(dashboardView{
			Documents:   newDocumentViews(cls, snap.Documents),
			Uploads:     uploads,
			RefreshedAt: snap.RefreshedAt,
			Stale:       snap.Stale,
			WindowDays:  cls.WindowDays,
		})
	}
}
