package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cardocs/internal/expiry"
	"cardocs/internal/model"
	"cardocs/internal/registry"
	"cardocs/internal/service"
)

// documentView is a stored record plus its live expiration badge.
type documentView struct {
	model.Document
	expiry.Classification
}

func newDocumentView(cls *expiry.Classifier, doc model.Document) documentView {
	// A record with an unusable date comes back as StatusUnknown.
	c, _ := cls.ClassifyDocument(doc)
	return documentView{Document: doc, Classification: c}
}

func newDocumentViews(cls *expiry.Classifier, docs []model.Document) []documentView {
	out := make([]documentView, 0, len(docs))
	for _, d := range docs {
		out = append(out, newDocumentView(cls, d))
	}
	return out
}

// ListDocuments returns the full collection with a classification per record.
func ListDocuments(reg registry.Registry, cls *expiry.Classifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := reg.ListDocuments(c.UserContext())
		if err != nil {
			return respondError(c, err, "document not found")
		}
		return c.JSON(fiber.Map{"items": newDocumentViews(cls, docs), "total": len(docs)})
	}
}

// AddDocument accepts JSON or form-encoded {title, date, type}.
func AddDocument(reg registry.Registry, cls *expiry.Classifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.AddDocumentInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be JSON or a form with title, date and type")
		}

		doc, err := reg.AddDocument(c.UserContext(), in)
		if err != nil {
			return respondError(c, err, "document not found")
		}
		return c.Status(fiber.StatusCreated).JSON(newDocumentView(cls, *doc))
	}
}

// GetDocument returns one record by ID.
func GetDocument(reg registry.Registry, cls *expiry.Classifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := reg.GetDocument(c.UserContext(), id)
		if err != nil {
			return respondError(c, err, "document not found")
		}
		return c.JSON(newDocumentView(cls, *doc))
	}
}

// DeleteDocument removes one record by ID.
func DeleteDocument(reg registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := reg.DeleteDocument(c.UserContext(), id); err != nil {
			return respondError(c, err, "document not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
