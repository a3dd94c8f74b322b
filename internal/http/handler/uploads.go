package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cardocs/internal/model"
	"cardocs/internal/registry"
	"cardocs/internal/service"
)

// ListUploads returns every uploaded file's metadata.
func ListUploads(reg registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		files, err := reg.ListUploadedFiles(c.UserContext())
		if err != nil {
			return respondError(c, err, "upload not found")
		}
		return c.JSON(fiber.Map{"items": files, "total": len(files)})
	}
}

// UploadFile stores the multipart field "file" under the category in the path.
func UploadFile(reg registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		rec, err := reg.UploadFile(c.UserContext(), service.UploadInput{
			Category:    model.Category(c.Params("category")),
			Name:        fh.Filename,
			Content:     f,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		})
		if err != nil {
			return respondError(c, err, "upload not found")
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// RemoveUpload deletes the metadata and, when unshared, the binary.
func RemoveUpload(reg registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := reg.RemoveUploadedFile(c.UserContext(), id); err != nil {
			return respondError(c, err, "upload not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DownloadUpload redirects to a presigned link for the binary.
func DownloadUpload(reg registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := reg.DownloadURL(c.UserContext(), id)
		if err != nil {
			return respondError(c, err, "upload not found")
		}
		return c.Redirect(u, fiber.StatusFound)
	}
}
