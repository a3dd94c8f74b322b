package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"cardocs/internal/reconcile"
)

// Reconciler compares storage with upload metadata.
type Reconciler interface {
	Check(ctx context.Context) (reconcile.Report, error)
	Sweep(ctx context.Context) (reconcile.Report, error)
}

// CheckReconcile reports orphan blobs and dangling records without changing anything.
func CheckReconcile(rec Reconciler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rep, err := rec.Check(c.UserContext())
		if err != nil {
			return writeEnvelope(c, fiber.StatusServiceUnavailable, errorEnvelope{
				Code: "STORE_UNAVAILABLE", Message: "storage backend unavailable", Retryable: true,
			})
		}
		return c.JSON(rep)
	}
}

// SweepReconcile deletes orphan blobs and reports what was removed.
func SweepReconcile(rec Reconciler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rep, err := rec.Sweep(c.UserContext())
		if err != nil {
			return writeEnvelope(c, fiber.StatusServiceUnavailable, errorEnvelope{
				Code: "STORE_UNAVAILABLE", Message: "storage backend unavailable", Retryable: true,
			})
		}
		return c.JSON(rep)
	}
}
