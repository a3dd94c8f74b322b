package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cardocs/internal/expiry"
	"cardocs/internal/registry"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	DB         *sql.DB
	Registry   registry.Registry
	Classifier *expiry.Classifier
	Reconciler Reconciler
	Gatherer   prometheus.Gatherer
	// OpenAPIPath is the file served at /openapi.yaml.
	OpenAPIPath string
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; business rules live in the services and the registry.
func RegisterRoutes(app *fiber.App, d Deps) {
	openapi := d.OpenAPIPath
	if openapi == "" {
		openapi = "openapi.yaml"
	}
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile(openapi)
	})
	app.Get("/docs", APIDocs())

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	app.Get("/documents", ListDocuments(d.Registry, d.Classifier))
	app.Post("/documents", AddDocument(d.Registry, d.Classifier))
	app.Get("/documents/:id", GetDocument(d.Registry, d.Classifier))
	app.Delete("/documents/:id", DeleteDocument(d.Registry))

	app.Get("/uploads", ListUploads(d.Registry))
	app.Post("/uploads/:category", UploadFile(d.Registry))
	app.Get("/uploads/:id/download", DownloadUpload(d.Registry))
	app.Delete("/uploads/:id", RemoveUpload(d.Registry))

	app.Get("/dashboard", Dashboard(d.Registry, d.Classifier))

	app.Get("/reconcile", CheckReconcile(d.Reconciler))
	app.Post("/reconcile", SweepReconcile(d.Reconciler))
}
