// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carrental/internal/http/handlers"
	"carrental/internal/http/middleware"
)

func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(s.log), middleware.Logging(s.log), middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.Actor(false))

	charges := handlers.NewChargesHandler(s.settlement)
	api.POST("/charges/quote", charges.Quote)
	api.POST("/charges/deposit", charges.Deposit)

	agreements := handlers.NewAgreementHandler(s.settlement, s.agreement)
	api.GET("/agreements/:id/settlement", agreements.Settlement)
	api.GET("/agreements/:id/pricing", agreements.Pricing)

	costsheets := handlers.NewCostSheetHandler(s.costsheet)
	api.POST("/quotes/:id/cost-sheets", costsheets.Recalculate)
	api.GET("/quotes/:id/cost-sheets/approved", costsheets.LatestApproved)
	api.GET("/quotes/:id/vehicle-changes", costsheets.VehicleChanges)
	decisions := api.Group("/cost-sheets", middleware.Actor(true))
	decisions.POST("/:id/submit", costsheets.Submit)
	decisions.POST("/:id/approve", costsheets.Approve)
	decisions.POST("/:id/reject", costsheets.Reject)

	bills := handlers.NewBillingHandler(s.billing)
	api.POST("/contracts/:id/billing/preview", bills.Preview)
	api.POST("/contracts/:id/billing/generate", bills.Generate)
	api.POST("/billing-cycles/:id/finalize", bills.Finalize)
	api.POST("/billing-cycles/:id/invoice", bills.Invoice)
	api.POST("/billing/batch", bills.Batch)

	return r
}
