package router

import (
	"github.com/gin-gonic/gin"
	"github.com/trainhub/backend/internal/domain/identity"
	"github.com/trainhub/backend/internal/interfaces/http/handler"
	"github.com/trainhub/backend/internal/interfaces/http/middleware"
)

// Handlers are the API handlers mounted by the domain groups
type Handlers struct {
	Invoice  *handler.InvoiceHandler
	Payment  *handler.PaymentHandler
	Costing  *handler.CostingHandler
	Income   *handler.IncomeHandler
	Overview *handler.OverviewHandler
	Session  *handler.SessionHandler
	System   *handler.SystemHandler
}

// routeGuard builds capability checks that share one denial config
type routeGuard struct {
	cfg middleware.PermissionConfig
}

func (g routeGuard) require(caps ...identity.Capability) gin.HandlerFunc {
	return middleware.RequireCapabilityWithConfig(g.cfg, caps...)
}

// FinanceRoutes mounts invoices, payments, costing, income and the overview
// endpoints under /finance. Income views carry no route guard: the income
// service lets a person read their own records and checks capabilities for
// everyone else.
func FinanceRoutes(h Handlers, perm middleware.PermissionConfig) *DomainGroup {
	g := routeGuard{cfg: perm}
	finance := NewDomainGroup("finance", "/finance")

	finance.GET("/invoices", g.require(identity.CapInvoiceRead), h.Invoice.ListInvoices)
	finance.GET("/invoices/:id", g.require(identity.CapInvoiceRead), h.Invoice.GetInvoice)
	finance.PUT("/invoices/:id", g.require(identity.CapInvoiceWrite), h.Invoice.UpdateInvoice)
	finance.POST("/invoices/:id/approve", g.require(identity.CapInvoiceApprove), h.Invoice.ApproveInvoice)
	finance.POST("/invoices/:id/issue", g.require(identity.CapInvoiceIssue), h.Invoice.IssueInvoice)
	finance.POST("/invoices/:id/cancel", g.require(identity.CapInvoiceCancel), h.Invoice.CancelInvoice)

	finance.GET("/payments", g.require(identity.CapPaymentRead), h.Payment.ListPayments)
	finance.POST("/payments", g.require(identity.CapPaymentWrite), h.Payment.RecordPayment)

	session := finance.Group("session", "/session/:id")
	session.POST("/invoice", g.require(identity.CapInvoiceWrite), h.Invoice.CreateSessionInvoice)
	session.GET("/costing", g.require(identity.CapCostingRead), h.Costing.GetSessionCosting)
	session.PUT("/trainer-fees", g.require(identity.CapCostingWrite), h.Costing.SaveTrainerFees)
	session.PUT("/coordinator-fee", g.require(identity.CapCostingWrite), h.Costing.SaveCoordinatorFee)
	session.PUT("/expenses", g.require(identity.CapCostingWrite), h.Costing.SaveExpenses)
	session.PUT("/marketing", g.require(identity.CapCostingWrite), h.Costing.SaveMarketing)
	finance.GET("/expense-categories", g.require(identity.CapCostingRead), h.Costing.ListExpenseCategories)

	income := finance.Group("income", "/income")
	income.GET("/trainer/:id", h.Income.GetTrainerIncome)
	income.GET("/coordinator/:id", h.Income.GetCoordinatorIncome)
	income.GET("/marketing/:id", h.Income.GetMarketingIncome)
	income.POST("/trainer/:id/mark-paid", g.require(identity.CapPayableMarkPaid), h.Income.MarkTrainerIncomePaid)
	income.POST("/coordinator/:id/mark-paid", g.require(identity.CapPayableMarkPaid), h.Income.MarkCoordinatorFeePaid)
	income.POST("/commission/:id/mark-paid", g.require(identity.CapPayableMarkPaid), h.Income.MarkCommissionPaid)

	finance.GET("/dashboard", g.require(identity.CapDashboardRead), h.Overview.GetDashboard)
	finance.GET("/audit-log", g.require(identity.CapAuditRead), h.Overview.ListAuditLog)
	finance.GET("/marketing-users", g.require(identity.CapUserReadMarketing), h.Overview.ListMarketingUsers)

	return finance
}

// TrainingRoutes mounts the training session endpoints under /training
func TrainingRoutes(h Handlers, perm middleware.PermissionConfig) *DomainGroup {
	g := routeGuard{cfg: perm}
	training := NewDomainGroup("training", "/training")
	training.POST("/sessions", g.require(identity.CapSessionCreate), h.Session.CreateSession)
	training.GET("/sessions/:id", g.require(identity.CapSessionRead), h.Session.GetSession)
	return training
}

// SystemRoutes mounts the versioned health and info endpoints
func SystemRoutes(h Handlers) *DomainGroup {
	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	system.GET("/system/info", h.System.GetSystemInfo)
	return system
}
