// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"saldo/internal/core/security"
	"saldo/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the interface for catalog handlers.
// All catalog handlers must implement these methods.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// DocumentRouteHandler defines the interface for document handlers:
// draft CRUD plus the four transitions.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Confirm(c *gin.Context)
	Receive(c *gin.Context)
	Pay(c *gin.Context)
	Cancel(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
// This eliminates the need to manually wire up routes for each catalog.
//
// Usage:
//
//	repo := catalog_repo.NewProductRepo(cfg.TxManager)
//	service := product.NewService(repo, cfg.TxManager, cfg.Numerator)
//	handler := handlers.NewProductHandler(baseHandler, service)
//	RegisterCatalogRoutes(catalogs.Group("/products"), handler)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	group.GET("", middleware.RequirePermission(security.PermissionRead), handler.List)
	group.POST("", middleware.RequirePermission(security.PermissionCreate), handler.Create)
	group.GET("/:id", middleware.RequirePermission(security.PermissionRead), handler.Get)
	group.PUT("/:id", middleware.RequirePermission(security.PermissionUpdate), handler.Update)
	group.DELETE("/:id", middleware.RequirePermission(security.PermissionDelete), handler.Delete)
	group.POST("/:id/deletion-mark", middleware.RequirePermission(security.PermissionDelete), handler.SetDeletionMark)
}

// RegisterDocumentRoutes registers draft CRUD plus transition routes for
// one document kind. Transitions carry their own permissions; whether a
// transition is valid for the kind and status is the engine's call, not
// the router's.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler) {
	group.GET("", middleware.RequirePermission(security.PermissionRead), handler.List)
	group.POST("", middleware.RequirePermission(security.PermissionCreate), handler.Create)
	group.GET("/:id", middleware.RequirePermission(security.PermissionRead), handler.Get)
	group.PUT("/:id", middleware.RequirePermission(security.PermissionUpdate), handler.Update)
	group.DELETE("/:id", middleware.RequirePermission(security.PermissionDelete), handler.Delete)
	group.POST("/:id/confirm", middleware.RequirePermission(security.PermissionConfirm), handler.Confirm)
	group.POST("/:id/receive", middleware.RequirePermission(security.PermissionReceive), handler.Receive)
	group.POST("/:id/pay", middleware.RequirePermission(security.PermissionPay), handler.Pay)
	group.POST("/:id/cancel", middleware.RequirePermission(security.PermissionCancel), handler.Cancel)
}
