package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, importHandler *ImportHandler, inventoryHandler *InventoryHandler) {
	v1 := server.Group("/api/v1")

	v1.POST("/imports/inventory", importHandler.SubmitInventoryImport)
	v1.GET("/imports/:id", importHandler.GetImportStatus)

	v1.GET("/inventory/:articleNumber", inventoryHandler.GetItem)
	v1.DELETE("/inventory/:articleNumber", inventoryHandler.DeleteItem)
	v1.POST("/inventory/:articleNumber/restore", inventoryHandler.RestoreItem)
}
