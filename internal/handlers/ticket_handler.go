package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/passagemingresso/pagseguro-gateway/internal/models"
	"github.com/passagemingresso/pagseguro-gateway/internal/services"
)

// TicketHandler serves the ticket-access page buyers land on after payment.
type TicketHandler struct {
	orders    PlatformGateway
	qrService *services.QRService
}

func NewTicketHandler(orders PlatformGateway, qrService *services.QRService) *TicketHandler {
	return &TicketHandler{
		orders:    orders,
		qrService: qrService,
	}
}

// AccessTickets returns the order behind an access token. Requests on the
// shared tickets endpoint that are not ticket access are ignored.
func (h *TicketHandler) AccessTickets(c *gin.Context) {
	if c.Query("ingresso_action") != "access_tickets" {
		c.Status(http.StatusNoContent)
		return
	}

	accessToken := c.Query("ingresso_access_token")
	if accessToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Access token is required"})
		return
	}

	order, err := h.orders.GetOrderByAccessToken(accessToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tickets not found"})
		return
	}

	items := make([]gin.H, len(order.Items))
	for i, item := range order.Items {
		items[i] = gin.H{
			"name":       item.Name,
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"event":    order.Event.Name,
		"status":   order.Status,
		"currency": order.Currency,
		"total":    order.Total,
		"items":    items,
		"qr_pdf":   fmt.Sprintf("/api/v1/tickets/%s/qr.pdf", order.AccessToken),
	})
}

// TicketQRPDF renders the door QR code for a completed order as a PDF.
func (h *TicketHandler) TicketQRPDF(c *gin.Context) {
	accessToken := c.Param("access_token")

	order, err := h.orders.GetOrderByAccessToken(accessToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tickets not found"})
		return
	}

	if order.Status != models.StatusCompleted {
		c.JSON(http.StatusForbidden, gin.H{"error": "Payment not completed"})
		return
	}

	pdf, err := h.qrService.GenerateTicketQRPDF(order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate ticket PDF"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=ticket.pdf")
	c.Data(http.StatusOK, "application/pdf", pdf)
}
