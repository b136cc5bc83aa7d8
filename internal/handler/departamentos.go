package handler

import (
	"net/http"

	"notaentrada/internal/apierror"
	"notaentrada/internal/dto"
	"notaentrada/internal/service"

	"github.com/gin-gonic/gin"
)

type DepartamentosHandler struct{ svc service.DepartmentService }

func NewDepartamentosHandler(svc service.DepartmentService) *DepartamentosHandler {
	return &DepartamentosHandler{svc: svc}
}

// ListarEstoque godoc
// @Summary      Unidades migradas ao estoque
// @Tags         estoque
// @Produce      json
// @Security     BearerAuth
// @Param        destination query string false "Sellable | PendingDevices"
// @Param        note_id     query string false "Nota de origem"
// @Param        page        query int    false "Página (default 1)"
// @Param        limit       query int    false "Registros por página (default 20)"
// @Success      200 {object} dto.StockListResponse
// @Router       /v1/estoque [get]
func (h *DepartamentosHandler) ListarEstoque(c *gin.Context) {
	var filter dto.StockFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetros inválidos: "+err.Error()))
		return
	}
	if err := validate.Struct(filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetros de paginação inválidos"))
		return
	}
	resp, err := h.svc.ListStock(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// NotaDeCredito godoc
// @Summary      Nota de crédito emitida na triagem
// @Tags         financeiro
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "Número da nota"
// @Success      200 {object} dto.CreditNoteResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/notas/{id}/nota-credito [get]
func (h *DepartamentosHandler) NotaDeCredito(c *gin.Context) {
	resp, err := h.svc.GetCreditNote(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LoteAssistencia godoc
// @Summary      Lote enviado à assistência
// @Tags         assistencia
// @Produce      json
// @Security     BearerAuth
// @Param        batchId path string true "Identificador do lote"
// @Success      200 {object} dto.RepairBatch
// @Failure      404 {object} apierror.APIError
// @Router       /v1/assistencia/lotes/{batchId} [get]
func (h *DepartamentosHandler) LoteAssistencia(c *gin.Context) {
	resp, err := h.svc.GetRepairBatch(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
