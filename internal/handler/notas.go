package handler

import (
	"net/http"

	"notaentrada/internal/apierror"
	"notaentrada/internal/dto"
	"notaentrada/internal/middleware"
	"notaentrada/internal/service"

	"github.com/gin-gonic/gin"
)

type NotasHandler struct {
	svc    service.NoteService
	triage service.TriageService
}

func NewNotasHandler(svc service.NoteService, triage service.TriageService) *NotasHandler {
	return &NotasHandler{svc: svc, triage: triage}
}

// Criar godoc
// @Summary      Registrar nota de entrada
// @Description  Cria a nota com status Open; o departamento inicial depende do tipo de pagamento.
// @Tags         notas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateNoteRequest true "Dados da nota"
// @Success      201  {object} dto.NoteResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/notas [post]
func (h *NotasHandler) Criar(c *gin.Context) {
	var req dto.CreateNoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateNote(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar notas
// @Tags         notas
// @Produce      json
// @Security     BearerAuth
// @Param        status   query string false "Status da nota"
// @Param        actuator query string false "Stock | Finance | Closed"
// @Param        supplier query string false "Fornecedor (busca parcial)"
// @Param        urgent   query bool   false "Somente urgentes"
// @Param        page     query int    false "Página (default 1)"
// @Param        limit    query int    false "Registros por página (default 20)"
// @Success      200 {object} dto.NoteListResponse
// @Router       /v1/notas [get]
func (h *NotasHandler) Listar(c *gin.Context) {
	var filter dto.NoteFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetros inválidos: "+err.Error()))
		return
	}
	if err := validate.Struct(filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetros de paginação inválidos"))
		return
	}
	resp, err := h.svc.ListNotes(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObterPorID godoc
// @Summary      Obter nota
// @Tags         notas
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "Número da nota (NE-AAAA-NNNNN)"
// @Success      200 {object} dto.NoteResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/notas/{id} [get]
func (h *NotasHandler) ObterPorID(c *gin.Context) {
	resp, err := h.svc.GetNote(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Timeline godoc
// @Summary      Linha do tempo da nota (mais recente primeiro)
// @Tags         notas
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "Número da nota"
// @Success      200 {array} dto.TimelineEventResponse
// @Router       /v1/notas/{id}/timeline [get]
func (h *NotasHandler) Timeline(c *gin.Context) {
	resp, err := h.svc.GetTimeline(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Despachar godoc
// @Summary      Encaminhar nota ao departamento responsável
// @Tags         notas
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "Número da nota"
// @Success      200 {object} dto.NoteResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/notas/{id}/dispatch [post]
func (h *NotasHandler) Despachar(c *gin.Context) {
	resp, err := h.svc.Dispatch(c.Request.Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarPagamento godoc
// @Summary      Registrar pagamento
// @Description  Antes da conferência libera a nota ao estoque; após a triagem quita o saldo.
// @Tags         notas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                     true "Número da nota"
// @Param        body body dto.RegisterPaymentRequest true "Pagamento"
// @Success      200  {object} dto.NoteResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/notas/{id}/pagamentos [post]
func (h *NotasHandler) RegistrarPagamento(c *gin.Context) {
	var req dto.RegisterPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegisterPayment(c.Request.Context(), c.Param("id"), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AdicionarProdutos godoc
// @Summary      Cadastrar linhas de produto
// @Tags         conferencia
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                     true "Número da nota"
// @Param        body body dto.AddProductLinesRequest true "Linhas"
// @Success      200  {object} dto.NoteResponse
// @Router       /v1/notas/{id}/produtos [post]
func (h *NotasHandler) AdicionarProdutos(c *gin.Context) {
	var req dto.AddProductLinesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddProductLines(c.Request.Context(), c.Param("id"), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Explodir godoc
// @Summary      Explodir linha em unidades
// @Tags         conferencia
// @Produce      json
// @Security     BearerAuth
// @Param        id     path string true "Número da nota"
// @Param        lineId path string true "Linha a explodir"
// @Success      200 {object} dto.NoteResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/notas/{id}/produtos/{lineId}/explode [post]
func (h *NotasHandler) Explodir(c *gin.Context) {
	resp, err := h.svc.ExplodeLine(c.Request.Context(), c.Param("id"), c.Param("lineId"), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reagrupar godoc
// @Summary      Reagrupar unidades explodidas
// @Tags         conferencia
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Número da nota"
// @Param        body body dto.CollapseLinesRequest true "Linha de origem"
// @Success      200  {object} dto.NoteResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/notas/{id}/produtos/collapse [post]
func (h *NotasHandler) Reagrupar(c *gin.Context) {
	var req dto.CollapseLinesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CollapseLines(c.Request.Context(), c.Param("id"), req.ParentLineID, middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// InformarCampos godoc
// @Summary      Informar IMEI, cor e categoria de um aparelho
// @Description  IMEI duplicado não falha: a linha fica marcada e a resposta indica onde o IMEI já existe.
// @Tags         conferencia
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path string                  true "Número da nota"
// @Param        lineId path string                  true "Linha"
// @Param        body   body dto.SubmitFieldsRequest true "Campos"
// @Success      200    {object} dto.SubmitFieldsResponse
// @Router       /v1/notas/{id}/produtos/{lineId}/campos [put]
func (h *NotasHandler) InformarCampos(c *gin.Context) {
	var req dto.SubmitFieldsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SubmitFieldsForLine(c.Request.Context(), c.Param("id"), c.Param("lineId"), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Conferir godoc
// @Summary      Confirmar conferência de linhas
// @Tags         conferencia
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                       true "Número da nota"
// @Param        body body dto.ConfirmConferenceRequest true "Linhas conferidas"
// @Success      200  {object} dto.NoteResponse
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/notas/{id}/conferencia [post]
func (h *NotasHandler) Conferir(c *gin.Context) {
	var req dto.ConfirmConferenceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ConfirmConference(c.Request.Context(), c.Param("id"), middleware.Actor(c), req.LineIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Migrar godoc
// @Summary      Migrar unidades conferidas ao estoque
// @Description  Novos vão para venda, seminovos para aparelhos pendentes. Repetir a chamada não duplica nada.
// @Tags         conferencia
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "Número da nota"
// @Success      200 {object} dto.MigrationResult
// @Router       /v1/notas/{id}/migracao [post]
func (h *NotasHandler) Migrar(c *gin.Context) {
	resp, err := h.svc.MigrateConferredByCategory(c.Request.Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Triar godoc
// @Summary      Triagem das unidades conferidas
// @Tags         triagem
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string            true "Número da nota"
// @Param        body body dto.TriageRequest true "Decisões por produto"
// @Success      200  {object} dto.TriageResult
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/notas/{id}/triagem [post]
func (h *NotasHandler) Triar(c *gin.Context) {
	var req dto.TriageRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.triage.Triage(c.Request.Context(), c.Param("id"), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConsultarIMEI godoc
// @Summary      Verificar se um IMEI já está registrado
// @Tags         conferencia
// @Produce      json
// @Security     BearerAuth
// @Param        imei path string true "IMEI (15 dígitos)"
// @Success      200  {object} dto.UniqueResult
// @Failure      422  {object} apierror.APIError
// @Router       /v1/imei/{imei} [get]
func (h *NotasHandler) ConsultarIMEI(c *gin.Context) {
	resp, err := h.svc.CheckIMEI(c.Request.Context(), c.Param("imei"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
