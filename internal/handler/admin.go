package handler

import (
	"net/http"
	"strconv"

	"notaentrada/internal/apierror"
	"notaentrada/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type AdminHandler struct{ rdb *redis.Client }

func NewAdminHandler(rdb *redis.Client) *AdminHandler { return &AdminHandler{rdb: rdb} }

var knownQueues = map[string]string{
	"finance": worker.QueueFinance,
	"repair":  worker.QueueRepair,
}

// ReenfileirarDLQ godoc
// @Summary      Reenfileirar jobs da dead letter queue
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        queue path  string true  "finance | repair"
// @Param        max   query int    false "Máximo de jobs (default 100)"
// @Success      200 {object} map[string]int
// @Router       /v1/admin/dlq/{queue}/requeue [post]
func (h *AdminHandler) ReenfileirarDLQ(c *gin.Context) {
	queue, ok := knownQueues[c.Param("queue")]
	if !ok {
		c.JSON(http.StatusNotFound, apierror.New("Fila desconhecida"))
		return
	}
	max := 100
	if v := c.Query("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, apierror.New("Parâmetro max inválido"))
			return
		}
		max = n
	}
	moved, err := worker.RequeueDLQ(c.Request.Context(), h.rdb, queue, max)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao reenfileirar jobs"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": moved})
}
