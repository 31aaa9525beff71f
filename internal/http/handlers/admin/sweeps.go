package admin

import (
	"github.com/imobiliare-next/internal/http/response"
	"github.com/imobiliare-next/internal/queue"

	"github.com/gin-gonic/gin"
)

// RunExpirationSweep 手动触发到期扫描；async=true 且队列可用时改为投递任务
func (h *Handler) RunExpirationSweep(c *gin.Context) {
	if h.enqueueSweep(c, queue.TaskExpirationSweep) {
		return
	}
	result, err := h.ExpirationService.RunSweep(c.Request.Context(), h.now())
	if err != nil {
		respondError(c, response.CodeInternal, "error.sweep_failed", err)
		return
	}
	requestLog(c).Infow("admin_expiration_sweep_done",
		"checked", result.Checked,
		"expired", result.Expired,
		"demoted", result.Demoted,
	)
	response.Success(c, result)
}

// RunCleanupSweep 手动触发媒体清理
func (h *Handler) RunCleanupSweep(c *gin.Context) {
	if h.enqueueSweep(c, queue.TaskCleanupSweep) {
		return
	}
	retention := h.Config.Schedule.CleanupRetention()
	deleted, err := h.CleanupService.RunSweep(c.Request.Context(), h.now(), retention)
	if err != nil {
		respondError(c, response.CodeInternal, "error.sweep_failed", err)
		return
	}
	requestLog(c).Infow("admin_cleanup_sweep_done", "deleted", deleted, "retention", retention.String())
	response.Success(c, gin.H{"deleted": deleted})
}

// enqueueSweep 返回 true 表示已响应
func (h *Handler) enqueueSweep(c *gin.Context, taskType string) bool {
	if c.Query("async") != "true" {
		return false
	}
	if !h.QueueClient.Enabled() {
		respondError(c, response.CodeUnavailable, "error.queue_unavailable", nil)
		return true
	}
	if err := h.QueueClient.EnqueueSweep(c.Request.Context(), taskType, queue.SweepPayload{TriggeredBy: "admin"}); err != nil {
		respondError(c, response.CodeInternal, "error.sweep_failed", err)
		return true
	}
	response.Success(c, gin.H{"queued": true, "task_type": taskType})
	return true
}
