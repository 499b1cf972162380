package prompt

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	model "github.com/zhouzirui/bug-fixer/backend/internal/model/prompt"
	builder "github.com/zhouzirui/bug-fixer/backend/internal/service/prompt"
	"github.com/zhouzirui/bug-fixer/backend/pkg/utils"
)

// Handler 提示词模块的HTTP处理器
type Handler struct {
	modules model.Store
}

// New 创建提示词处理器
func New(modules model.Store) *Handler {
	return &Handler{
		modules: modules,
	}
}

// RegisterRoutes 注册提示词相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/modules", h.handleListModules)
	r.Get("/modules/{moduleID}", h.handleGetModule)
	r.Post("/prompt/preview", h.handlePreview)
}

// handleListModules 按拼接顺序列出所有模块
func (h *Handler) handleListModules(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.modules.List())
}

func (h *Handler) handleGetModule(w http.ResponseWriter, r *http.Request) {
	module, ok := h.modules.FindByID(chi.URLParam(r, "moduleID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "module not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, module)
}

// handlePreview 返回发送给模型的完整提示词，不调用模型
func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}

	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"prompt": builder.Build(payload.Content),
	})
}
