package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-realtime-crud/internal/domain"
	"go-gin-realtime-crud/internal/transport/http/ez"
	"go-gin-realtime-crud/pkg/utils"
)

// UserHandler /api/users 下的 REST 接口
type UserHandler struct {
	svc domain.UserService
	log *zap.Logger
}

func NewUserHandler(svc domain.UserService, l *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: l.Named("UserHandler")}
}

type listQuery struct {
	Limit  string `form:"limit"`
	Offset string `form:"offset"`
}

type countOut struct {
	Count int64 `json:"count"`
}

func (h *UserHandler) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api.Group("/users"), h.log)

	// 固定路径先于 /:id 注册
	ez.RegisterAction(e, ez.Action[struct{}, countOut]{
		Method:  http.MethodGet,
		Path:    "/stats/count",
		Binder:  ez.BindNone,
		Message: "User count retrieved successfully",
		Handler: func(c *gin.Context, _ *struct{}) (countOut, error) {
			n, err := h.svc.GetUserCount(c.Request.Context())
			return countOut{Count: n}, err
		},
	})

	ez.RegisterAction(e, ez.Action[listQuery, []domain.User]{
		Method:  http.MethodGet,
		Path:    "",
		Binder:  ez.BindQuery,
		Message: "Users retrieved successfully",
		Handler: func(c *gin.Context, in *listQuery) ([]domain.User, error) {
			return h.svc.GetAllUsers(c.Request.Context(), utils.Atoi(in.Limit), utils.Atoi(in.Offset))
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
		Method:  http.MethodGet,
		Path:    "/:id",
		Binder:  ez.BindNone,
		Message: "User retrieved successfully",
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.svc.GetUserByID(c.Request.Context(), id)
		},
	})

	ez.RegisterAction(e, ez.Action[domain.CreateUserInput, *domain.User]{
		Method:  http.MethodPost,
		Path:    "",
		Binder:  ez.BindJSON,
		Status:  http.StatusCreated,
		Message: "User created successfully",
		Handler: func(c *gin.Context, in *domain.CreateUserInput) (*domain.User, error) {
			return h.svc.CreateUser(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[map[string]any, *domain.User]{
		Method:  http.MethodPut,
		Path:    "/:id",
		Binder:  ez.BindJSON,
		Message: "User updated successfully",
		Handler: func(c *gin.Context, in *map[string]any) (*domain.User, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.svc.UpdateUser(c.Request.Context(), id, *in)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, any]{
		Method:  http.MethodDelete,
		Path:    "/:id",
		Binder:  ez.BindNone,
		Message: "User deleted successfully",
		Handler: func(c *gin.Context, _ *struct{}) (any, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return nil, h.svc.DeleteUser(c.Request.Context(), id)
		},
	})
}
