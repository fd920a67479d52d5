package api

import (
	"github.com/gin-gonic/gin"

	"cmsadmin/internal/api/envelope"
	"cmsadmin/internal/database"
	"cmsadmin/internal/service"
)

type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

var userFilters = map[string]queryFilter{
	"name":  textFilter("name"),
	"email": emailFilter("email"),
	"role":  oneOfFilter("role", string(database.RoleAdmin), string(database.RoleUser)),
}

type createUserRequest struct {
	Name               string        `json:"name" binding:"required,max=128"`
	Email              string        `json:"email" binding:"required,email"`
	Password           string        `json:"password" binding:"required,min=8,max=72"`
	Role               database.Role `json:"role" binding:"omitempty,oneof=ADMIN USER"`
	MustChangePassword bool          `json:"mustChangePassword"`
}

type updateUserRequest struct {
	Name     *string        `json:"name" binding:"omitempty,max=128"`
	Email    *string        `json:"email" binding:"omitempty,email"`
	Role     *database.Role `json:"role" binding:"omitempty,oneof=ADMIN USER"`
	Password *string        `json:"password" binding:"omitempty,min=8,max=72"`
}

// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body api.createUserRequest true "Request body"
// @Success 201 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 403 {object} envelope.Body
// @Failure 409 {object} envelope.Body
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	user, err := h.users.Create(c.Request.Context(), service.NewUser{
		Name:               req.Name,
		Email:              req.Email,
		Password:           req.Password,
		Role:               req.Role,
		MustChangePassword: req.MustChangePassword,
	})
	if err != nil {
		fail(c, err)
		return
	}
	envelope.Created(c, "User created successfully", user)
}

// @Summary Get a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Success 200 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "", user)
}

// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param name query string false "Exact name"
// @Param email query string false "Email, case-insensitive"
// @Param role query string false "ADMIN or USER"
// @Success 200 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter, err := parseFilters(c, userFilters)
	if err != nil {
		fail(c, err)
		return
	}
	users, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "", users)
}

// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Param request body api.updateUserRequest true "Request body"
// @Success 200 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 403 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Failure 409 {object} envelope.Body
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req updateUserRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	user, err := h.users.Update(c.Request.Context(), id, service.UserPatch{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "User updated successfully", user)
}

// @Summary Delete a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Success 200 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 403 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "User deleted successfully", nil)
}
