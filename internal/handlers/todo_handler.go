package handlers

import (
	"todoapp/internal/apperrors"
	"todoapp/internal/logging"
	"todoapp/internal/middleware"
	"todoapp/internal/models"
	"todoapp/internal/services"
	"todoapp/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// TodoHandler handles HTTP requests for todos. All routes expect
// middleware.AuthRequired to have run.
type TodoHandler struct {
	service  *services.TodoService
	validate *validation.Validator
	logger   logging.Logger
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(service *services.TodoService, logger logging.Logger) *TodoHandler {
	return &TodoHandler{
		service:  service,
		validate: validation.New(),
		logger:   logger,
	}
}

// RegisterRoutes registers the todo routes behind requireAuth.
func (h *TodoHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	todoRoutes := router.Group("/todos", requireAuth)
	todoRoutes.Post("/", h.HandleCreateTodo)
	todoRoutes.Get("/", h.HandleListTodos)
	todoRoutes.Get("/:id", h.HandleGetTodo)
	todoRoutes.Put("/:id", h.HandleUpdateTodo)
	todoRoutes.Delete("/:id", h.HandleDeleteTodo)
}

func userID(c *fiber.Ctx) string {
	if user := middleware.CurrentUser(c); user != nil {
		return user.ID
	}
	return ""
}

// HandleCreateTodo creates a todo owned by the caller.
func (h *TodoHandler) HandleCreateTodo(c *fiber.Ctx) error {
	var req services.CreateTodoInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, h.logger, err, "Validation failed")
	}

	todo, err := h.service.Create(c.UserContext(), userID(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "Could not create todo")
	}
	return c.Status(fiber.StatusCreated).JSON(todo)
}

// HandleListTodos lists the caller's todos, optionally filtered by ?status=.
func (h *TodoHandler) HandleListTodos(c *fiber.Ctx) error {
	var status *models.TodoStatus
	if raw := c.Query("status"); raw != "" {
		s := models.TodoStatus(raw)
		if !s.Valid() {
			return respondError(c, h.logger, apperrors.Validation("Validation failed", map[string]string{
				"status": "Field 'status' must be one of [PENDING IN_PROGRESS DONE]",
			}), "")
		}
		status = &s
	}

	todos, err := h.service.List(c.UserContext(), userID(c), status)
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve todos")
	}
	return c.JSON(todos)
}

// HandleGetTodo returns one of the caller's todos.
func (h *TodoHandler) HandleGetTodo(c *fiber.Ctx) error {
	todo, err := h.service.Get(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve todo")
	}
	return c.JSON(todo)
}

// HandleUpdateTodo applies a partial update to one of the caller's todos.
func (h *TodoHandler) HandleUpdateTodo(c *fiber.Ctx) error {
	var patch models.TodoPatch
	if err := c.BodyParser(&patch); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(patch); err != nil {
		return respondError(c, h.logger, err, "Validation failed")
	}

	todo, err := h.service.Update(c.UserContext(), userID(c), c.Params("id"), patch)
	if err != nil {
		return respondError(c, h.logger, err, "Could not update todo")
	}
	return c.JSON(todo)
}

// HandleDeleteTodo deletes one of the caller's todos.
func (h *TodoHandler) HandleDeleteTodo(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), userID(c), id); err != nil {
		return respondError(c, h.logger, err, "Could not delete todo")
	}
	return c.JSON(fiber.Map{
		"message": "Todo " + id + " deleted successfully",
	})
}
