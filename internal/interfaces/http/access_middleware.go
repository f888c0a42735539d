package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Alquiler-api/internal/application/dto"
)

// HeaderBranchID permite a un admin operar sobre otra sucursal del mismo tenant.
const HeaderBranchID = "X-Branch-ID"

// RequireRole permite el paso solo a los roles indicados. Usar DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 401 si el token no trae rol.
//   - 403 si el rol no está en la lista.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		for _, r := range roles {
			if strings.EqualFold(r, role) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code:    "FORBIDDEN",
			Message: "el rol '" + role + "' no tiene acceso a este recurso",
		})
	}
}

// RequireBranch exige una sucursal activa para operar stock.
// Un admin puede fijarla con X-Branch-ID; un vendedor queda atado a la de su token.
func RequireBranch() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if h := strings.TrimSpace(c.Get(HeaderBranchID)); h != "" {
			if !strings.EqualFold(GetRole(c), "admin") && h != GetBranchID(c) {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
					Code:    "BRANCH_FORBIDDEN",
					Message: "solo un admin puede operar en otra sucursal",
				})
			}
			c.Locals(LocalBranchID, h)
		}
		if GetBranchID(c) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Code:    "BRANCH_REQUIRED",
				Message: "sucursal no definida en el token ni en " + HeaderBranchID,
			})
		}
		return c.Next()
	}
}
