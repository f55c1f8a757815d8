package middleware

import (
	"strings"

	basehdl "tpos_commerce/internal/api/base/handler"
	"tpos_commerce/core/common"
	"tpos_commerce/core/utility"

	"github.com/gofiber/fiber/v3"
)

// FirebaseAuth là middleware xác thực bằng Firebase ID token.
// Token lấy từ header Authorization: Bearer <idToken>; verify thành công
// thì uid được gắn vào context cho các handler phía sau.
func FirebaseAuth() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return basehdl.HandleResponse(c, nil, common.ErrTokenMissing)
		}

		idToken := strings.TrimPrefix(authHeader, "Bearer ")
		if idToken == authHeader || idToken == "" {
			return basehdl.HandleResponse(c, nil, common.ErrTokenInvalid)
		}

		token, err := utility.VerifyIDToken(c.Context(), idToken)
		if err != nil {
			return basehdl.HandleResponse(c, nil, common.ErrTokenInvalid)
		}

		c.Locals("uid", token.UID)
		return c.Next()
	}
}
