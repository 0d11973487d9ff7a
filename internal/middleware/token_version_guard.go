package middleware

import (
	"errors"
	"net/http"

	"foodorder/internal/repository"

	"github.com/labstack/echo/v4"
)

// AuthJWTの後ろに置く。DBのユーザーとトークンを突き合わせる。
//   - ユーザーが消えている / 停止中 => 401
//   - tvが古い（ログアウト済み）=> 401
//   - roleはDBの値で上書きする（権限変更をトークン期限前に反映）
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, okID := c.Get(CtxUserIDKey).(int64)
			tv, okTV := c.Get(CtxTokenVersionKey).(int)
			if !okID || !okTV || userID <= 0 || tv < 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			user, err := userRepo.FindByID(c.Request().Context(), userID)
			if errors.Is(err, repository.ErrNotFound) || (err == nil && user == nil) {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if err != nil {
				return c.JSON(http.StatusInternalServerError, errorJSON("db error"))
			}

			if !user.IsActive {
				return c.JSON(http.StatusUnauthorized, errorJSON("account disabled"))
			}
			if user.TokenVersion != tv {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxUserRoleKey, string(user.Role))
			return next(c)
		}
	}
}
