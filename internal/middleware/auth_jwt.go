package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"foodorder/internal/config"
	"foodorder/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
)

var (
	errMissingExp  = errors.New("missing exp")
	errInvalidSub  = errors.New("invalid sub")
	errInvalidRole = errors.New("invalid role")
	errInvalidTV   = errors.New("invalid tv")
)

// アクセストークンから取り出す値（auth.JWTIssuerが発行したもの）
type accessClaims struct {
	UserID       int64
	Role         model.Role
	TokenVersion int
}

// Authorization: Bearer <token> を検証して、user_id / role / tv をcontextに入れる。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	secret := []byte(cfg.JWTSecret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			ac, err := parseAccessToken(parser, secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxUserIDKey, ac.UserID)
			c.Set(CtxUserRoleKey, string(ac.Role))
			c.Set(CtxTokenVersionKey, ac.TokenVersion)

			return next(c)
		}
	}
}

// "Bearer xxx" からトークン部分を抜く（大文字小文字は問わない）
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// 署名・期限を検証してclaimsを取り出す。HS256以外は受け付けない
func parseAccessToken(parser *jwt.Parser, secret []byte, raw string) (accessClaims, error) {
	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}); err != nil {
		return accessClaims{}, err
	}

	//期限なしのトークンは発行していない
	if _, ok := claims["exp"]; !ok {
		return accessClaims{}, errMissingExp
	}

	userID, err := parseUserID(claims["sub"])
	if err != nil || userID <= 0 {
		return accessClaims{}, errInvalidSub
	}

	roleStr, _ := claims["role"].(string)
	role := model.Role(roleStr)
	if role != model.RoleUser && role != model.RoleAdmin {
		return accessClaims{}, errInvalidRole
	}

	tv, err := parseInt(claims["tv"])
	if err != nil || tv < 0 {
		return accessClaims{}, errInvalidTV
	}

	return accessClaims{UserID: userID, Role: role, TokenVersion: tv}, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// subは文字列で発行しているが、数値でも受ける
func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errInvalidSub
	}
}

func parseInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case string:
		i64, err := strconv.ParseInt(t, 10, 32)
		if err != nil {
			return 0, err
		}
		return int(i64), nil
	default:
		return 0, errInvalidTV
	}
}
