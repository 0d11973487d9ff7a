package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"foodorder/internal/domain/model"
	repo "foodorder/internal/repository"
)

// /api/my/user の業務ロジック
type UserUsecase struct {
	users repo.UserRepository
}

func NewUserUsecase(users repo.UserRepository) *UserUsecase {
	return &UserUsecase{users: users}
}

type UpdateProfileInput struct {
	Name         string
	AddressLine1 string
	City         string
	Country      string
}

func (u *UserUsecase) GetCurrentUser(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.User{}, NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return *user, nil
}

func (u *UserUsecase) UpdateCurrentUser(ctx context.Context, userID int64, in UpdateProfileInput) (model.User, error) {
	if userID <= 0 {
		return model.User{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	in = UpdateProfileInput{
		Name:         strings.TrimSpace(in.Name),
		AddressLine1: strings.TrimSpace(in.AddressLine1),
		City:         strings.TrimSpace(in.City),
		Country:      strings.TrimSpace(in.Country),
	}
	switch {
	case in.Name == "":
		return model.User{}, NewHTTPError(http.StatusBadRequest, "name required")
	case in.AddressLine1 == "":
		return model.User{}, NewHTTPError(http.StatusBadRequest, "address_line1 required")
	case in.City == "":
		return model.User{}, NewHTTPError(http.StatusBadRequest, "city required")
	case in.Country == "":
		return model.User{}, NewHTTPError(http.StatusBadRequest, "country required")
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.User{}, NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	user.Name = in.Name
	user.AddressLine1 = in.AddressLine1
	user.City = in.City
	user.Country = in.Country
	user.UpdatedAt = time.Now()

	if err := u.users.Update(ctx, user); err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return *user, nil
}
