package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"foodorder/internal/domain/model"
	repo "foodorder/internal/repository"
	"foodorder/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserUsecase_GetCurrentUser(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewUserUsecase(users)

	users.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, Email: "alice@example.com"}, nil)
	users.On("FindByID", mock.Anything, int64(8)).Return(nil, repo.ErrNotFound)

	u, err := uc.GetCurrentUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = uc.GetCurrentUser(context.Background(), 8)
	assertHTTPError(t, err, http.StatusNotFound, "user not found")
}

func TestUserUsecase_UpdateCurrentUser(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewUserUsecase(users)

	users.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7}, nil)
	users.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Name == "Alice" && u.AddressLine1 == "1 High Street" && u.City == "London" && u.Country == "UK"
	})).Return(nil)

	u, err := uc.UpdateCurrentUser(context.Background(), 7, usecase.UpdateProfileInput{
		Name:         " Alice ",
		AddressLine1: "1 High Street",
		City:         "London",
		Country:      "UK",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	users.AssertExpectations(t)
}

func TestUserUsecase_UpdateCurrentUser_Required(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewUserUsecase(users)

	_, err := uc.UpdateCurrentUser(context.Background(), 7, usecase.UpdateProfileInput{Name: "Alice", City: "London", Country: "UK"})
	assertHTTPError(t, err, http.StatusBadRequest, "address_line1 required")
	users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}
