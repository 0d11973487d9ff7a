package repository

import "errors"

// 見つからないを統一
var ErrNotFound = errors.New("not found")

// 一意制約違反（同時に同じキーが入った等）
var ErrConflict = errors.New("conflict")
