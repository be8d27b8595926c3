package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"octofit/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Nullable tells an absent JSON field apart from an explicit null, so PATCH
// can clear nullable columns.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// parseID reads the :id route param. Anything that is not a positive integer
// cannot name a record.
func parseID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// bind decodes the JSON body into dst and runs its validate tags. When it
// returns false the error response has already been written.
func bind(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return false, utils.ValidationError(c, bodyError(err))
	}
	if errs := utils.ValidateStruct(dst); errs != nil {
		return false, utils.ValidationError(c, errs)
	}
	return true, nil
}

func bodyError(err error) utils.FieldErrors {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return utils.FieldErrors{typeErr.Field: {"Incorrect type. Expected " + typeErr.Type.String() + "."}}
	}
	return utils.FieldErrors{"non_field_errors": {"JSON parse error: " + err.Error()}}
}

// findOr404 loads the record named by :id into dst, writing a 404 when the
// id is malformed or unknown.
func findOr404(c *fiber.Ctx, db *gorm.DB, dst interface{}, entity string) (bool, error) {
	id, ok := parseID(c)
	if !ok {
		return false, utils.NotFound(c, entity+" not found")
	}
	err := db.WithContext(c.UserContext()).First(dst, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, utils.NotFound(c, entity+" not found")
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// isDuplicate reports whether err is a unique constraint violation.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
