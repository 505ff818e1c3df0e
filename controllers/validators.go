package controllers

import (
	"civicsync-workflow/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RegisterValidators adds the custom binding tags used by request structs:
// objectid, issue_category, issue_status and vote_type.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	rules := map[string]validator.Func{
		"objectid": func(fl validator.FieldLevel) bool {
			return primitive.IsValidObjectID(fl.Field().String())
		},
		"issue_category": func(fl validator.FieldLevel) bool {
			return models.IssueCategory(fl.Field().String()).Valid()
		},
		"issue_status": func(fl validator.FieldLevel) bool {
			return models.IssueStatus(fl.Field().String()).Valid()
		},
		"vote_type": func(fl validator.FieldLevel) bool {
			return models.VoteType(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
