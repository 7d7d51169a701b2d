package handler

import (
	"sync"

	"exchangedesk/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the domain binding tags to gin's validator:
// taskstatus, taskpriority and participantrole. Empty values pass; combine
// with required where a value is mandatory.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		rules := map[string]validator.Func{
			"taskstatus": func(fl validator.FieldLevel) bool {
				s := model.TaskStatus(fl.Field().String())
				return s == "" || s.Valid()
			},
			"taskpriority": func(fl validator.FieldLevel) bool {
				p := model.TaskPriority(fl.Field().String())
				return p == "" || p.Valid()
			},
			"participantrole": func(fl validator.FieldLevel) bool {
				r := model.ParticipantRole(fl.Field().String())
				return r == "" || r.Valid()
			},
		}
		for tag, fn := range rules {
			if err = v.RegisterValidation(tag, fn); err != nil {
				return
			}
		}
	})
	return err
}
