package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"church-manager/pkg/utils"
)

var once sync.Once

// Register 往 gin 的 validator 引擎挂自定义规则，可重复调用
func Register() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		// 字段名用 json tag，错误信息对前端更友好
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		// 名称类字段：全空白视同未填
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		// 更新入参是指针，omitempty 挡不住 ""；清空字段要显式放行
		v.RegisterAlias("url_or_empty", "len=0|url")
		v.RegisterAlias("email_or_empty", "len=0|email")
		_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
			return utils.IsAmount(fl.Field().String())
		})
	})
}

// Message 把绑定错误转成 "field: rule" 形式
func Message(err error) string {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		parts := make([]string, 0, len(ves))
		for _, fe := range ves {
			parts = append(parts, fieldMessage(fe))
		}
		return strings.Join(parts, "; ")
	}
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return "malformed json"
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		return fmt.Sprintf("%s: must be %s", te.Field, te.Type.String())
	}
	return err.Error()
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + ": required"
	case "notblank":
		return field + ": must not be blank"
	case "email", "email_or_empty":
		return field + ": must be a valid email"
	case "url", "url_or_empty":
		return field + ": must be a valid URL"
	case "oneof":
		return field + ": must be one of [" + fe.Param() + "]"
	case "decimal":
		return field + ": must be a decimal amount"
	case "min", "max":
		return field + ": " + fe.Tag() + " " + fe.Param()
	default:
		return field + ": " + fe.Tag()
	}
}
