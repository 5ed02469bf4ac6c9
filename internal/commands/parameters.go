package commands

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/lifecycle"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/mapper"
)

// model is implemented by every domain type a handler accepts.
type model[T any] interface {
	*T
	SetDefaults()
	Validate() error
}

var fieldInMessage = regexp.MustCompile(`\{([^}]+)\}`)

// NewValidator returns a validator reporting fields by their property name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// GetParameters decodes the properties of event into T. Defaults are applied
// before validation. Delete events are not validated: the properties of a
// resource whose create failed validation still have to be deletable.
func GetParameters[T any, PT model[T]](v *validator.Validate, event *lifecycle.Event) (*lifecycle.EventParams[T], error) {
	params, err := decode[T, PT](event.ResourceProperties)
	if err != nil {
		if event.RequestType == lifecycle.RequestDelete {
			return &lifecycle.EventParams[T]{Params: new(T)}, nil
		}
		return nil, err
	}

	out := &lifecycle.EventParams[T]{Params: params}
	if event.RequestType == lifecycle.RequestDelete {
		return out, nil
	}

	if err := validate[T, PT](v, PT(params)); err != nil {
		return nil, err
	}

	if event.RequestType == lifecycle.RequestUpdate {
		// the previous properties were valid when they were applied
		old, err := decode[T, PT](event.OldResourceProperties)
		if err != nil {
			return nil, err
		}
		out.Old = old
	}
	return out, nil
}

func decode[T any, PT model[T]](properties map[string]any) (*T, error) {
	params, err := mapper.PropertiesToDomain[T](properties)
	if err != nil {
		e := faults.Wrap(faults.ValidationError, err, "invalid resource properties")
		return nil, e
	}
	PT(params).SetDefaults()
	return params, nil
}

// validate reports the first missing or invalid field.
func validate[T any, PT model[T]](v *validator.Validate, params PT) error {
	if err := v.Struct(params); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			fe := errs[0]
			reason := "invalid parameter"
			if strings.HasPrefix(fe.Tag(), "required") {
				reason = "missing parameter"
			}
			return faults.Validation(fieldPath(fe.Namespace()), reason)
		}
		return faults.Wrap(faults.ValidationError, err, "invalid resource properties")
	}

	if err := params.Validate(); err != nil {
		e := faults.Wrap(faults.ValidationError, err, "")
		if m := fieldInMessage.FindStringSubmatch(err.Error()); m != nil {
			e = e.WithDetail("field", m[1])
		}
		return e
	}
	return nil
}

// fieldPath drops the struct name validator puts in front of the namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
