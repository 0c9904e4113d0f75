package trees

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aretw0/canopy/pkg/domain"
)

// ErrInvalidInput wraps every request validation failure.
var ErrInvalidInput = errors.New("invalid input")

// validate is the shared validator instance, initialised with custom rules.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// TreeInput creates a tree, optionally with its root node.
type TreeInput struct {
	Name        string     `json:"name" validate:"required,notblank,max=255"`
	Description string     `json:"description"`
	IsTemplate  bool       `json:"is_template"`
	IsPublic    bool       `json:"is_public"`
	Root        *RootInput `json:"root_node" validate:"omitempty"`
}

// RootInput describes the initial root node. A terminal root would make a trivial tree.
type RootInput struct {
	Name        string `json:"name" validate:"required,notblank,max=255"`
	Kind        string `json:"kind" validate:"required,oneof=decision chance"`
	Description string `json:"description"`
	PositionX   int    `json:"position_x"`
	PositionY   int    `json:"position_y"`
}

// TreePatch updates tree metadata. Nil fields are left untouched.
type TreePatch struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=255"`
	Description *string `json:"description"`
	IsTemplate  *bool   `json:"is_template"`
	IsPublic    *bool   `json:"is_public"`
}

// NodeInput creates or fully replaces a node.
type NodeInput struct {
	ParentID    string            `json:"parent_id"`
	Kind        string            `json:"kind" validate:"required,oneof=decision chance terminal"`
	Name        string            `json:"name" validate:"required,notblank,max=255"`
	Description string            `json:"description"`
	Probability *float64          `json:"probability" validate:"omitempty,gte=0,lte=1"`
	Cost        float64           `json:"cost" validate:"gte=0"`
	Utility     *float64          `json:"utility"`
	PositionX   int               `json:"position_x"`
	PositionY   int               `json:"position_y"`
	Metadata    map[string]string `json:"metadata"`
}

// MoveInput reparents a node. An empty ParentID makes it a root.
type MoveInput struct {
	ParentID  string `json:"parent_id"`
	PositionX int    `json:"position_x"`
	PositionY int    `json:"position_y"`
}

func (in NodeInput) node(id string) domain.Node {
	n := domain.Node{
		ID:          id,
		ParentID:    in.ParentID,
		Kind:        domain.Kind(in.Kind),
		Name:        strings.TrimSpace(in.Name),
		Cost:        in.Cost,
		Description: in.Description,
		PositionX:   in.PositionX,
		PositionY:   in.PositionY,
	}
	if in.Probability != nil {
		n.Probability = domain.Float(*in.Probability)
	}
	if in.Utility != nil {
		n.Utility = domain.Float(*in.Utility)
	}
	if len(in.Metadata) > 0 {
		n.Metadata = make(map[string]string, len(in.Metadata))
		for k, v := range in.Metadata {
			n.Metadata[k] = v
		}
	}
	return n
}

// check runs struct validation and flattens failures into one ErrInvalidInput.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
