package models

import (
	"strings"

	"github.com/asaskevich/govalidator"

	id "portcullis/pkg/domain"
	dErrors "portcullis/pkg/domain-errors"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 500
	DefaultPageSize      = 50
	MaxPageSize          = 200
)

type CreateRoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r *CreateRoleRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *CreateRoleRequest) Validate() error {
	if err := validateName("name", r.Name); err != nil {
		return err
	}
	return validateDescription(r.Description)
}

// UpdateRoleRequest changes only the fields that are set.
type UpdateRoleRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (r *UpdateRoleRequest) Normalize() {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
	if r.Description != nil {
		desc := strings.TrimSpace(*r.Description)
		r.Description = &desc
	}
}

func (r *UpdateRoleRequest) Validate() error {
	if r.Name == nil && r.Description == nil && r.IsActive == nil {
		return dErrors.New(dErrors.CodeValidation, "At least one field must be provided")
	}
	if r.Name != nil {
		if err := validateName("name", *r.Name); err != nil {
			return err
		}
	}
	if r.Description != nil {
		return validateDescription(*r.Description)
	}
	return nil
}

type CreatePermissionRequest struct {
	Resource    string `json:"resource"`
	Action      Action `json:"action"`
	Description string `json:"description"`
}

func (r *CreatePermissionRequest) Normalize() {
	r.Resource = strings.ToLower(strings.TrimSpace(r.Resource))
	r.Action = Action(strings.ToLower(strings.TrimSpace(string(r.Action))))
	r.Description = strings.TrimSpace(r.Description)
}

func (r *CreatePermissionRequest) Validate() error {
	if err := validateName("resource", r.Resource); err != nil {
		return err
	}
	if strings.Contains(r.Resource, ":") {
		return dErrors.New(dErrors.CodeValidation, "resource must not contain ':'")
	}
	if !r.Action.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "action must be one of read, write, update, delete")
	}
	return validateDescription(r.Description)
}

type UpdatePermissionRequest struct {
	Description string `json:"description"`
}

func (r *UpdatePermissionRequest) Validate() error {
	return validateDescription(strings.TrimSpace(r.Description))
}

type RolePermissionRequest struct {
	PermissionID id.PermissionID `json:"permission_id"`
}

func (r *RolePermissionRequest) Validate() error {
	if r.PermissionID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "permission_id is required")
	}
	return nil
}

type UserRoleRequest struct {
	RoleID id.RoleID `json:"role_id"`
}

func (r *UserRoleRequest) Validate() error {
	if r.RoleID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "role_id is required")
	}
	return nil
}

type SetOverrideRequest struct {
	PermissionID id.PermissionID `json:"permission_id"`
	GrantType    GrantType       `json:"grant_type"`
}

func (r *SetOverrideRequest) Validate() error {
	if r.PermissionID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "permission_id is required")
	}
	if !r.GrantType.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "grant_type must be one of grant, deny, inherit")
	}
	return nil
}

// Page is a limit/offset window. Zero values select the defaults.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func validateName(field, value string) error {
	if value == "" {
		return dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	if len(value) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, field+" must be at most 100 characters")
	}
	if !govalidator.IsPrintableASCII(value) {
		return dErrors.New(dErrors.CodeValidation, field+" must be printable ASCII")
	}
	return nil
}

func validateDescription(value string) error {
	if len(value) > maxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description must be at most 500 characters")
	}
	return nil
}
