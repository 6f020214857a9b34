// Package dto defines the Go shapes of the four catalog resources the SDK
// consumes as already-deserialized structures (spec.md §6 "Input data").
// JSON/gzip decoding of the underlying resource files is an external
// collaborator's concern and is out of scope here (spec.md §1).
package dto

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/dnv-opensource/vista-sdk-go/api/visversion"
)

// GmodNodeDto is one node description inside a GmodDto.
type GmodNodeDto struct {
	Category              string            `json:"category" validate:"required"`
	Type                  string            `json:"type" validate:"required"`
	Code                  string            `json:"code" validate:"required"`
	Name                  string            `json:"name" validate:"required"`
	CommonName            string            `json:"commonName,omitempty"`
	Definition            string            `json:"definition,omitempty"`
	CommonDefinition      string            `json:"commonDefinition,omitempty"`
	InstallSubstructure   bool              `json:"installSubstructure,omitempty"`
	NormalAssignmentNames map[string]string `json:"normalAssignmentNames,omitempty"`
}

// GmodRelationDto is a [parentCode, childCode] edge.
type GmodRelationDto [2]string

// GmodDto is the node-list + edge-list shape for one VIS version's GMOD.
type GmodDto struct {
	VisVersion visversion.VisVersion `json:"visVersion" validate:"required,known_vis_version"`
	Items      []GmodNodeDto         `json:"items" validate:"required,dive"`
	Relations  []GmodRelationDto     `json:"relations"`
}

// CodebookEntryDto is one group -> values mapping inside a CodebooksDto.
type CodebookEntryDto struct {
	Group  string   `json:"group" validate:"required"`
	Values []string `json:"values" validate:"required"`
}

// CodebookDto carries one codebook kind's entries.
type CodebookDto struct {
	Name    string             `json:"name" validate:"required"`
	Entries []CodebookEntryDto `json:"values" validate:"required,dive"`
}

// CodebooksDto is the per-kind collection for one VIS version.
type CodebooksDto struct {
	VisVersion visversion.VisVersion `json:"visVersion" validate:"required,known_vis_version"`
	Items      []CodebookDto         `json:"items" validate:"required,dive"`
}

// LocationItemDto is one admissible location letter: its code, name, an
// optional definition, and the group it belongs to.
type LocationItemDto struct {
	Code       string `json:"code" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Definition string `json:"definition,omitempty"`
	Group      string `json:"group" validate:"required"`
}

// LocationsDto is the relative-locations table for one VIS version.
type LocationsDto struct {
	VisVersion visversion.VisVersion `json:"visVersion" validate:"required,known_vis_version"`
	Items      []LocationItemDto     `json:"items" validate:"dive"`
}

// NodeConversionDto is one changelog entry: source code -> target code
// plus optional assignment rewrites (spec.md §3 VersioningChangelog).
type NodeConversionDto struct {
	Operations       []string `json:"operations" validate:"required"`
	Source           string   `json:"source,omitempty"`
	Target           string   `json:"target,omitempty"`
	OldAssignment    string   `json:"oldAssignment,omitempty"`
	NewAssignment    string   `json:"newAssignment,omitempty"`
	DeleteAssignment bool     `json:"deleteAssignment,omitempty"`
}

// GmodVersioningDto is the per-target-version changelog: source code ->
// NodeConversionDto.
type GmodVersioningDto struct {
	VisVersion visversion.VisVersion        `json:"visVersion" validate:"required,known_vis_version"`
	Items      map[string]NodeConversionDto `json:"items" validate:"required"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("known_vis_version", func(fl validator.FieldLevel) bool {
		v, ok := fl.Field().Interface().(visversion.VisVersion)

		return ok && v.IsValid()
	}); err != nil {
		panic(fmt.Errorf("registering known_vis_version validator: %w", err))
	}
}

// Validate runs struct-tag validation over any of the DTO shapes above,
// mirroring the teacher's fabricatorValidate.StructCtx pattern.
func Validate(ctx context.Context, dto any) error {
	if err := validate.StructCtx(ctx, dto); err != nil {
		return fmt.Errorf("validating %T: %w", dto, err)
	}

	return nil
}
