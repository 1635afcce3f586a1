package service

import (
	"context"
	"errors"

	"onboarding/internal/onboarding/disclosure"
	"onboarding/internal/onboarding/form"
	"onboarding/internal/onboarding/models"
	"onboarding/internal/onboarding/validation"
	dErrors "onboarding/pkg/domain-errors"
)

// Operation names used in logs and metrics.
const (
	OpUpdateProfile = "update_profile"
	OpAddRecord     = "add_record"
	OpDeleteRecord  = "delete_record"
	OpUpdateRecord  = "update_record"
	OpAddSkills     = "add_skills"
	OpRemoveSkill   = "remove_skill"
	OpTogglePanel   = "toggle_panel"
)

// UpdateProfileField edits one profile input. A value that fails validation
// is still stored; the field's inline error reports it and the returned
// result is invalid.
func (s *Service) UpdateProfileField(ctx context.Context, sessionID, field, value string) (*form.Form, validation.Result, error) {
	pf, ok := models.ParseProfileField(field)
	if !ok {
		return nil, validation.Result{}, dErrors.New(dErrors.CodeBadRequest, "unknown profile field: "+field)
	}
	var res validation.Result
	f, err := s.mutate(ctx, sessionID, OpUpdateProfile, func(f *form.Form) error {
		var err error
		res, err = f.SetProfileField(pf, value)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid profile field")
		}
		return nil
	})
	if err != nil {
		return nil, validation.Result{}, err
	}
	if !res.Valid {
		s.metrics.IncrementValidationFailures(string(pf))
	}
	return f, res, nil
}

// AddRecord appends a blank record to section when its last record is complete.
// Adding while disabled leaves the list unchanged.
func (s *Service) AddRecord(ctx context.Context, sessionID, section string) (*form.Form, error) {
	sec, err := parseSection(section)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, OpAddRecord, func(f *form.Form) error {
		ed, _ := f.Editor(sec)
		ed.Add()
		return nil
	})
}

// DeleteRecord removes the last record of section, keeping at least one.
func (s *Service) DeleteRecord(ctx context.Context, sessionID, section string) (*form.Form, error) {
	sec, err := parseSection(section)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, OpDeleteRecord, func(f *form.Form) error {
		ed, _ := f.Editor(sec)
		ed.Delete()
		return nil
	})
}

// FieldValue is one submitted record field.
type FieldValue struct {
	Field string
	Value string
}

// UpdateRecord sets one field of the record at index. An index past either
// end is ignored.
func (s *Service) UpdateRecord(ctx context.Context, sessionID, section string, index int, field, value string) (*form.Form, error) {
	return s.UpdateRecordFields(ctx, sessionID, section, index, []FieldValue{{Field: field, Value: value}})
}

// UpdateRecordFields applies several field edits to one record in a single
// draft update, in the order given. Any bad field rejects the whole save.
func (s *Service) UpdateRecordFields(ctx context.Context, sessionID, section string, index int, values []FieldValue) (*form.Form, error) {
	sec, err := parseSection(section)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no fields submitted")
	}
	return s.mutate(ctx, sessionID, OpUpdateRecord, func(f *form.Form) error {
		ed, _ := f.Editor(sec)
		for _, fv := range values {
			if _, err := ed.Update(index, fv.Field, fv.Value); err != nil {
				var unknown models.ErrUnknownField
				if errors.As(err, &unknown) {
					return dErrors.Wrap(err, dErrors.CodeBadRequest, "unknown record field: "+fv.Field)
				}
				return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid value for "+fv.Field)
			}
		}
		return nil
	})
}

// AddSkills adds every name in a comma-separated list.
func (s *Service) AddSkills(ctx context.Context, sessionID, names string) (*form.Form, error) {
	return s.mutate(ctx, sessionID, OpAddSkills, func(f *form.Form) error {
		f.Skills.AddList(names)
		return nil
	})
}

// RemoveSkill removes one skill; removing an absent skill is a no-op.
func (s *Service) RemoveSkill(ctx context.Context, sessionID, name string) (*form.Form, error) {
	return s.mutate(ctx, sessionID, OpRemoveSkill, func(f *form.Form) error {
		f.Skills.Remove(name)
		return nil
	})
}

// TogglePanel flips one disclosure panel.
func (s *Service) TogglePanel(ctx context.Context, sessionID, panel string) (*form.Form, error) {
	id, ok := disclosure.ParsePanelID(panel)
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown panel: "+panel)
	}
	return s.mutate(ctx, sessionID, OpTogglePanel, func(f *form.Form) error {
		f.Panels.Toggle(id)
		return nil
	})
}

func parseSection(section string) (form.Section, error) {
	sec, ok := form.ParseSection(section)
	if !ok {
		return "", dErrors.New(dErrors.CodeBadRequest, "unknown section: "+section)
	}
	return sec, nil
}
