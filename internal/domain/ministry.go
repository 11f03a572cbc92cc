package domain

import "strings"

type Ministry struct {
	Base
	Name        string `gorm:"size:128;not null;index" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (Ministry) TableName() string { return "ministries" }

type MinistryCreate struct {
	Name        string `json:"name" binding:"required,notblank,min=2,max=128"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

func (in *MinistryCreate) Model() *Ministry {
	return &Ministry{Name: strings.TrimSpace(in.Name), Description: strings.TrimSpace(in.Description)}
}

type MinistryPatch struct {
	Name        *string `json:"name" binding:"omitempty,notblank,min=2,max=128"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

func (p *MinistryPatch) Changes() map[string]any {
	m := map[string]any{}
	setIf(m, "name", trimPtr(p.Name))
	setIf(m, "description", trimPtr(p.Description))
	return m
}

// Function 事工内的职能（如：主领、吉他、音控）
type Function struct {
	Base
	Name        string  `gorm:"size:128;not null;index" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	MinistryID  *string `gorm:"size:36;index" json:"ministryId"`
}

func (Function) TableName() string { return "functions" }

type FunctionCreate struct {
	Name        string  `json:"name" binding:"required,notblank,min=2,max=128"`
	Description string  `json:"description" binding:"omitempty,max=2000"`
	MinistryID  *string `json:"ministryId"`
}

func (in *FunctionCreate) Model() *Function {
	return &Function{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		MinistryID:  emptyToNil(in.MinistryID),
	}
}

type FunctionPatch struct {
	Name        *string `json:"name" binding:"omitempty,notblank,min=2,max=128"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	MinistryID  *string `json:"ministryId"`
}

func (p *FunctionPatch) Changes() map[string]any {
	m := map[string]any{}
	setIf(m, "name", trimPtr(p.Name))
	setIf(m, "description", trimPtr(p.Description))
	setNullable(m, "ministry_id", p.MinistryID)
	return m
}
