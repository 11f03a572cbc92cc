package utils

import "github.com/google/uuid"

// NewID 主键统一用 uuid 字符串
func NewID() string { return uuid.NewString() }
